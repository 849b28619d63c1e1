package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultServerEndpoint      = "0.0.0.0:6667"
	DefaultClientEndpoint      = "localhost:6667"
	DefaultWorkers             = 5
	DefaultIdleTimeoutSecond   = 300
	DefaultShutdownGraceSecond = 5
	DefaultClientTimeoutSecond = 300
	DefaultFraming             = "delimiter"
)

// --------------------------------------------------------------------------
// Worker Mode
// --------------------------------------------------------------------------

// WorkerMode selects how protocol instances are assigned to pool workers
type WorkerMode string

const (
	// WorkerModeShared uses one protocol instance for all workers
	WorkerModeShared WorkerMode = "shared"
	// WorkerModeIsolated gives every worker its own protocol instance,
	// created once when the worker starts
	WorkerModeIsolated WorkerMode = "isolated"
)

// ParseWorkerMode converts a configuration string into a WorkerMode
func ParseWorkerMode(s string) (WorkerMode, error) {
	switch WorkerMode(strings.ToLower(strings.TrimSpace(s))) {
	case WorkerModeShared:
		return WorkerModeShared, nil
	case WorkerModeIsolated:
		return WorkerModeIsolated, nil
	default:
		return "", fmt.Errorf("invalid worker mode %q (expected one of: shared, isolated)", s)
	}
}

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds socket buffer sizes in bytes. Zero keeps the OS default.
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the listener and connection settings of the server
type ServerTransportConfig struct {
	// Endpoint is the address to listen on (host:port, socket path, ...)
	Endpoint string
	// Framing is the name of the frame codec (delimiter, length)
	Framing string
	// MaxFrameSize caps a single inbound frame in bytes, 0 means unbounded
	MaxFrameSize int
	// IdleTimeoutSecond closes connections that send nothing for this long, 0 disables
	IdleTimeoutSecond int
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters of the file server
type ServerConfig struct {
	Transport ServerTransportConfig

	// Worker pool
	Workers             int
	WorkerMode          WorkerMode
	ShutdownGraceSecond int

	// Storage
	DataDir string

	// Observability
	MetricsEndpoint string
	LogLevel        string
}

// DefaultServerConfig returns a server configuration with all defaults applied
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport: ServerTransportConfig{
			Endpoint:          DefaultServerEndpoint,
			Framing:           DefaultFraming,
			IdleTimeoutSecond: DefaultIdleTimeoutSecond,
			TCPConf: TCPConf{
				TCPNoDelay:   true,
				TCPLingerSec: -1,
			},
		},
		Workers:             DefaultWorkers,
		WorkerMode:          WorkerModeShared,
		ShutdownGraceSecond: DefaultShutdownGraceSecond,
		DataDir:             ".",
		LogLevel:            "info",
	}
}

// Validate checks the configuration for values the server cannot run with
// and normalizes the worker mode
func (c *ServerConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	mode, err := ParseWorkerMode(string(c.WorkerMode))
	if err != nil {
		return err
	}
	c.WorkerMode = mode
	if c.Transport.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Transport.MaxFrameSize < 0 {
		return fmt.Errorf("max frame size must not be negative")
	}
	if c.Transport.IdleTimeoutSecond < 0 {
		return fmt.Errorf("idle timeout must not be negative")
	}
	if c.ShutdownGraceSecond < 0 {
		return fmt.Errorf("shutdown grace must not be negative")
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Framing", c.Transport.Framing)
	addField("Max Frame Size", sizeOrUnbounded(c.Transport.MaxFrameSize))
	addField("Idle Timeout", secondsOrDisabled(c.Transport.IdleTimeoutSecond))

	// Worker pool
	addSection("Worker Pool")
	addField("Workers", strconv.Itoa(c.Workers))
	addField("Worker Mode", string(c.WorkerMode))
	addField("Shutdown Grace", fmt.Sprintf("%d sec", c.ShutdownGraceSecond))

	// Storage
	addSection("Storage")
	addField("Data Directory", c.DataDir)

	// Logging and metrics
	addSection("Observability")
	addField("Log Level", c.LogLevel)
	if c.MetricsEndpoint == "" {
		addField("Metrics Endpoint", "disabled")
	} else {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the connection settings of the client
type ClientTransportConfig struct {
	Endpoint     string
	Framing      string
	MaxFrameSize int
	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters of the file client
type ClientConfig struct {
	// TimeoutSecond bounds every request, 0 disables the deadline
	TimeoutSecond int
	// WorkDir is where downloaded files are written and uploads are read from
	WorkDir   string
	Transport ClientTransportConfig
}

// DefaultClientConfig returns a client configuration with all defaults applied
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		TimeoutSecond: DefaultClientTimeoutSecond,
		WorkDir:       ".",
		Transport: ClientTransportConfig{
			Endpoint: DefaultClientEndpoint,
			Framing:  DefaultFraming,
			TCPConf: TCPConf{
				TCPNoDelay:   true,
				TCPLingerSec: -1,
			},
		},
	}
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", secondsOrDisabled(c.TimeoutSecond))
	addField("Framing", c.Transport.Framing)
	addField("Work Directory", c.WorkDir)

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func secondsOrDisabled(sec int) string {
	if sec <= 0 {
		return "disabled"
	}
	return fmt.Sprintf("%d sec", sec)
}

func sizeOrUnbounded(size int) string {
	if size <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d bytes", size)
}
