package base

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/ValentinKolb/rfs/rpc/transport/framing"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	mu        sync.RWMutex
	config    common.ClientConfig
	codec     framing.IFrameCodec
	connected bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if config.Transport.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}

	codec, err := framing.NewFrameCodec(config.Transport.Framing, config.Transport.MaxFrameSize)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.config = config
	t.codec = codec
	t.connected = true

	Logger.Debugf("Using %s transport to %s (framing: %s)",
		t.connector.GetName(), config.Transport.Endpoint, codec.GetName())
	return nil
}

func (t *clientTransport) Send(req []byte) ([]byte, error) {
	t.mu.RLock()
	config, codec, connected := t.config, t.codec, t.connected
	t.mu.RUnlock()

	if !connected {
		return nil, fmt.Errorf("transport is not connected")
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second

	// Every request uses its own connection
	conn, err := t.connector.Connect(config.Transport.Endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Transport.Endpoint, err)
	}
	defer conn.Close()

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", config.Transport.Endpoint, err)
	}

	// The timeout applies to each read and write, large frames may take longer in total
	rw := withProgressDeadline(conn, timeout)

	if err := codec.WriteFrame(rw, req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	resp, err := codec.NewReader(rw).ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}

func (t *clientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	return nil
}
