package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/serializer"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/ValentinKolb/rfs/rpc/transport/quic"
	"github.com/ValentinKolb/rfs/rpc/transport/tcp"
	"github.com/ValentinKolb/rfs/rpc/transport/unix"
	"github.com/ValentinKolb/rfs/rpc/transport/ws"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. RFS_ENDPOINT)
	EnvPrefix = "rfs"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// InitConfig loads .env files and makes viper read RFS_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupSocketFlags adds the socket tuning flags shared by server and client
func SetupSocketFlags(cmd *cobra.Command) {
	key := "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (tcp and ws only)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, 0 keeps the OS default, tcp and ws only)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("The linger time (in seconds, -1 keeps the OS default, tcp and ws only)"))
}

// GetSocketConf reads the socket tuning flags from viper
func GetSocketConf() (common.SocketConf, common.TCPConf) {
	return common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		}, common.TCPConf{
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
		}
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, common.DefaultClientTimeoutSecond, WrapString("The timeout in seconds of every request (0 disables the timeout)"))

	key = "endpoint"
	cmd.PersistentFlags().String(key, common.DefaultClientEndpoint, WrapString("The address of the file server (host:port, socket path or ws:// URL)"))

	key = "work-dir"
	cmd.PersistentFlags().String(key, ".", WrapString("Directory that downloads are written to and relative upload paths are read from"))

	key = "max-frame-size"
	cmd.PersistentFlags().Int(key, 0, WrapString("Maximum size of a response frame in bytes (0 means unbounded)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	SetupSocketFlags(cmd)
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	socketConf, tcpConf := GetSocketConf()
	return &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		WorkDir:       viper.GetString("work-dir"),
		Transport: common.ClientTransportConfig{
			Endpoint:     viper.GetString("endpoint"),
			Framing:      viper.GetString("framing"),
			MaxFrameSize: viper.GetInt("max-frame-size"),
			SocketConf:   socketConf,
			TCPConf:      tcpConf,
		},
	}
}

// --------------------------------------------------------------------------
// Component Factories
// --------------------------------------------------------------------------

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	opts := serializer.Options{
		Compress: viper.GetBool("compress"),
		Checksum: viper.GetBool("checksum"),
	}

	switch viper.GetString("serializer") {
	case "text":
		return serializer.NewTextSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializerWithOptions(opts), nil
	case "proto":
		return serializer.NewProtoSerializerWithOptions(opts), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s (expected one of: text, binary, proto)", viper.GetString("serializer"))
	}
}

// GetServerTransport creates the server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	case "ws":
		return ws.NewWSServerTransport(), nil
	case "quic":
		return quic.NewQUICServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s (expected one of: tcp, unix, ws, quic)", viper.GetString("transport"))
	}
}

// GetTransport creates the client transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	case "ws":
		return ws.NewWSClientTransport(), nil
	case "quic":
		return quic.NewQUICClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s (expected one of: tcp, unix, ws, quic)", viper.GetString("transport"))
	}
}
