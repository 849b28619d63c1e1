package ws

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/ValentinKolb/rfs/rpc/transport/base"
	"github.com/ValentinKolb/rfs/rpc/transport/tcp"
	"github.com/gorilla/websocket"
)

// clientConnector implements the IClientConnector interface for websockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "ws"
}

func (c *clientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}

	ws, resp, err := dialer.DialContext(ctx, endpointURL(endpoint), nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("websocket upgrade failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, err
	}
	return newConn(ws), nil
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	wc, ok := conn.(*wsConn)
	if !ok {
		return nil
	}
	return tcp.TuneConn(wc.ws.UnderlyingConn(), config.Transport.TCPConf, config.Transport.SocketConf)
}

// endpointURL turns host:port into a websocket URL, full URLs are used as given
func endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return endpoint
	}
	return "ws://" + endpoint + Path
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewWSClientTransport creates a new websocket client transport
func NewWSClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
