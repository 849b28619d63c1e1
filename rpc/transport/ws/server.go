package ws

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/ValentinKolb/rfs/rpc/transport/base"
	"github.com/ValentinKolb/rfs/rpc/transport/tcp"
	"github.com/gorilla/websocket"
)

// Path is the HTTP path where connections are upgraded
const Path = "/rfs"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// serverConnector implements the IServerConnector interface for websockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "ws"
}

func (c *serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	ln, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create TCP socket: %w", err)
	}

	l := &listener{
		ln:     ln,
		conns:  make(chan net.Conn),
		closed: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Path, l.handleUpgrade)
	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			base.Logger.Errorf("Websocket server stopped: %v", err)
		}
	}()

	return l, nil
}

func (c *serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	wc, ok := conn.(*wsConn)
	if !ok {
		return nil
	}
	return tcp.TuneConn(wc.ws.UnderlyingConn(), config.Transport.TCPConf, config.Transport.SocketConf)
}

// --------------------------------------------------------------------------
// Listener
// --------------------------------------------------------------------------

// listener hands out upgraded websocket connections as net.Conn
type listener struct {
	ln        net.Listener
	server    *http.Server
	conns     chan net.Conn
	closed    chan struct{}
	closeOnce sync.Once
}

func (l *listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		base.Logger.Warningf("Websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	// The connection is hijacked, it stays open after the handler returns
	conn := newConn(ws)
	select {
	case l.conns <- conn:
	case <-l.closed:
		_ = conn.Close()
	}
}

func (l *listener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)
		err = l.server.Close()
	})
	return err
}

func (l *listener) Addr() net.Addr {
	return l.ln.Addr()
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewWSServerTransport creates a new websocket server transport
func NewWSServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
