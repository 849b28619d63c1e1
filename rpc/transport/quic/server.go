package quic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/ValentinKolb/rfs/rpc/transport/base"
	quicgo "github.com/quic-go/quic-go"
)

// serverConnector implements the IServerConnector interface for QUIC
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "quic"
}

func (c *serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	tlsConf, err := serverTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to generate certificate: %w", err)
	}

	ln, err := quicgo.ListenAddr(config.Transport.Endpoint, tlsConf, quicConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create QUIC listener: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &listener{
		ln:     ln,
		ctx:    ctx,
		cancel: cancel,
		conns:  make(chan net.Conn),
	}
	go l.acceptLoop()
	return l, nil
}

func (c *serverConnector) UpgradeConnection(net.Conn, common.ServerConfig) error {
	return nil // QUIC has no socket options per connection
}

// --------------------------------------------------------------------------
// Listener
// --------------------------------------------------------------------------

// listener accepts QUIC connections and hands out their first stream as net.Conn
type listener struct {
	ln        *quicgo.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	conns     chan net.Conn
	closeOnce sync.Once
}

func (l *listener) acceptLoop() {
	for {
		conn, err := l.ln.Accept(l.ctx)
		if err != nil {
			if l.ctx.Err() == nil && !errors.Is(err, quicgo.ErrServerClosed) {
				base.Logger.Errorf("QUIC accept failed: %v", err)
			}
			return
		}

		// The stream becomes visible once the client sends its first bytes
		go l.acceptStream(conn)
	}
}

func (l *listener) acceptStream(conn *quicgo.Conn) {
	stream, err := conn.AcceptStream(l.ctx)
	if err != nil {
		base.Logger.Debugf("No stream from %s: %v", conn.RemoteAddr(), err)
		_ = conn.CloseWithError(0, "")
		return
	}

	sc := newStreamConn(conn, stream)
	select {
	case l.conns <- sc:
	case <-l.ctx.Done():
		_ = sc.Close()
	}
}

func (l *listener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.cancel()
		err = l.ln.Close()
	})
	return err
}

func (l *listener) Addr() net.Addr {
	return l.ln.Addr()
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewQUICServerTransport creates a new QUIC server transport
func NewQUICServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
