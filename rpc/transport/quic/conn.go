package quic

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	quicgo "github.com/quic-go/quic-go"
)

// streamConn exposes the single bidirectional stream of a QUIC connection as net.Conn.
// Closing it closes the stream and the connection.
type streamConn struct {
	conn      *quicgo.Conn
	stream    *quicgo.Stream
	closeOnce sync.Once
}

func newStreamConn(conn *quicgo.Conn, stream *quicgo.Stream) *streamConn {
	return &streamConn{conn: conn, stream: stream}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see net.Conn)
// --------------------------------------------------------------------------

func (c *streamConn) Read(p []byte) (int, error) {
	n, err := c.stream.Read(p)
	return n, mapError(err)
}

func (c *streamConn) Write(p []byte) (int, error) {
	n, err := c.stream.Write(p)
	return n, mapError(err)
}

func (c *streamConn) Close() error {
	c.closeOnce.Do(func() {
		// FIN first so the peer reads io.EOF instead of a connection error
		_ = c.stream.Close()
		_ = c.conn.CloseWithError(0, "")
	})
	return nil
}

func (c *streamConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *streamConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *streamConn) SetDeadline(t time.Time) error {
	return c.stream.SetDeadline(t)
}

func (c *streamConn) SetReadDeadline(t time.Time) error {
	return c.stream.SetReadDeadline(t)
}

func (c *streamConn) SetWriteDeadline(t time.Time) error {
	return c.stream.SetWriteDeadline(t)
}

// mapError reports a connection closed by the peer without an error code as io.EOF
func mapError(err error) error {
	var appErr *quicgo.ApplicationError
	if errors.As(err, &appErr) && appErr.ErrorCode == 0 {
		return io.EOF
	}
	return err
}
