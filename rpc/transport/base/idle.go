package base

import (
	"net"
	"time"
)

// deadlineConn pushes the read and write deadlines forward before every
// Read and Write, so the timeout only fires when the peer makes no progress
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

// withProgressDeadline wraps conn, a timeout <= 0 disables deadlines
func withProgressDeadline(conn net.Conn, timeout time.Duration) net.Conn {
	if timeout <= 0 {
		return conn
	}
	return &deadlineConn{Conn: conn, timeout: timeout}
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}
