package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/ValentinKolb/rfs/rpc/transport/framing"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sourcegraph/conc/panics"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Metrics
// -----------------------------------------------------------

var (
	connectionsAccepted = metrics.GetOrCreateCounter("rfs_connections_accepted_total")
	connectionsActive   = metrics.GetOrCreateCounter("rfs_connections_active")
	bytesReceived       = metrics.GetOrCreateCounter("rfs_bytes_received_total")
	bytesSent           = metrics.GetOrCreateCounter("rfs_bytes_sent_total")
	handlerPanics       = metrics.GetOrCreateCounter("rfs_handler_panics_total")
	acceptRetries       = metrics.GetOrCreateCounter("rfs_accept_retries_total")
)

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	factory   transport.HandlerFactory
	config    common.ServerConfig
	codec     framing.IFrameCodec
	active    *xsync.MapOf[uint64, net.Conn]
	nextID    atomic.Uint64
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport for the given connector.
// Connections are served by a fixed worker pool, see IWorkerPool.
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		active:    xsync.NewMapOf[uint64, net.Conn](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandlerFactory(factory transport.HandlerFactory) {
	t.factory = factory
}

func (t *serverTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	if t.factory == nil {
		return fmt.Errorf("no handler factory registered")
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	t.config = config

	codec, err := framing.NewFrameCodec(config.Transport.Framing, config.Transport.MaxFrameSize)
	if err != nil {
		return err
	}
	t.codec = codec

	// Create the worker pool, in isolated mode this initializes one handler per worker
	pool, err := NewWorkerPool(config.WorkerMode, config.Workers, t.factory, t.handleConnection)
	if err != nil {
		return err
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		pool.Shutdown(0)
		return fmt.Errorf("failed to create listener: %w", err)
	}

	Logger.Infof("Starting %s server on %s with %d workers (mode: %s, framing: %s)",
		t.connector.GetName(), listener.Addr(), pool.Size(), pool.Mode(), codec.GetName())

	// Cancelling ctx unblocks Accept and a Submit waiting for a free worker
	stop := context.AfterFunc(ctx, func() {
		Logger.Infof("Shutdown requested, closing listener")
		_ = listener.Close()
		pool.Stop()
	})
	defer stop()

	var acceptErr error
	var retryDelay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			if isTemporaryAcceptError(err) {
				retryDelay = nextRetryDelay(retryDelay)
				acceptRetries.Inc()
				Logger.Warningf("Accept error: %v, retrying in %s", err, retryDelay)
				select {
				case <-ctx.Done():
				case <-time.After(retryDelay):
				}
				continue
			}
			acceptErr = fmt.Errorf("accept failed: %w", err)
			break
		}
		retryDelay = 0
		connectionsAccepted.Inc()

		// Apply protocol-specific settings
		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}

		// Blocks while all workers are busy
		if !pool.Submit(conn) {
			_ = conn.Close()
			break
		}
	}

	_ = listener.Close()
	t.shutdown(pool)
	return acceptErr
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// isTemporaryAcceptError reports whether Accept may succeed again later,
// e.g. after the process closed some file descriptors
func isTemporaryAcceptError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.EMFILE, syscall.ENFILE, syscall.ECONNABORTED,
		syscall.ECONNRESET, syscall.ENOBUFS, syscall.ENOMEM,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// nextRetryDelay doubles the delay, starting at 5ms and capped at one second
func nextRetryDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return 5 * time.Millisecond
	}
	if delay *= 2; delay > time.Second {
		return time.Second
	}
	return delay
}

// shutdown drains the pool and force-closes connections that outlive the grace period
func (t *serverTransport) shutdown(pool IWorkerPool) {
	grace := time.Duration(t.config.ShutdownGraceSecond) * time.Second
	if pool.Shutdown(grace) {
		Logger.Infof("All workers stopped")
		return
	}

	Logger.Warningf("Grace period of %s expired, closing %d active connections", grace, t.active.Size())
	t.active.Range(func(_ uint64, conn net.Conn) bool {
		_ = conn.Close()
		return true
	})
	pool.Wait()
	Logger.Infof("All workers stopped")
}

// handleConnection serves one connection until the peer closes it or an error occurs.
// The connection is closed on every exit path. A panic in the handler drops only this connection.
func (t *serverTransport) handleConnection(conn net.Conn, handle transport.ServerHandleFunc) {
	id := t.nextID.Add(1)
	t.active.Store(id, conn)
	connectionsActive.Inc()

	defer func() {
		t.active.Delete(id)
		connectionsActive.Dec()
		_ = conn.Close()
	}()

	var pc panics.Catcher
	pc.Try(func() {
		t.serveConnection(conn, handle)
	})

	if r := pc.Recovered(); r != nil {
		handlerPanics.Inc()
		Logger.Errorf("Recovered panic on connection from %s: %v", conn.RemoteAddr(), r.Value)
	}
}

// serveConnection runs the read, dispatch, respond loop
func (t *serverTransport) serveConnection(conn net.Conn, handle transport.ServerHandleFunc) {
	// The idle timeout restarts whenever the peer sends or accepts data
	idleTimeout := time.Duration(t.config.Transport.IdleTimeoutSecond) * time.Second
	rw := withProgressDeadline(conn, idleTimeout)
	reader := t.codec.NewReader(rw)

	for {
		// Wait for the next complete frame
		req, err := reader.ReadFrame()

		// Case EOF: Connection closed by client
		if err == io.EOF {
			Logger.Debugf("Connection closed by client %s", conn.RemoteAddr())
			return
		}

		// Case idle deadline
		if errors.Is(err, os.ErrDeadlineExceeded) {
			Logger.Infof("Closing idle connection from %s", conn.RemoteAddr())
			return
		}

		// Case error: log and close connection
		if err != nil {
			Logger.Warningf("Error reading from %s: %v", conn.RemoteAddr(), err)
			return
		}
		bytesReceived.Add(len(req))

		// Process the request
		start := time.Now()
		resp, err := handle(req)
		if err != nil {
			Logger.Errorf("Handler failed, closing connection from %s: %v", conn.RemoteAddr(), err)
			return
		}
		Logger.Debugf("Processed request from %s in %s", conn.RemoteAddr(), time.Since(start))

		// Write the response
		if err := t.codec.WriteFrame(rw, resp); err != nil {
			Logger.Errorf("Failed to write response to %s: %v", conn.RemoteAddr(), err)
			return
		}
		bytesSent.Add(len(resp))
	}
}
