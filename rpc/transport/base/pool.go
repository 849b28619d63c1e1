package base

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sourcegraph/conc"
)

// -----------------------------------------------------------
// Interface Definitions
// -----------------------------------------------------------

// ConnHandler serves one connection until it is closed, using handle for every request
type ConnHandler func(conn net.Conn, handle transport.ServerHandleFunc)

// IWorkerPool is a fixed set of workers that each serve one connection at a time.
// A connection stays with the worker that received it for its whole lifetime.
type IWorkerPool interface {
	// Submit hands conn to the next free worker. It blocks while all workers are busy
	// and returns false if the pool was stopped before a worker took the connection.
	Submit(conn net.Conn) bool
	// Stop makes the pool refuse new connections. Workers exit after their current connection.
	Stop()
	// Shutdown stops the pool and waits up to grace for the workers to exit.
	// It returns true if all workers exited in time.
	Shutdown(grace time.Duration) bool
	// Wait blocks until all workers exited
	Wait()
	// Size returns the number of workers
	Size() int
	// Mode returns how the workers share their request handler
	Mode() common.WorkerMode
	// Busy returns the number of workers currently serving a connection
	Busy() int
}

// -----------------------------------------------------------
// Pool Factory Methods
// -----------------------------------------------------------

// NewSharedPool creates a pool where all workers use the same handler.
// factory is called exactly once.
func NewSharedPool(size int, factory transport.HandlerFactory, serve ConnHandler) (IWorkerPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	handle, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create handler: %w", err)
	}

	handlers := make([]transport.ServerHandleFunc, size)
	for i := range handlers {
		handlers[i] = handle
	}
	return startPool(common.WorkerModeShared, handlers, serve), nil
}

// NewIsolatedPool creates a pool where every worker owns a private handler.
// factory is called once per worker before any connection is accepted.
func NewIsolatedPool(size int, factory transport.HandlerFactory, serve ConnHandler) (IWorkerPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	handlers := make([]transport.ServerHandleFunc, size)
	for i := range handlers {
		handle, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create handler for worker %d: %w", i, err)
		}
		handlers[i] = handle
	}
	return startPool(common.WorkerModeIsolated, handlers, serve), nil
}

// NewWorkerPool creates a pool for the given mode
func NewWorkerPool(mode common.WorkerMode, size int, factory transport.HandlerFactory, serve ConnHandler) (IWorkerPool, error) {
	parsed, err := common.ParseWorkerMode(string(mode))
	if err != nil {
		return nil, err
	}
	if parsed == common.WorkerModeIsolated {
		return NewIsolatedPool(size, factory, serve)
	}
	return NewSharedPool(size, factory, serve)
}

// -----------------------------------------------------------
// Pool Implementation
// -----------------------------------------------------------

type workerPool struct {
	mode     common.WorkerMode
	size     int
	serve    ConnHandler
	conns    chan net.Conn // unbuffered, a send succeeds only when a worker is idle
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	wg       conc.WaitGroup
	busy     *xsync.Counter
}

func startPool(mode common.WorkerMode, handlers []transport.ServerHandleFunc, serve ConnHandler) *workerPool {
	p := &workerPool{
		mode:   mode,
		size:   len(handlers),
		serve:  serve,
		conns:  make(chan net.Conn),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		busy:   xsync.NewCounter(),
	}

	for id, handle := range handlers {
		p.wg.Go(func() {
			p.work(id, handle)
		})
	}

	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	Logger.Infof("Started %d workers (mode: %s)", p.size, p.mode)
	return p
}

// work is the loop of a single worker
func (p *workerPool) work(id int, handle transport.ServerHandleFunc) {
	for {
		select {
		case <-p.stopCh:
			Logger.Debugf("Worker %d stopped", id)
			return
		case conn := <-p.conns:
			p.busy.Inc()
			Logger.Debugf("Worker %d serving %s", id, conn.RemoteAddr())
			p.serve(conn, handle)
			p.busy.Dec()
		}
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IWorkerPool)
// --------------------------------------------------------------------------

func (p *workerPool) Submit(conn net.Conn) bool {
	// a stopped pool must not take new work even if a worker happens to be idle
	select {
	case <-p.stopCh:
		return false
	default:
	}

	select {
	case p.conns <- conn:
		return true
	case <-p.stopCh:
		return false
	}
}

func (p *workerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

func (p *workerPool) Shutdown(grace time.Duration) bool {
	p.Stop()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

func (p *workerPool) Wait() {
	<-p.done
}

func (p *workerPool) Size() int {
	return p.size
}

func (p *workerPool) Mode() common.WorkerMode {
	return p.mode
}

func (p *workerPool) Busy() int {
	return int(p.busy.Value())
}
