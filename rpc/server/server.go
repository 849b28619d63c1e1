package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/rfs/lib/store/lstore"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/serializer"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
)

var Logger = logger.GetLogger("rpc")

// Option configures optional parts of the RPC server
type Option func(*RPCServer)

// WithFs sets the filesystem the store operates on (default: the OS filesystem)
func WithFs(fs afero.Fs) Option {
	return func(s *RPCServer) {
		s.fs = fs
	}
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewTextSerializer(),
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	opts ...Option,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	s := &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		fs:         afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RPCServer serves file operations over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	fs         afero.Fs

	mu        sync.Mutex
	protocols []*fileProtocol
}

// newProtocol is the handler factory of the transport. In shared mode it runs once,
// in isolated mode once per worker, so each worker owns its protocol, store and serializer.
func (s *RPCServer) newProtocol() (transport.ServerHandleFunc, error) {
	fileStore, err := lstore.NewLocalStore(s.fs, s.config.DataDir)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &fileProtocol{
		id:         len(s.protocols) + 1,
		store:      fileStore,
		adapter:    NewFileStoreServerAdapter(),
		serializer: s.serializer.Clone(),
	}
	s.protocols = append(s.protocols, p)
	Logger.Debugf("created protocol instance %d", p.id)
	return p.Process, nil
}

// Instances returns the number of protocol instances created so far
func (s *RPCServer) Instances() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.protocols)
}

// Serve starts the RPC server and blocks until ctx is cancelled or the transport fails.
// Cancelling ctx shuts the server down gracefully.
func (s *RPCServer) Serve(ctx context.Context) error {
	// Init logger
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if err := serializer.CheckFraming(s.serializer, s.config.Transport.Framing); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server (serializer: %s)", s.serializer.GetName())
	Logger.Infof("%s", s.config.String())

	// Start the metrics endpoint
	if s.config.MetricsEndpoint != "" {
		stop := s.serveMetrics()
		defer stop()
	}

	// Configure the transport layer
	s.transport.RegisterHandlerFactory(s.newProtocol)

	return s.transport.Listen(ctx, s.config)
}

// serveMetrics exposes the metrics in Prometheus text format and returns a function to stop the endpoint
func (s *RPCServer) serveMetrics() func() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	srv := &http.Server{
		Addr:              s.config.MetricsEndpoint,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		Logger.Infof("Starting metrics endpoint on %s/metrics", s.config.MetricsEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
