// Package server implements the RPC server of the remote file service.
// It turns request frames into file operations on a store and answers every
// command with exactly one response.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters,
//     with the Handle method that executes a command against a store.IFileStore.
//     NewFileStoreServerAdapter maps LIST, GET, UPLOAD and DELETE to the store.
//
//   - fileProtocol: Deserializes a command, lets the adapter execute it and
//     serializes the response. Malformed commands are answered with an ERROR
//     response and the connection stays usable.
//
//   - NewRPCServer: Factory function creating a configured server with the
//     specified transport and serializer mechanisms.
//
// Worker modes:
//
//	The transport calls the handler factory of the server once (shared mode) or
//	once per worker (isolated mode). Every call creates a new protocol instance
//	with its own store and adapter. All instances operate on the same data
//	directory, so concurrent writes to one file name are not coordinated and the
//	last writer wins.
//
// Usage Example:
//
//	config := common.DefaultServerConfig()
//	config.WorkerMode = common.WorkerModeIsolated
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewTextSerializer(),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	if err := s.Serve(ctx); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Metrics:
//
//	Request counters and latency histograms are recorded with
//	VictoriaMetrics/metrics and exposed at /metrics when a metrics endpoint is
//	configured.
package server
