// Package base provides a foundation for the transport layers of the file service,
// implementing the connection handling independent of the specific network
// protocol (TCP, Unix sockets, WebSocket, QUIC). It serves as a base layer that is
// extended with protocol-specific connectors.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (listen, dial, socket tuning) that allow extending the base transport with
//     different network protocols.
//
//   - IWorkerPool: A fixed number of workers, each serving one connection at a
//     time for the whole lifetime of that connection. NewSharedPool calls the
//     handler factory once and all workers use the same handler; NewIsolatedPool
//     calls it once per worker at startup. The hand-off channel is unbuffered, so
//     the accept loop blocks while all workers are busy and new connections wait
//     in the listen backlog of the kernel.
//
//   - serverTransport: Accept loop plus the per-connection loop that reads one
//     frame, calls the handler and writes one response frame, in request order.
//     Frames are extracted by a framing.IFrameCodec, so several frames in one
//     read are handled one after another and a frame split over several reads is
//     reassembled before dispatch.
//
//   - clientTransport: Opens a fresh connection for every request, applies one
//     deadline to the whole exchange and closes the connection afterwards.
//
// Failure handling:
//
//	A read error, an expired idle deadline, a handler error or a panic inside
//	the handler closes only the affected connection; the worker goes back to the
//	pool. Cancelling the context passed to Listen closes the listener, stops the
//	pool, waits for the configured grace period and then force-closes the
//	connections that are still open.
package base
