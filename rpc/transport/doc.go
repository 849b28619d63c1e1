// Package transport defines the interfaces and abstractions for moving
// request and response frames between the file client and the file server.
// It provides a common contract that all transport implementations must
// fulfill, enabling protocol-agnostic communication.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations.
//     Every Send uses a fresh connection carrying exactly one request and one
//     response.
//
//   - IRPCServerTransport: Interface for server-side transport implementations
//     that accept connections and hand them to a fixed pool of workers.
//
//   - ServerHandleFunc / HandlerFactory: Request handling callbacks and the
//     hook that creates them (once for a shared pool, once per worker for an
//     isolated pool).
//
// Implementations live in the tcp, unix, ws and quic subpackages, which all
// build on the base package. Frame codecs live in the framing subpackage.
package transport
