// Package unix implements a transport layer for the file service using Unix
// domain sockets, for clients and servers running on the same machine.
//
// The endpoint is the path of the socket file. An existing socket file at that
// path is removed when the server starts.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners and accepts connections
//
// Worker pool, framing and deadlines come from the base package.
package unix
