// Package rpc provides the request/response framework of the remote file
// service. It carries file operations between a client and a server over a
// plain byte stream.
//
// The package is organized into several subpackages:
//
//   - common: Command and Response model, configuration structures and logging.
//
//   - transport: Network communication abstractions with pluggable
//     implementations (TCP, Unix sockets, WebSocket, QUIC) plus the frame
//     codecs in transport/framing.
//
//   - serializer: Wire encodings of commands and responses (text, binary, proto).
//
//   - client: The file client used by the CLI and the load harness.
//
//   - server: The file server that executes commands against the data directory.
package rpc
