// Package quic implements a QUIC transport for the file service using quic-go.
//
// Every logical connection is one QUIC connection carrying one bidirectional
// stream, which is exposed to the base transport as a net.Conn. The server
// generates a self-signed certificate at startup and the client skips
// verification; TLS is only present because QUIC requires it. Both sides
// negotiate the ALPN protocol "rfs-quic-v1".
package quic
