// Package framing turns a byte stream into discrete frames and back.
//
// Two codecs are available:
//
//   - delimiter: every frame ends with "\r\n\r\n". The reader keeps a growing
//     buffer per stream, resumes the terminator scan just before the end of
//     the previous scan and returns already buffered frames in arrival order
//     before it reads again. Payloads must never contain the terminator, so
//     this codec only carries text encodings.
//
//   - length: every frame starts with a 4 byte big endian length. It carries
//     arbitrary binary payloads and is required by the binary and proto
//     serializers.
//
// Both readers report io.EOF when the peer closes between frames and
// io.ErrUnexpectedEOF when it closes inside a frame. An optional maximum
// frame size protects the server against unbounded buffering.
package framing
