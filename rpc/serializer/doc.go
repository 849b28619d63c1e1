// Package serializer converts commands and responses of the remote file
// service to bytes and back. It defines a common interface and multiple
// implementations with different trade-offs.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - textSerializerImpl: The default wire format. Commands are single text
//     lines with base64 encoded upload payloads, responses are JSON objects
//     with a "status" field and either "data" or "data_namafile" and
//     "data_file". The output never contains the frame terminator, so it
//     works with both the delimiter and the length framing.
//
//   - binarySerializerImpl: Custom binary format using a flag byte to encode
//     only present fields. File contents are carried as raw bytes, optionally
//     compressed with zstd and protected by a blake3 digest.
//
//   - protoSerializerImpl: Protobuf wire format written with protowire. Useful
//     for clients in other languages that already speak protobuf.
//
// The binary and proto encodings carry arbitrary bytes and require the
// length framing (see RequiresLengthFraming).
//
// Thread Safety:
//
//	All serializer implementations are safe for concurrent use. The binary
//	serializer creates its zstd encoder and decoder lazily and shares them,
//	both are safe for concurrent EncodeAll/DecodeAll calls.
//
// Usage:
//
//	s := serializer.NewTextSerializer()
//	data, err := s.SerializeCommand(*common.NewGetRequest("report.pdf"))
//	// ... send data, receive answer ...
//	var resp common.Response
//	err = s.DeserializeResponse(answer, &resp)
package serializer
