package serializer

import (
	"fmt"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/transport/framing"
)

// IRPCSerializer is the interface for all command and response serializers
type IRPCSerializer interface {
	// SerializeCommand serializes a Command into a byte array
	SerializeCommand(cmd common.Command) ([]byte, error)
	// DeserializeCommand deserializes a byte array into a Command.
	// Malformed input returns an error, the caller decides how to answer it.
	DeserializeCommand(b []byte, cmd *common.Command) error
	// SerializeResponse serializes a Response into a byte array
	SerializeResponse(resp common.Response) ([]byte, error)
	// DeserializeResponse deserializes a byte array into a Response
	DeserializeResponse(b []byte, resp *common.Response) error
	// GetName returns the name of the serializer (e.g. "text", "binary")
	GetName() string
	// RequiresLengthFraming reports whether the output may contain arbitrary
	// bytes and therefore cannot be carried by the delimiter framing
	RequiresLengthFraming() bool
	// Clone returns a serializer with the same options and no shared state
	Clone() IRPCSerializer
}

// Options configure the binary encodings
type Options struct {
	// Compress compresses file contents with zstd (binary serializer only)
	Compress bool
	// Checksum attaches a blake3 digest of file contents that is verified on decode
	Checksum bool
}

// CheckFraming returns an error if the serializer cannot be carried by the named framing
func CheckFraming(s IRPCSerializer, framingName string) error {
	if s.RequiresLengthFraming() && framingName != framing.NameLength {
		return fmt.Errorf("serializer %s requires %s framing, got %q", s.GetName(), framing.NameLength, framingName)
	}
	return nil
}
