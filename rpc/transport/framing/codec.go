package framing

import (
	"errors"
	"fmt"
	"io"
)

const (
	NameDelimiter = "delimiter"
	NameLength    = "length"
)

var (
	// ErrFrameTooLarge is returned when an inbound frame exceeds the configured maximum
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	// ErrTerminatorInPayload is returned when a payload cannot be delimited
	ErrTerminatorInPayload = errors.New("payload contains the frame terminator")
)

// -----------------------------------------------------------
// Interface Definitions
// -----------------------------------------------------------

// IFrameReader extracts frames from one byte stream.
// A reader keeps bytes that arrived after a frame and hands them out on the
// next call, so it must be used for the whole lifetime of the stream.
type IFrameReader interface {
	// ReadFrame blocks until a complete frame is available and returns its payload.
	// It returns io.EOF if the stream ended cleanly between frames and
	// io.ErrUnexpectedEOF if it ended inside a frame.
	ReadFrame() ([]byte, error)
}

// IFrameCodec turns a byte stream into discrete frames and back
type IFrameCodec interface {
	// NewReader creates a frame reader for the given stream
	NewReader(r io.Reader) IFrameReader
	// WriteFrame writes one frame containing payload
	WriteFrame(w io.Writer, payload []byte) error
	// GetName returns the name of the codec (e.g. "delimiter", "length")
	GetName() string
}

// -----------------------------------------------------------
// Codec Factory Method
// -----------------------------------------------------------

// NewFrameCodec creates the codec with the given name.
// maxFrameSize limits inbound frames in bytes, 0 means unbounded.
func NewFrameCodec(name string, maxFrameSize int) (IFrameCodec, error) {
	if maxFrameSize < 0 {
		return nil, fmt.Errorf("invalid max frame size %d", maxFrameSize)
	}
	switch name {
	case NameDelimiter, "":
		return NewDelimiterCodec(maxFrameSize), nil
	case NameLength:
		return NewLengthCodec(maxFrameSize), nil
	default:
		return nil, fmt.Errorf("invalid framing %s (expected one of: delimiter, length)", name)
	}
}
