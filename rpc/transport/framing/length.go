package framing

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"net"
)

const lengthHeaderSize = 4

// NewLengthCodec creates a codec that prefixes every frame with its length:
// - 4 bytes: payload length (uint32, big endian)
// - N bytes: payload
func NewLengthCodec(maxFrameSize int) IFrameCodec {
	return &lengthCodec{maxFrameSize: maxFrameSize}
}

type lengthCodec struct {
	maxFrameSize int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see framing.IFrameCodec)
// --------------------------------------------------------------------------

func (c *lengthCodec) GetName() string {
	return NameLength
}

func (c *lengthCodec) NewReader(r io.Reader) IFrameReader {
	return &lengthReader{
		r:            bufio.NewReaderSize(r, readChunkSize),
		maxFrameSize: c.maxFrameSize,
	}
}

func (c *lengthCodec) WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return ErrFrameTooLarge
	}

	header := make([]byte, lengthHeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))

	b := net.Buffers{header, payload}
	_, err := b.WriteTo(w)
	return err
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

type lengthReader struct {
	r            *bufio.Reader
	header       [lengthHeaderSize]byte
	maxFrameSize int
}

func (l *lengthReader) ReadFrame() ([]byte, error) {
	// Read header (io.EOF only if the stream ended before the first byte)
	if _, err := io.ReadFull(l.r, l.header[:]); err != nil {
		return nil, err
	}

	contentLength := binary.BigEndian.Uint32(l.header[:])
	if l.maxFrameSize > 0 && uint64(contentLength) > uint64(l.maxFrameSize) {
		return nil, ErrFrameTooLarge
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return []byte{}, nil
	}

	data := make([]byte, contentLength)
	if _, err := io.ReadFull(l.r, data); err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}
