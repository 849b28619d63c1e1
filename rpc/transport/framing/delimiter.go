package framing

import (
	"bytes"
	"io"
	"net"
)

// Terminator ends every frame of the delimiter codec
var Terminator = []byte("\r\n\r\n")

const (
	readChunkSize = 64 << 10 // initial buffer size and minimum growth step
	minReadSize   = 4 << 10  // the buffer grows once less free space is left
)

// Split looks for the first terminator in buf at or after offset from.
// If found it returns the frame payload and the bytes following the terminator.
// Callers that already scanned buf without success can pass
// len(buf)-len(Terminator)+1 as from to resume without rescanning.
func Split(buf []byte, from int) (frame []byte, rest []byte, ok bool) {
	if from < 0 {
		from = 0
	}
	if from >= len(buf) {
		return nil, buf, false
	}
	idx := bytes.Index(buf[from:], Terminator)
	if idx < 0 {
		return nil, buf, false
	}
	end := from + idx
	return buf[:end], buf[end+len(Terminator):], true
}

// NewDelimiterCodec creates a codec that ends every frame with Terminator
func NewDelimiterCodec(maxFrameSize int) IFrameCodec {
	return &delimiterCodec{maxFrameSize: maxFrameSize}
}

type delimiterCodec struct {
	maxFrameSize int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see framing.IFrameCodec)
// --------------------------------------------------------------------------

func (c *delimiterCodec) GetName() string {
	return NameDelimiter
}

func (c *delimiterCodec) NewReader(r io.Reader) IFrameReader {
	return &delimiterReader{r: r, maxFrameSize: c.maxFrameSize}
}

func (c *delimiterCodec) WriteFrame(w io.Writer, payload []byte) error {
	if bytes.Contains(payload, Terminator) {
		return ErrTerminatorInPayload
	}
	b := net.Buffers{payload, Terminator}
	_, err := b.WriteTo(w)
	return err
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

// delimiterReader accumulates stream bytes until a terminator shows up.
// Returned frames are never overwritten by later reads.
type delimiterReader struct {
	r            io.Reader
	buf          []byte // received but not yet returned bytes
	scanFrom     int    // offset in buf where the next terminator scan starts
	maxFrameSize int
	err          error // sticky read error, reported once buf holds no frame
}

func (d *delimiterReader) ReadFrame() ([]byte, error) {
	for {
		// Hand out queued frames before touching the stream again
		if frame, rest, ok := Split(d.buf, d.scanFrom); ok {
			d.scanFrom = 0
			if len(rest) == 0 {
				d.buf = nil
			} else {
				d.buf = rest
			}
			if d.maxFrameSize > 0 && len(frame) > d.maxFrameSize {
				return nil, ErrFrameTooLarge
			}
			return frame, nil
		}

		// A terminator split across reads starts at most len(Terminator)-1 bytes before the end
		d.scanFrom = len(d.buf) - len(Terminator) + 1
		if d.scanFrom < 0 {
			d.scanFrom = 0
		}

		if d.maxFrameSize > 0 && d.scanFrom > d.maxFrameSize {
			return nil, ErrFrameTooLarge
		}

		if d.err != nil {
			if d.err == io.EOF {
				if len(d.buf) == 0 {
					return nil, io.EOF
				}
				return nil, io.ErrUnexpectedEOF
			}
			return nil, d.err
		}

		d.fill()
	}
}

// fill performs exactly one Read on the stream, growing the buffer if needed
func (d *delimiterReader) fill() {
	if cap(d.buf)-len(d.buf) < minReadSize {
		newCap := 2 * cap(d.buf)
		if newCap < len(d.buf)+readChunkSize {
			newCap = len(d.buf) + readChunkSize
		}
		grown := make([]byte, len(d.buf), newCap)
		copy(grown, d.buf)
		d.buf = grown
	}

	n, err := d.r.Read(d.buf[len(d.buf):cap(d.buf)])
	d.buf = d.buf[:len(d.buf)+n]
	if err != nil {
		d.err = err
	}
}
