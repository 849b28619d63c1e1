package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/klauspost/compress/zstd"
	"sync"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return NewBinarySerializerWithOptions(Options{})
}

// NewBinarySerializerWithOptions creates a binary serializer with optional
// zstd compression and blake3 checksums of file contents
func NewBinarySerializerWithOptions(opts Options) IRPCSerializer {
	return &binarySerializerImpl{opts: opts}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format:
// - 1 byte: operation
// - 1 byte: flags (which optional fields follow)
// - optional fields in flag order, variable length fields prefixed with a uint32 length
type binarySerializerImpl struct {
	opts Options

	encOnce sync.Once
	encoder *zstd.Encoder
	encErr  error

	decOnce sync.Once
	decoder *zstd.Decoder
	decErr  error
}

// Bit flags to indicate which optional fields are present
const (
	hasFilename  byte = 1 << 0
	hasData      byte = 1 << 1
	hasDigest    byte = 1 << 2
	hasFiles     byte = 1 << 3
	hasMessage   byte = 1 << 4
	isOk         byte = 1 << 5
	isCompressed byte = 1 << 6
)

const (
	digestSize = 32
	// contents below this size are never compressed
	compressMinSize = 1024
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b *binarySerializerImpl) GetName() string {
	return "binary"
}

func (b *binarySerializerImpl) RequiresLengthFraming() bool {
	return true
}

func (b *binarySerializerImpl) Clone() IRPCSerializer {
	return NewBinarySerializerWithOptions(b.opts)
}

func (b *binarySerializerImpl) SerializeCommand(cmd common.Command) ([]byte, error) {
	r := commandToRecord(cmd)
	return b.encode(&r)
}

func (b *binarySerializerImpl) DeserializeCommand(data []byte, cmd *common.Command) error {
	var r record
	if err := b.decode(data, &r); err != nil {
		return err
	}
	if r.op == common.OpUnknown || r.op > common.OpDelete {
		return fmt.Errorf("%w: %d", common.ErrUnknownOperation, r.op)
	}
	if r.op.NeedsFilename() && r.filename == "" {
		return fmt.Errorf("%w for %s", common.ErrMissingFilename, r.op)
	}
	r.toCommand(cmd)
	return nil
}

func (b *binarySerializerImpl) SerializeResponse(resp common.Response) ([]byte, error) {
	r := responseToRecord(resp)
	return b.encode(&r)
}

func (b *binarySerializerImpl) DeserializeResponse(data []byte, resp *common.Response) error {
	var r record
	if err := b.decode(data, &r); err != nil {
		return err
	}
	r.toResponse(resp)
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (b *binarySerializerImpl) encode(r *record) ([]byte, error) {
	if b.opts.Checksum {
		r.sign()
	}

	// Compress data if configured and worth it
	data := r.data
	compressed := false
	if b.opts.Compress && len(data) >= compressMinSize {
		enc, err := b.getEncoder()
		if err != nil {
			return nil, err
		}
		if c := enc.EncodeAll(data, nil); len(c) < len(data) {
			data = c
			compressed = true
		}
	}

	// Calculate total size needed
	totalSize := b.sizeBytes(r, len(data))
	result := make([]byte, totalSize)

	// Write operation
	result[0] = byte(r.op)

	// Initialize flags byte
	var flags byte = 0
	if r.ok {
		flags |= isOk
	}

	// Set position for writing
	pos := 2 // Start after operation and flags

	// Handle Filename
	if r.filename != "" {
		flags |= hasFilename
		pos = putString(result, pos, r.filename)
	}

	// Handle Data
	if r.hasData {
		flags |= hasData
		if compressed {
			flags |= isCompressed
		}
		pos = putBytes(result, pos, data)
	}

	// Handle Digest
	if r.digest != nil {
		flags |= hasDigest
		copy(result[pos:pos+digestSize], r.digest)
		pos += digestSize
	}

	// Handle Files
	if r.files != nil {
		flags |= hasFiles
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(r.files)))
		pos += 4
		for _, f := range r.files {
			pos = putString(result, pos, f)
		}
	}

	// Handle Message
	if r.message != "" {
		flags |= hasMessage
		pos = putString(result, pos, r.message)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result[:pos], nil
}

func (b *binarySerializerImpl) decode(data []byte, r *record) error {
	// Check minimum size (operation + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	r.op = common.Operation(data[0])
	flags := data[1]
	r.ok = flags&isOk != 0

	// Initialize read position
	pos := 2
	var err error

	// Read Filename if present
	if flags&hasFilename != 0 {
		if r.filename, pos, err = readString(data, pos, "filename"); err != nil {
			return err
		}
	}

	// Read Data if present
	if flags&hasData != 0 {
		r.hasData = true
		if r.data, pos, err = readBytes(data, pos, "data"); err != nil {
			return err
		}
		if flags&isCompressed != 0 {
			dec, err := b.getDecoder()
			if err != nil {
				return err
			}
			if r.data, err = dec.DecodeAll(r.data, nil); err != nil {
				return fmt.Errorf("failed to decompress data: %w", err)
			}
		} else {
			// copy so the record does not alias the frame buffer
			r.data = append([]byte{}, r.data...)
		}
	}

	// Read Digest if present
	if flags&hasDigest != 0 {
		if pos+digestSize > len(data) {
			return fmt.Errorf("data too short for digest")
		}
		r.digest = data[pos : pos+digestSize]
		pos += digestSize
	}

	// Read Files if present
	if flags&hasFiles != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for file count")
		}
		count := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if count > len(data)-pos {
			return fmt.Errorf("data too short for %d files", count)
		}
		r.files = make([]string, 0, count)
		for i := 0; i < count; i++ {
			var f string
			if f, pos, err = readString(data, pos, "file name"); err != nil {
				return err
			}
			r.files = append(r.files, f)
		}
	}

	// Read Message if present
	if flags&hasMessage != 0 {
		if r.message, _, err = readString(data, pos, "message"); err != nil {
			return err
		}
	}

	return r.verify()
}

// sizeBytes calculates the upper bound of the size needed for serialization
func (b *binarySerializerImpl) sizeBytes(r *record, dataLen int) int {
	// 1 byte for operation + 1 byte for flags
	size := 2

	if r.filename != "" {
		size += 4 + len(r.filename)
	}
	if r.hasData {
		size += 4 + dataLen
	}
	if r.digest != nil {
		size += digestSize
	}
	if r.files != nil {
		size += 4
		for _, f := range r.files {
			size += 4 + len(f)
		}
	}
	if r.message != "" {
		size += 4 + len(r.message)
	}
	return size
}

func (b *binarySerializerImpl) getEncoder() (*zstd.Encoder, error) {
	b.encOnce.Do(func() {
		b.encoder, b.encErr = zstd.NewWriter(nil)
	})
	return b.encoder, b.encErr
}

func (b *binarySerializerImpl) getDecoder() (*zstd.Decoder, error) {
	b.decOnce.Do(func() {
		b.decoder, b.decErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return b.decoder, b.decErr
}

// --------------------------------------------------------------------------
// Encoding Helper
// --------------------------------------------------------------------------

func putBytes(dst []byte, pos int, src []byte) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(src)))
	pos += 4
	copy(dst[pos:pos+len(src)], src)
	return pos + len(src)
}

func putString(dst []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(dst[pos:pos+len(s)], s)
	return pos + len(s)
}

func readBytes(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if n < 0 || pos+n > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s data", field)
	}
	return data[pos : pos+n], pos + n, nil
}

func readString(data []byte, pos int, field string) (string, int, error) {
	b, pos, err := readBytes(data, pos, field)
	return string(b), pos, err
}
