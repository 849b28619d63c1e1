package serializer

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/zeebo/blake3"
)

// ErrChecksumMismatch is returned when decoded file contents do not match their digest
var ErrChecksumMismatch = errors.New("content checksum mismatch")

// record is the flat representation shared by the binary encodings.
// Data carries Command.Payload or Response.Content.
type record struct {
	op       common.Operation
	ok       bool
	filename string
	data     []byte
	hasData  bool
	files    []string
	message  string
	digest   []byte
}

func commandToRecord(cmd common.Command) record {
	return record{
		op:       cmd.Op,
		filename: cmd.Filename,
		data:     cmd.Payload,
		hasData:  cmd.Payload != nil,
	}
}

func (r *record) toCommand(cmd *common.Command) {
	*cmd = common.Command{
		Op:       r.op,
		Filename: r.filename,
	}
	if r.hasData || r.op == common.OpUpload {
		cmd.Payload = nonNil(r.data)
	}
}

func responseToRecord(resp common.Response) record {
	return record{
		op:       resp.Op,
		ok:       resp.Status == common.StatusOK,
		filename: resp.Filename,
		data:     resp.Content,
		hasData:  resp.Content != nil,
		files:    resp.Files,
		message:  resp.Message,
	}
}

func (r *record) toResponse(resp *common.Response) {
	*resp = common.Response{
		Status:   common.StatusError,
		Op:       r.op,
		Filename: r.filename,
		Files:    r.files,
		Message:  r.message,
	}
	if r.ok {
		resp.Status = common.StatusOK
	}
	if r.hasData || (r.ok && r.op == common.OpGet) {
		resp.Content = nonNil(r.data)
	}
	if r.ok && r.op == common.OpList && resp.Files == nil {
		resp.Files = []string{}
	}
}

// --------------------------------------------------------------------------
// Checksum Helper
// --------------------------------------------------------------------------

// sign stores the blake3 digest of the record data
func (r *record) sign() {
	if !r.hasData {
		return
	}
	sum := blake3.Sum256(r.data)
	r.digest = sum[:]
}

// verify compares the record data with its digest (if any)
func (r *record) verify() error {
	if r.digest == nil {
		return nil
	}
	sum := blake3.Sum256(r.data)
	if !bytes.Equal(sum[:], r.digest) {
		return ErrChecksumMismatch
	}
	return nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
