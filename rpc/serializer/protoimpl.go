package serializer

import (
	"fmt"
	"github.com/ValentinKolb/rfs/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// NewProtoSerializer creates a serializer that uses the protobuf wire format.
// Messages follow this schema (no generated code is needed):
//
//	message Record {
//	  uint32 op        = 1;
//	  bool   ok        = 2;
//	  string filename  = 3;
//	  bytes  data      = 4;
//	  repeated string files = 5;
//	  string message   = 6;
//	  bytes  digest    = 7;
//	}
func NewProtoSerializer() IRPCSerializer {
	return NewProtoSerializerWithOptions(Options{})
}

// NewProtoSerializerWithOptions creates a proto serializer, Options.Compress is ignored
func NewProtoSerializerWithOptions(opts Options) IRPCSerializer {
	return &protoSerializerImpl{checksum: opts.Checksum}
}

type protoSerializerImpl struct {
	checksum bool
}

const (
	fieldOp       protowire.Number = 1
	fieldOk       protowire.Number = 2
	fieldFilename protowire.Number = 3
	fieldData     protowire.Number = 4
	fieldFiles    protowire.Number = 5
	fieldMessage  protowire.Number = 6
	fieldDigest   protowire.Number = 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (p *protoSerializerImpl) GetName() string {
	return "proto"
}

func (p *protoSerializerImpl) RequiresLengthFraming() bool {
	return true
}

func (p *protoSerializerImpl) Clone() IRPCSerializer {
	return &protoSerializerImpl{checksum: p.checksum}
}

func (p *protoSerializerImpl) SerializeCommand(cmd common.Command) ([]byte, error) {
	r := commandToRecord(cmd)
	return p.encode(&r), nil
}

func (p *protoSerializerImpl) DeserializeCommand(b []byte, cmd *common.Command) error {
	var r record
	if err := p.decode(b, &r); err != nil {
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

func (p *protoSerializerImpl) SerializeResponse(resp common.Response) ([]byte, error) {
	r := responseToRecord(resp)
	return p.encode(&r), nil
}

func (p *protoSerializerImpl) DeserializeResponse(b []byte, resp *common.Response) error {
	var r record
	if err := p.decode(b, &r); err != nil {
		return err
	}
	r.toResponse(resp)
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (p *protoSerializerImpl) encode(r *record) []byte {
	if p.checksum {
		r.sign()
	}

	size := 16 + len(r.filename) + len(r.data) + len(r.message) + len(r.digest)
	for _, f := range r.files {
		size += len(f) + 6
	}
	b := make([]byte, 0, size)

	b = protowire.AppendTag(b, fieldOp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.op))
	if r.ok {
		b = protowire.AppendTag(b, fieldOk, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if r.filename != "" {
		b = protowire.AppendTag(b, fieldFilename, protowire.BytesType)
		b = protowire.AppendString(b, r.filename)
	}
	if r.hasData {
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, r.data)
	}
	for _, f := range r.files {
		b = protowire.AppendTag(b, fieldFiles, protowire.BytesType)
		b = protowire.AppendString(b, f)
	}
	if r.message != "" {
		b = protowire.AppendTag(b, fieldMessage, protowire.BytesType)
		b = protowire.AppendString(b, r.message)
	}
	if r.digest != nil {
		b = protowire.AppendTag(b, fieldDigest, protowire.BytesType)
		b = protowire.AppendBytes(b, r.digest)
	}
	return b
}

func (p *protoSerializerImpl) decode(b []byte, r *record) error {
	if len(b) == 0 {
		return fmt.Errorf("empty message")
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldOp && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("invalid op: %w", protowire.ParseError(m))
			}
			r.op = common.Operation(v)
			n = m
		case num == fieldOk && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("invalid ok flag: %w", protowire.ParseError(m))
			}
			r.ok = protowire.DecodeBool(v)
			n = m
		case typ == protowire.BytesType && num >= fieldFilename && num <= fieldDigest:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(m))
			}
			r.setBytesField(num, v)
			n = m
		default:
			// skip unknown fields
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}

	return r.verify()
}

// setBytesField stores a length delimited protobuf field in the record
func (r *record) setBytesField(num protowire.Number, v []byte) {
	switch num {
	case fieldFilename:
		r.filename = string(v)
	case fieldData:
		r.data = append([]byte{}, v...)
		r.hasData = true
	case fieldFiles:
		r.files = append(r.files, string(v))
	case fieldMessage:
		r.message = string(v)
	case fieldDigest:
		r.digest = append([]byte{}, v...)
	}
}
