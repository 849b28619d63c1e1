package serializer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/rfs/rpc/common"
)

// NewTextSerializer creates the default serializer.
// Commands use the single line text grammar (see common.ParseCommand),
// responses are JSON objects of the form
//
//	{"status": "OK"|"ERROR", "data": <message or file list>}
//	{"status": "OK", "data_namafile": <name>, "data_file": <base64 content>}
func NewTextSerializer() IRPCSerializer {
	return &textSerializerImpl{}
}

// textSerializerImpl implements the IRPCSerializer interface using the text wire format
type textSerializerImpl struct {
}

// textResponse is the JSON shape of a response on the wire
type textResponse struct {
	Status   *common.Status  `json:"status"`
	Data     json.RawMessage `json:"data,omitempty"`
	Filename *string         `json:"data_namafile,omitempty"`
	File     *string         `json:"data_file,omitempty"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (t textSerializerImpl) GetName() string {
	return "text"
}

func (t textSerializerImpl) RequiresLengthFraming() bool {
	return false
}

func (t textSerializerImpl) Clone() IRPCSerializer {
	return &textSerializerImpl{}
}

func (t textSerializerImpl) SerializeCommand(cmd common.Command) ([]byte, error) {
	line, err := common.FormatCommand(cmd)
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

func (t textSerializerImpl) DeserializeCommand(b []byte, cmd *common.Command) error {
	parsed, err := common.ParseCommand(string(b))
	if err != nil {
		return err
	}
	*cmd = *parsed
	return nil
}

func (t textSerializerImpl) SerializeResponse(resp common.Response) ([]byte, error) {
	status := resp.Status
	out := textResponse{Status: &status}

	var err error
	switch {
	case resp.Status != common.StatusOK:
		out.Data, err = json.Marshal(resp.Message)
	case resp.Op == common.OpList:
		files := resp.Files
		if files == nil {
			files = []string{}
		}
		out.Data, err = json.Marshal(files)
	case resp.Op == common.OpGet:
		name := resp.Filename
		content := base64.StdEncoding.EncodeToString(resp.Content)
		out.Filename = &name
		out.File = &content
	default:
		out.Data, err = json.Marshal(resp.Message)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(out)
}

func (t textSerializerImpl) DeserializeResponse(b []byte, resp *common.Response) error {
	// common.Status rejects anything but OK and ERROR
	var in textResponse
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	if in.Status == nil {
		return fmt.Errorf("invalid response: missing status")
	}

	status := *in.Status
	*resp = common.Response{Status: status}

	// GET is the only response without a data field
	if in.Filename != nil {
		resp.Op = common.OpGet
		resp.Filename = *in.Filename
		resp.Content = []byte{}
		if in.File != nil {
			content, err := base64.StdEncoding.DecodeString(*in.File)
			if err != nil {
				return fmt.Errorf("invalid file content: %w", err)
			}
			resp.Content = content
		}
		return nil
	}

	data := bytes.TrimSpace(in.Data)
	switch {
	case len(data) == 0:
		// no data at all
	case data[0] == '[':
		if err := json.Unmarshal(data, &resp.Files); err != nil {
			return fmt.Errorf("invalid file list: %w", err)
		}
		if status == common.StatusOK {
			resp.Op = common.OpList
		}
	case data[0] == '"':
		if err := json.Unmarshal(data, &resp.Message); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}
	default:
		// unknown payload, keep it readable
		resp.Message = string(data)
	}
	return nil
}
