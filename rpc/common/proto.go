package common

import (
	"encoding/json"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Command and Response Structure
// --------------------------------------------------------------------------

// Command is a single request sent from a client to the server.
// Which fields are used depends on the operation.
type Command struct {
	// Operation to execute
	Op Operation

	Filename string // Used for: Get, Upload, Delete
	Payload  []byte // Used for: Upload (raw file content, already decoded)
}

// Response is the answer to exactly one Command.
// Which fields are used depends on the operation and the status.
type Response struct {
	Status Status
	Op     Operation

	Files    []string // Used for: List
	Filename string   // Used for: Get (name reported by the server)
	Content  []byte   // Used for: Get (raw file content)

	// Message holds the confirmation text of Upload and Delete as well as
	// the error description of every failed operation
	Message string
}

// Ok returns true if the response carries the OK status
func (r *Response) Ok() bool {
	return r.Status == StatusOK
}

// Err returns the error described by the response or nil if the status is OK
func (r *Response) Err() error {
	if r.Status == StatusOK {
		return nil
	}
	if r.Message == "" {
		return errors.New("remote error")
	}
	return errors.New(r.Message)
}

// --------------------------------------------------------------------------
// Factory Functions
// --------------------------------------------------------------------------

// NewListRequest creates a new List request
func NewListRequest() *Command {
	return &Command{Op: OpList}
}

// NewListResponse creates a new List response
func NewListResponse(files []string, err error) *Response {
	if err != nil {
		return NewErrorResponse(OpList, err.Error())
	}
	if files == nil {
		files = []string{}
	}
	return &Response{
		Status: StatusOK,
		Op:     OpList,
		Files:  files,
	}
}

// NewGetRequest creates a new Get request
func NewGetRequest(filename string) *Command {
	return &Command{
		Op:       OpGet,
		Filename: filename,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(filename string, content []byte, err error) *Response {
	if err != nil {
		return NewErrorResponse(OpGet, err.Error())
	}
	if content == nil {
		content = []byte{}
	}
	return &Response{
		Status:   StatusOK,
		Op:       OpGet,
		Filename: filename,
		Content:  content,
	}
}

// NewUploadRequest creates a new Upload request
func NewUploadRequest(filename string, payload []byte) *Command {
	return &Command{
		Op:       OpUpload,
		Filename: filename,
		Payload:  payload,
	}
}

// NewUploadResponse creates a new Upload response
func NewUploadResponse(filename string, size int, err error) *Response {
	if err != nil {
		return NewErrorResponse(OpUpload, err.Error())
	}
	return &Response{
		Status:  StatusOK,
		Op:      OpUpload,
		Message: fmt.Sprintf("file %s uploaded (%d bytes)", filename, size),
	}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(filename string) *Command {
	return &Command{
		Op:       OpDelete,
		Filename: filename,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(filename string, err error) *Response {
	if err != nil {
		return NewErrorResponse(OpDelete, err.Error())
	}
	return &Response{
		Status:  StatusOK,
		Op:      OpDelete,
		Message: fmt.Sprintf("file %s deleted", filename),
	}
}

// NewErrorResponse creates a new error response for the given operation.
// op may be OpUnknown if the command could not be parsed.
func NewErrorResponse(op Operation, msg string) *Response {
	return &Response{
		Status:  StatusError,
		Op:      op,
		Message: msg,
	}
}

// --------------------------------------------------------------------------
// Operation Definition
// --------------------------------------------------------------------------

// Operation is the verb of a Command
type Operation uint8

const (
	OpUnknown Operation = iota
	OpList              // List all files in the data directory
	OpGet               // Download a file
	OpUpload            // Create or overwrite a file
	OpDelete            // Remove a file
)

// String returns the wire name of the operation
func (o Operation) String() string {
	switch o {
	case OpList:
		return "LIST"
	case OpGet:
		return "GET"
	case OpUpload:
		return "UPLOAD"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ParseOperation converts a verb into an Operation. Verbs are case-sensitive.
func ParseOperation(s string) (Operation, bool) {
	switch s {
	case "LIST":
		return OpList, true
	case "GET":
		return OpGet, true
	case "UPLOAD":
		return OpUpload, true
	case "DELETE":
		return OpDelete, true
	default:
		return OpUnknown, false
	}
}

// NeedsFilename reports whether the operation requires a filename argument
func (o Operation) NeedsFilename() bool {
	return o == OpGet || o == OpUpload || o == OpDelete
}

// --------------------------------------------------------------------------
// Status Definition
// --------------------------------------------------------------------------

// Status is the outcome of a Command
type Status uint8

const (
	StatusError Status = iota
	StatusOK
)

// String returns the wire name of the status
func (s Status) String() string {
	if s == StatusOK {
		return "OK"
	}
	return "ERROR"
}

// ParseStatus converts a wire name into a Status
func ParseStatus(s string) (Status, error) {
	switch s {
	case "OK":
		return StatusOK, nil
	case "ERROR":
		return StatusError, nil
	default:
		return StatusError, fmt.Errorf("unknown status: %s", s)
	}
}

// MarshalJSON writes the status as its wire name ("OK" or "ERROR")
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts only the wire names "OK" and "ERROR"
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = status
	return nil
}
