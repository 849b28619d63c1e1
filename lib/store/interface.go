package store

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IFileStore is the interface for a flat directory of files addressed by name.
// Names are used exactly as supplied; concurrent writers to the same name are
// not coordinated and the last writer wins.
type IFileStore interface {
	// List returns the names of all regular files. The order is unspecified.
	List() (names []string, err error)
	// Read returns the full content of a file.
	// A missing file returns an *Error with code RetCNotFound.
	Read(name string) (content []byte, err error)
	// Write creates the file or truncates it and stores content.
	Write(name string, content []byte) (err error)
	// Delete removes a file. A missing file returns an *Error with code RetCNotFound.
	Delete(name string) (err error)
	// Exists reports whether a regular file with the name exists.
	Exists(name string) (exists bool, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("FileStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Message returns the plain message of err if it is a store error
// and err.Error() otherwise
func Message(err error) string {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Msg
	}
	return err.Error()
}

// IsNotFound reports whether err is a store error with code RetCNotFound
func IsNotFound(err error) bool {
	var storeErr *Error
	return errors.As(err, &storeErr) && storeErr.Code == RetCNotFound
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Command executed successfully.
	RetCInternalError                  // 1: Command failed due to an internal (filesystem) error.
	RetCNotFound                       // 2: The file does not exist.
	RetCInvalidArgument                // 3: The name cannot be used (empty, directory, ...).
)

// String returns the name of the return code
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCNotFound:
		return "NotFound"
	case RetCInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}
