package common

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// --------------------------------------------------------------------------
// Text command grammar
// --------------------------------------------------------------------------

// The text form of a command is a single line of whitespace separated tokens:
//
//	LIST
//	GET <filename>
//	UPLOAD <filename> [<base64 payload>]
//	DELETE <filename>
//
// Tokens after the expected ones are ignored. A missing upload payload
// stands for an empty file.

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingFilename  = errors.New("missing filename")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrInvalidPayload   = errors.New("invalid payload encoding")
)

// ParseCommand parses the text form of a command
func ParseCommand(line string) (*Command, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrUnknownOperation)
	}

	op, ok := ParseOperation(tokens[0])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, truncate(tokens[0], 32))
	}

	cmd := &Command{Op: op}
	if !op.NeedsFilename() {
		return cmd, nil
	}

	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w for %s", ErrMissingFilename, op)
	}
	cmd.Filename = tokens[1]

	if op == OpUpload {
		cmd.Payload = []byte{}
		if len(tokens) >= 3 {
			payload, err := base64.StdEncoding.DecodeString(tokens[2])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
			}
			cmd.Payload = payload
		}
	}

	return cmd, nil
}

// FormatCommand renders a command in its text form.
// Filenames containing whitespace cannot be expressed and are rejected.
func FormatCommand(cmd Command) (string, error) {
	if cmd.Op == OpUnknown || cmd.Op > OpDelete {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, cmd.Op)
	}
	if !cmd.Op.NeedsFilename() {
		return cmd.Op.String(), nil
	}
	if err := ValidateFilename(cmd.Filename); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(cmd.Filename) + base64.StdEncoding.EncodedLen(len(cmd.Payload)) + 8)
	sb.WriteString(cmd.Op.String())
	sb.WriteByte(' ')
	sb.WriteString(cmd.Filename)
	if cmd.Op == OpUpload && len(cmd.Payload) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(base64.StdEncoding.EncodeToString(cmd.Payload))
	}
	return sb.String(), nil
}

// ValidateFilename checks that a filename can be carried by the text grammar
func ValidateFilename(name string) error {
	if name == "" {
		return ErrMissingFilename
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidFilename, name)
	}
	return nil
}

// truncate shortens s to at most n bytes for use in error messages
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
