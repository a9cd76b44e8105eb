package http

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrHeaderBlockNotFound = errors.New("header block not found")
	ErrMalformedStatusLine = errors.New("status line is malformed")
	ErrMalformedFieldLine  = errors.New("field line is malformed")
)

// ParseError reports where raw response bytes could not be split into
// a head and a body.
type ParseError struct {
	// Offset is the byte offset of the offending line in the raw response.
	Offset int
	Line   string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("parsing response at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("parsing response at offset %d (%q): %v", e.Offset, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
