package pdf

import (
	"errors"
	"fmt"

	"github.com/a3tai/pdf-form-editor/internal/pdf/acroform"
)

// ErrorKind classifies a service failure.
type ErrorKind int

const (
	ErrorKindInternal ErrorKind = iota
	ErrorKindInvalidRequest
	ErrorKindTooLarge
	ErrorKindDecode
	ErrorKindParse
	ErrorKindWrite
)

// String returns a string representation of the ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindInvalidRequest:
		return "INVALID_REQUEST"
	case ErrorKindTooLarge:
		return "TOO_LARGE"
	case ErrorKindDecode:
		return "DECODE"
	case ErrorKindParse:
		return "PARSE"
	case ErrorKindWrite:
		return "WRITE"
	default:
		return "INTERNAL"
	}
}

// Error is returned by every Service operation. Its message is the
// message of the underlying failure so callers can surface it verbatim.
type Error struct {
	Kind ErrorKind `json:"kind"`
	Op   string    `json:"operation"`
	Err  error     `json:"error"`
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Messages of the request-shape errors.
const (
	MsgNoPDF           = "No PDF data provided"
	MsgMissingMappings = "Missing required parameters: pdf and mappings"
)

// KindOf returns the kind of err, or ErrorKindInternal if err was not
// produced by this package.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return ErrorKindInternal
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func invalidRequest(op, msg string) *Error {
	return newError(ErrorKindInvalidRequest, op, errors.New(msg))
}

// fromAcroForm maps an adapter failure onto the service taxonomy.
func fromAcroForm(op string, err error) *Error {
	var formErr *acroform.Error
	if errors.As(err, &formErr) && formErr.Op == acroform.OpWrite {
		return newError(ErrorKindWrite, op, err)
	}
	if errors.As(err, &formErr) {
		return newError(ErrorKindParse, op, err)
	}
	return newError(ErrorKindInternal, op, fmt.Errorf("unexpected failure: %w", err))
}
