package keyword

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrUnknownModel      = errors.New("unknown model")
	ErrUnknownPartition  = errors.New("unknown partition")
	ErrParse             = errors.New("parse error")
	ErrEmbeddingProvider = errors.New("embedding provider error")
	ErrIndexCorruption   = errors.New("index corruption")
	ErrUnsupportedHost   = errors.New("unsupported host")
)

// Error carries an error kind together with the offending identifier.
type Error struct {
	kind    error
	subject string
	cause   error
}

// NewError creates an Error of the given kind about subject.
// cause may be nil.
func NewError(kind error, subject string, cause error) *Error {
	return &Error{kind: kind, subject: subject, cause: cause}
}

// Kind returns the sentinel this error belongs to.
func (e *Error) Kind() error { return e.kind }

// Subject returns the identifier the error is about.
func (e *Error) Subject() string { return e.subject }

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.kind.Error()
	if e.subject != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.subject)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}
