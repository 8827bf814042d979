// Package domainerrors provides coded errors for the domain and service
// layers. Stores return sentinel errors (pkg/platform/sentinel); services
// translate them into coded errors here so callers can branch on Code without
// string matching, and every failure carries a human-readable message.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks rejected input that never reached storage
	// (blank names, over-cap photo attachments).
	CodeValidation Code = "validation"

	// CodeInvalidInput marks malformed values at trust boundaries
	// (unparseable ids, bad payloads).
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks operations on ids that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks uniqueness violations: duplicate record ids and
	// duplicate taxonomy names.
	CodeConflict Code = "conflict"

	// CodeSigning marks failures producing an integrity block. Nothing is
	// persisted when signing fails.
	CodeSigning Code = "signing"

	// CodeStorage marks I/O failures in the durable store. The operation
	// aborted with no partial state.
	CodeStorage Code = "storage"

	// CodeInvariantViolation marks attempts to break a model invariant,
	// such as mutating a signed fact.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal marks unexpected failures that have no better home.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Use New or Wrap to construct.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New returns a coded error with a human-readable message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf returns a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause remains
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	for ; err != nil; err = errors.Unwrap(err) {
		if errors.As(err, &coded) && coded.Code == code {
			return true
		}
	}
	return false
}

// CodeOf returns the code of the outermost coded error, or CodeInternal when
// err carries no code.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}
