package storage

import (
	"context"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error kinds
// --------------------------------------------------------------------------

// ErrorKind classifies every failure a backend can report.
type ErrorKind uint8

const (
	// KindInternalError is an engine, transaction or encoding failure, or a
	// stored value that cannot be decoded
	KindInternalError ErrorKind = iota
	// KindInitialFailed means the backend could not be constructed
	KindInitialFailed
	// KindInvalidValueType means a counter operation hit a non integer value
	KindInvalidValueType
	// KindValueNotFound means the key is absent or expired
	KindValueNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindInitialFailed:
		return "InitialFailed"
	case KindInvalidValueType:
		return "InvalidValueType"
	case KindValueNotFound:
		return "ValueNotFound"
	default:
		return "InternalError"
	}
}

// ParseErrorKind is the inverse of ErrorKind.String. Unknown names map to
// KindInternalError.
func ParseErrorKind(s string) ErrorKind {
	for _, k := range []ErrorKind{KindInitialFailed, KindInvalidValueType, KindValueNotFound} {
		if k.String() == s {
			return k
		}
	}
	return KindInternalError
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrInitialFailed    = &Error{Kind: KindInitialFailed}
	ErrInvalidValueType = &Error{Kind: KindInvalidValueType}
	ErrValueNotFound    = &Error{Kind: KindValueNotFound}
	ErrInternal         = &Error{Kind: KindInternalError}
)

// --------------------------------------------------------------------------
// Error type
// --------------------------------------------------------------------------

// Error is the error type returned by every Storage method.
type Error struct {
	Kind ErrorKind
	Msg  string
	// Err is the engine error that caused this one, if any
	Err error
}

// NewError creates a new error of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// Internal wraps an engine error. Errors that already are *Error are returned
// unchanged.
func Internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternalError, Msg: msg, Err: err}
}

// InitialFailed wraps an error raised while constructing a backend.
func InitialFailed(err error, msg string) error {
	return &Error{Kind: KindInitialFailed, Msg: msg, Err: err}
}

// NotFound reports an absent or expired key.
func NotFound(key string) error {
	return &Error{Kind: KindValueNotFound, Msg: fmt.Sprintf("key %q not found", key)}
}

// KindOf returns the kind of err. Errors that are not *Error count as
// internal errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalError
}

// CheckContext returns an InternalError if ctx is already done.
func CheckContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindInternalError, Msg: "operation cancelled", Err: err}
	}
	return nil
}
