package mpack

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error codes.  Callers compare against these with Code(err).
const (
	ErrSink           = "ERR_SINK"
	ErrSource         = "ERR_SOURCE"
	ErrTruncated      = "ERR_TRUNCATED"
	ErrInvalidUTF8    = "ERR_INVALID_UTF8"
	ErrUnsupportedTag = "ERR_UNSUPPORTED_TAG"
	ErrOutOfRange     = "ERR_OUT_OF_RANGE"
	ErrTrailingBytes  = "ERR_TRAILING_BYTES"
	ErrPointer        = "ERR_POINTER"
	ErrType           = "ERR_TYPE"
)

// Error is the error type returned by every operation in this package.
// Err holds the underlying I/O or bridge failure, if any.
type Error struct {
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, &Error{Code: ErrTruncated})
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newErr(code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func wrapErr(code, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, Err: cause}
}

// Code returns the error code carried by err, or "" if err is nil or did
// not originate in this package.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
