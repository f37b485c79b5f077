// Package errors defines the coded errors loadmaster returns to its callers.
//
// A failure that reaches the CLI or the HTTP API is an [*Error] carrying a
// [Code]. The code decides the exit message and the HTTP status; the
// message is what a person reads. Causes stay attached so errors.Is and
// errors.As keep working on the standard sentinels underneath.
//
//	if errs.Is(err, errs.ErrCodeNotFound) {
//	    // nothing recorded for this submitter/context pair
//	}
//
// Code values:
//
//	INVALID_INPUT       malformed request or flag combination
//	INVALID_DOCUMENT    mod list cannot be parsed or is too large
//	INVALID_IDENTIFIER  workshop id is not a positive decimal
//	INVALID_FORMAT      unknown output format or undecodable body
//	INVALID_CONFIG      configuration file or value rejected
//	NOT_FOUND           item or history entry does not exist
//	NETWORK_ERROR       workshop page could not be fetched
//	TIMEOUT             analysis exceeded its deadline
//	STORAGE_ERROR       submission store failed
//	INTERNAL_ERROR      anything else
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidDocument   Code = "INVALID_DOCUMENT"
	ErrCodeInvalidIdentifier Code = "INVALID_IDENTIFIER"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeNetwork           Code = "NETWORK_ERROR"
	ErrCodeTimeout           Code = "TIMEOUT"
	ErrCodeStorage           Code = "STORAGE_ERROR"
	ErrCodeInternal          Code = "INTERNAL_ERROR"
)

// Error pairs a [Code] with a readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause == nil {
		return s
	}
	return s + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a printf-style message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with an attached cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Timeout is returned when a whole analysis runs past its deadline.
// No partial result accompanies it.
func Timeout(cause error) *Error {
	return Wrap(ErrCodeTimeout, cause, "analysis took too long, try again later")
}

// outermost returns the first *Error in err's chain.
func outermost(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	e, ok := outermost(err)
	return ok && e.Code == code
}

// GetCode returns the outermost code in err's chain, or "" when there is none.
func GetCode(err error) Code {
	if e, ok := outermost(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage strips the code prefix and cause from coded errors.
// Uncoded errors are returned verbatim.
func UserMessage(err error) string {
	if e, ok := outermost(err); ok {
		return e.Message
	}
	return err.Error()
}

// IsTimeout reports whether err is a TIMEOUT error or wraps a context deadline.
func IsTimeout(err error) bool {
	return Is(err, ErrCodeTimeout) || errors.Is(err, context.DeadlineExceeded)
}
