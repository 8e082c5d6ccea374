package usecase

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation_error"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindConflict        ErrorKind = "conflict"
	KindNotFound        ErrorKind = "not_found"
	KindUpstreamFailure ErrorKind = "upstream_failure"
	KindStoreError      ErrorKind = "store_error"
)

// Error is the only error type services return to the transport layer.
// Message is safe to show to the caller; Err is for logs.
type Error struct {
	Kind      ErrorKind
	Message   string
	ReportURL string
	Fields    map[string]string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a service error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or store_error for anything untyped.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindStoreError
}

func ValidationError(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func UpstreamFailure(message, reportURL string, err error) *Error {
	return &Error{Kind: KindUpstreamFailure, Message: message, ReportURL: reportURL, Err: err}
}

func StoreError(message string, err error) *Error {
	return &Error{Kind: KindStoreError, Message: message, Err: err}
}

// ErrInvalidCredentials is the Unauthenticated error for a failed login.
// Unknown email and wrong password are indistinguishable.
var ErrInvalidCredentials = Unauthenticated("invalid credentials")
