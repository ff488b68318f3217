// Package apperr carries the error taxonomy shared by the dispatcher,
// executors and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalid  Kind = "invalid"   // caller input rejected
	KindNotFound Kind = "not_found" // missing file or directory
	KindUpstream Kind = "upstream"  // LLM / OCR endpoint failure
	KindInternal Kind = "internal"  // subprocess, database or unexpected failure
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	// UpstreamStatus is the HTTP status returned by a remote dependency, if any.
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error, format string, args ...any) error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// Upstream records a remote dependency failure. status is 0 when no HTTP
// response was received.
func Upstream(status int, err error, format string, args ...any) error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), UpstreamStatus: status, Err: err}
}

// Wrap returns err unchanged if it is already classified, otherwise it is
// reported as an internal error.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf returns the kind of the first classified error in the chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
