package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure for the editor.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindUnavailable  Kind = "unavailable"
)

// Error is the only error shape the gateway returns.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the caller may offer a retry.
func (e *Error) Retryable() bool { return e.Kind == KindUnavailable }

// KindOf extracts the kind of a gateway error. Unknown errors count as
// unavailable.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindUnavailable
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindUnavailable
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
