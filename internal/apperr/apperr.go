// Package apperr defines the gateway error taxonomy.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for status mapping.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindAuthentication
	KindForbidden
	KindNotFound
	KindTimeout
	KindNotConfigured
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication_required"
	case KindForbidden:
		return "authorization_denied"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "upstream_timeout"
	case KindNotConfigured:
		return "not_configured"
	default:
		return "upstream"
	}
}

// Error is a classified gateway error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ErrAuthenticationRequired is returned when a bearer credential is missing or malformed.
var ErrAuthenticationRequired = &Error{Kind: KindAuthentication, Message: "Authentication required"}

// Timeout reports that the bounded wait for the named upstream elapsed.
func Timeout(target string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: target + " request timed out", Err: err}
}

// NotConfigured reports a target whose base URL or secret is absent.
func NotConfigured(target string) *Error {
	return &Error{Kind: KindNotConfigured, Message: target + " not configured"}
}

// KindOf returns the kind of err, or KindUpstream when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}
