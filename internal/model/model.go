// Package model defines shared types for the gateway.
package model

import (
	"io"
	"log/slog"
	"net/url"
)

// Credential is an opaque bearer token taken from an inbound request.
// It lives for one request and is never logged in full.
type Credential string

// String returns a redacted form so that accidental formatting does not leak the token.
func (c Credential) String() string {
	return RedactSecret(string(c))
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// Reveal returns the raw token for use in outbound Authorization headers.
func (c Credential) Reveal() string {
	return string(c)
}

// RedactSecret keeps at most a four-character prefix of a secret.
func RedactSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "[REDACTED]"
	default:
		return s[:4] + "…[REDACTED]"
	}
}

// RawBody is a non-JSON request body (binary upload or multipart form).
type RawBody struct {
	Reader      io.Reader
	ContentType string
}

// Call is the per-request bundle handed to an upstream operation.
type Call struct {
	Credential Credential
	PathParams map[string]string
	Query      url.Values
	// Body is encoded as JSON when non-nil. Raw takes precedence when set.
	Body any
	Raw  *RawBody
}

// ErrorBody is the error member of an Envelope.
type ErrorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Envelope is the response shape returned to the browser.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// OK builds a success envelope. A nil payload becomes an empty object so that
// data is always present on success.
func OK(data any) Envelope {
	if data == nil {
		data = struct{}{}
	}
	return Envelope{Success: true, Data: data}
}

// Fail builds a failure envelope. An empty message is replaced by a generic one.
func Fail(body ErrorBody) Envelope {
	if body.Message == "" {
		body.Message = "request failed"
	}
	return Envelope{Success: false, Error: &body}
}
