// Package auth extracts bearer credentials from inbound requests.
package auth

import (
	"net/http"
	"strings"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/model"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
)

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
// It reports false when the header is missing, does not start with the
// "Bearer " prefix, or carries an empty token after trimming.
func BearerToken(h http.Header) (model.Credential, bool) {
	v := h.Get(headerAuthorization)
	if !strings.HasPrefix(v, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(v[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return model.Credential(token), true
}

// Require is BearerToken for routes that need a caller identity.
func Require(h http.Header) (model.Credential, error) {
	token, ok := BearerToken(h)
	if !ok {
		return "", apperr.ErrAuthenticationRequired
	}
	return token, nil
}

// Optional returns the bearer token when one is present and well formed.
func Optional(h http.Header) model.Credential {
	token, _ := BearerToken(h)
	return token
}
