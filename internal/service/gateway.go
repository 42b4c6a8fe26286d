// Package service implements the named upstream operations behind each route.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/client"
	"influence-gateway/internal/model"
)

var pathParamPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Gateway dispatches operations to their upstream target.
type Gateway struct {
	registry *client.Registry
	logger   *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(r *client.Registry, logger *slog.Logger) *Gateway {
	return &Gateway{
		registry: r,
		logger:   logger.With("component", "gateway"),
	}
}

// Invoke runs op against its target and returns the shaped result.
// The result is a json.RawMessage unless the operation has a Shape.
func (g *Gateway) Invoke(ctx context.Context, op Operation, call *model.Call) (any, error) {
	if call == nil {
		call = &model.Call{}
	}
	if op.RequiresAuth && call.Credential == "" {
		return nil, apperr.ErrAuthenticationRequired
	}

	path, err := expandPath(op.Path, call.PathParams)
	if err != nil {
		return nil, err
	}

	u, err := g.registry.Get(op.Target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}

	g.logger.Debug("invoking operation",
		"operation", op.Name,
		"target", op.Target,
		"credential", call.Credential,
	)

	data, err := u.Do(ctx, client.Request{Method: op.Method, Path: path, Call: call})
	if err != nil {
		return nil, err
	}
	if op.Shape == nil {
		return data, nil
	}
	shaped, err := op.Shape(data)
	if err != nil {
		return nil, &client.UpstreamError{Target: op.Target, Message: "unexpected response from " + op.Target, Err: err}
	}
	return shaped, nil
}

// expandPath substitutes {name} segments with escaped path parameters.
func expandPath(tmpl string, params map[string]string) (string, error) {
	var (
		missing string
		invalid error
	)
	out := pathParamPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v := params[name]
		if v == "" && missing == "" {
			missing = name
		}
		if err := CheckPathSegment(name, v); err != nil && invalid == nil {
			invalid = err
		}
		return url.PathEscape(v)
	})
	if missing != "" {
		return "", apperr.Validation("%s is required", missing)
	}
	if invalid != nil {
		return "", invalid
	}
	return out, nil
}

// CheckPathSegment rejects a decoded path parameter that would leave its own
// segment of the upstream path: dot segments and path separators, also when
// they are still percent-encoded.
func CheckPathSegment(name, v string) error {
	for _, s := range []string{v, unescapeOrSelf(v)} {
		if s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return apperr.Validation("%s is not a valid path segment", name)
		}
	}
	return nil
}

func unescapeOrSelf(v string) string {
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}
