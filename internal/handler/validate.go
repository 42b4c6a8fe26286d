package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/auth"
	"influence-gateway/internal/model"
	"influence-gateway/internal/service"
)

var (
	dashboardRoles  = []string{"platform", "company", "influencer"}
	socialPlatforms = []string{"instagram", "tiktok", "youtube"}
)

const maxPageSize = 100

// pathParam returns a required, trimmed and decoded path parameter that stays
// within one segment of the upstream path.
func pathParam(c echo.Context, name string) (string, error) {
	v := c.Param(name)
	// Echo matches on RawPath when it is set, leaving params escaped.
	if c.Request().URL.RawPath != "" {
		dec, err := url.PathUnescape(v)
		if err != nil {
			return "", apperr.Validation("%s is not a valid path segment", name)
		}
		v = dec
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperr.Validation("%s is required", name)
	}
	if err := service.CheckPathSegment(name, v); err != nil {
		return "", err
	}
	return v, nil
}

// oneOfParam returns a path parameter restricted to allowed values.
func oneOfParam(c echo.Context, name string, allowed []string) (string, error) {
	v, err := pathParam(c, name)
	if err != nil {
		return "", err
	}
	v = strings.ToLower(v)
	if !oneOf(v, allowed) {
		return "", apperr.Validation("%s must be one of %s", name, strings.Join(allowed, ", "))
	}
	return v, nil
}

func oneOf(v string, allowed []string) bool {
	return slices.Contains(allowed, v)
}

// readJSON reads the request body, which must be a JSON object.
func readJSON(c echo.Context) (json.RawMessage, error) {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, apperr.Validation("could not read request body")
	}
	var obj map[string]json.RawMessage
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, apperr.Validation("request body is required")
	}
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, apperr.Validation("request body must be a JSON object")
	}
	return json.RawMessage(data), nil
}

// decodeJSON reads the body into dst and returns the raw body for forwarding.
func decodeJSON(c echo.Context, dst any) (json.RawMessage, error) {
	raw, err := readJSON(c)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, apperr.Validation("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type.Kind().String()))
		}
		return nil, apperr.Validation("invalid JSON body")
	}
	return raw, nil
}

func jsonKind(goKind string) string {
	switch {
	case strings.HasPrefix(goKind, "float"), strings.HasPrefix(goKind, "int"), strings.HasPrefix(goKind, "uint"):
		return "number"
	case goKind == "bool":
		return "boolean"
	case goKind == "slice":
		return "list"
	case goKind == "map", goKind == "struct":
		return "object"
	}
	return goKind
}

// required reports a missing or blank string field.
func required(name string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return apperr.Validation("%s is required", name)
	}
	return nil
}

// nonNegative reports a negative optional number.
func nonNegative(name string, v *float64) error {
	if v != nil && *v < 0 {
		return apperr.Validation("%s must be >= 0", name)
	}
	return nil
}

// absoluteURL reports a value that is not an absolute http(s) URL.
func absoluteURL(name, v string) error {
	u, err := url.Parse(strings.TrimSpace(v))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return apperr.Validation("%s must be an absolute http(s) URL", name)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(name, v string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("%s must be a date (YYYY-MM-DD)", name)
}

// dateRange reports dates that cannot be parsed or end before they start.
func dateRange(start, end *string) error {
	var from, to time.Time
	var err error
	if start != nil && *start != "" {
		if from, err = parseDate("start_date", *start); err != nil {
			return err
		}
	}
	if end != nil && *end != "" {
		if to, err = parseDate("end_date", *end); err != nil {
			return err
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return apperr.Validation("end_date must not be before start_date")
	}
	return nil
}

// pageQuery validates page and page_size and copies the allowed filters.
func pageQuery(c echo.Context, filters ...string) (url.Values, error) {
	q := make(url.Values)
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, apperr.Validation("page must be an integer >= 1")
		}
		q.Set("page", strconv.Itoa(n))
	}
	if v := c.QueryParam("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			return nil, apperr.Validation("page_size must be an integer between 1 and %d", maxPageSize)
		}
		q.Set("page_size", strconv.Itoa(n))
	}
	for _, f := range filters {
		if v := strings.TrimSpace(c.QueryParam(f)); v != "" {
			q.Set(f, v)
		}
	}
	return q, nil
}

// credential extracts the caller's bearer token.
func credential(c echo.Context) (model.Credential, error) {
	return auth.Require(c.Request().Header)
}
