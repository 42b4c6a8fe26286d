// Package respond maps handler results and errors to the JSON envelope
// returned to the browser.
package respond

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/client"
	"influence-gateway/internal/metrics"
	"influence-gateway/internal/model"
)

const authRequiredMessage = "Authentication required"

var (
	// secretParamPattern matches credential-bearing query parameters in URLs
	// embedded in error messages.
	secretParamPattern = regexp.MustCompile(`(?i)\b(api_?key|access_token|token|key)=[^&\s"']+`)
	bearerPattern      = regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9\-._~+/]+=*`)
	urlPattern         = regexp.MustCompile(`(?i)\bhttps?://[^\s"'<>]+`)
)

// Func is a route body. It returns the success status and payload, or an error
// that is classified into a failure envelope.
type Func func(c echo.Context) (int, any, error)

// Wrap adapts fn into an echo handler. Every route goes through it, so the
// failure policy lives in one place.
func Wrap(logger *slog.Logger, fn Func) echo.HandlerFunc {
	logger = logger.With("component", "respond")
	return func(c echo.Context) error {
		status, data, err := fn(c)
		if err != nil {
			code, body := Classify(err)
			logFailure(logger, c, code, err)
			c.Set(metrics.OutcomeKey, apperr.KindOf(err).String())
			return Failure(c, code, body)
		}
		c.Set(metrics.OutcomeKey, metrics.OutcomeSuccess)
		if status == 0 {
			status = http.StatusOK
		}
		return Success(c, status, data)
	}
}

// Success writes {success: true, data}.
func Success(c echo.Context, status int, data any) error {
	return c.JSON(status, model.OK(data))
}

// Failure writes {success: false, error}.
func Failure(c echo.Context, status int, body model.ErrorBody) error {
	return c.JSON(status, model.Fail(body))
}

// Classify maps err to the browser status and error body.
//
//	validation                          -> 400
//	missing credential or upstream 401  -> 401
//	upstream 403, "forbidden"/"permission" -> 403
//	upstream 404, "not found"           -> 404
//	upstream timeout                    -> 504
//	anything else                       -> 500, message kept
func Classify(err error) (int, model.ErrorBody) {
	if err == nil {
		return http.StatusInternalServerError, model.ErrorBody{Message: "request failed"}
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case apperr.KindValidation:
			return http.StatusBadRequest, model.ErrorBody{Message: Sanitize(ae.Message)}
		case apperr.KindAuthentication:
			return http.StatusUnauthorized, model.ErrorBody{Message: authRequiredMessage}
		case apperr.KindForbidden:
			return http.StatusForbidden, model.ErrorBody{Message: Sanitize(ae.Message)}
		case apperr.KindNotFound:
			return http.StatusNotFound, model.ErrorBody{Message: Sanitize(ae.Message)}
		case apperr.KindTimeout:
			return http.StatusGatewayTimeout, model.ErrorBody{Message: Sanitize(ae.Message)}
		case apperr.KindNotConfigured:
			return http.StatusInternalServerError, model.ErrorBody{Message: Sanitize(ae.Message)}
		}
	}

	var ue *client.UpstreamError
	if errors.As(err, &ue) {
		msg := Sanitize(ue.Message)
		body := model.ErrorBody{Message: msg, StatusCode: ue.StatusCode}
		switch {
		case ue.StatusCode == http.StatusUnauthorized:
			body.Message = authRequiredMessage
			return http.StatusUnauthorized, body
		case ue.StatusCode == http.StatusNotFound || containsFold(msg, "not found"):
			return http.StatusNotFound, body
		case ue.StatusCode == http.StatusForbidden || containsFold(msg, "forbidden") || containsFold(msg, "permission"):
			return http.StatusForbidden, body
		}
		return http.StatusInternalServerError, body
	}

	return http.StatusInternalServerError, model.ErrorBody{Message: Sanitize(err.Error())}
}

// Sanitize redacts bearer tokens, secret query parameters and absolute URLs
// from a message before it is logged or returned.
func Sanitize(msg string) string {
	msg = bearerPattern.ReplaceAllString(msg, "${1}[REDACTED]")
	msg = secretParamPattern.ReplaceAllString(msg, "${1}=[REDACTED]")
	return urlPattern.ReplaceAllString(msg, "[upstream]")
}

// ErrorHandler renders errors that escape a route (unknown paths, body limit,
// rate limiting, recovered panics) as envelopes.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "respond")
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			code int
			body model.ErrorBody
			he   *echo.HTTPError
		)
		if errors.As(err, &he) {
			code = he.Code
			body = model.ErrorBody{Message: httpErrorMessage(he)}
			if code == http.StatusUnauthorized {
				body.Message = authRequiredMessage
			}
		} else {
			code, body = Classify(err)
		}
		logFailure(logger, c, code, err)

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = Failure(c, code, body)
		}
		if werr != nil {
			logger.Error("writing error response", "err", werr)
		}
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return Sanitize(m)
	case error:
		return Sanitize(m.Error())
	case nil:
		return http.StatusText(he.Code)
	default:
		return Sanitize(fmt.Sprint(m))
	}
}

func logFailure(logger *slog.Logger, c echo.Context, code int, err error) {
	level := slog.LevelWarn
	if code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(c.Request().Context(), level, "request failed",
		"err", Sanitize(err.Error()),
		"kind", apperr.KindOf(err).String(),
		"status", code,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
