package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/metrics"
)

// MetricsMiddleware records request count, latency and in-flight gauge per
// route template and outcome. Route templates keep label cardinality bounded
// by the route table rather than by the ids in request paths.
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			status, outcome := requestOutcome(c, err)
			method := metrics.NormalizeMethod(c.Request().Method)
			route := routeLabel(c, err)

			m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status), outcome).Inc()
			m.RequestDuration.WithLabelValues(method, route, outcome).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// requestOutcome resolves the final status code and outcome. Envelope
// responses carry their outcome in the context; errors returned up the chain
// are rendered later by the central error handler, so their status comes
// from the error itself.
func requestOutcome(c echo.Context, err error) (int, string) {
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code, metrics.OutcomeRejected
		}
		return http.StatusInternalServerError, apperr.KindOf(err).String()
	}

	status := c.Response().Status
	if outcome, ok := c.Get(metrics.OutcomeKey).(string); ok && outcome != "" {
		return status, outcome
	}
	if status >= http.StatusBadRequest {
		return status, metrics.OutcomeRejected
	}
	return status, metrics.OutcomeSuccess
}

func routeLabel(c echo.Context, err error) string {
	route := c.Path()
	if route == "" || errors.Is(err, echo.ErrNotFound) {
		return metrics.UnmatchedRoute
	}
	return route
}
