package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/client"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	registry *client.Registry
	version  Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(r *client.Registry, v Version) *HealthHandler {
	return &HealthHandler{registry: r, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status reports the build version and which upstream targets are configured.
// Base URLs and secrets are never included.
func (h *HealthHandler) Status(c echo.Context) (int, any, error) {
	return http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   string(h.version),
		"upstreams": h.registry.Status(),
	}, nil
}
