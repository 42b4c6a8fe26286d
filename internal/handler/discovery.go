package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/cache"
	"influence-gateway/internal/model"
	"influence-gateway/internal/service"
)

const minLocationQuery = 2

// DiscoveryHandler serves creator search, location lookup and creator analytics.
type DiscoveryHandler struct {
	gateway   *service.Gateway
	locations *cache.Memo
	logger    *slog.Logger
}

// NewDiscoveryHandler creates a DiscoveryHandler.
func NewDiscoveryHandler(g *service.Gateway, locations *cache.Memo, logger *slog.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		gateway:   g,
		locations: locations,
		logger:    logger.With("component", "discovery_handler"),
	}
}

// Search handles POST /api/discovery/search.
func (h *DiscoveryHandler) Search(c echo.Context) (int, any, error) {
	var in struct {
		Platform *string        `json:"platform"`
		Query    *string        `json:"query"`
		Filters  map[string]any `json:"filters"`
		Page     *int           `json:"page"`
	}
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if err := required("platform", in.Platform); err != nil {
		return 0, nil, err
	}
	if !oneOf(strings.ToLower(*in.Platform), socialPlatforms) {
		return 0, nil, apperr.Validation("platform must be one of %s", strings.Join(socialPlatforms, ", "))
	}
	if (in.Query == nil || strings.TrimSpace(*in.Query) == "") && len(in.Filters) == 0 {
		return 0, nil, apperr.Validation("query or filters is required")
	}
	if in.Page != nil && *in.Page < 1 {
		return 0, nil, apperr.Validation("page must be an integer >= 1")
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.SearchCreators, &model.Call{Credential: cred, Body: raw}, http.StatusOK)
}

// Locations handles GET /api/discovery/locations?q=. It needs no credential
// and answers repeated queries from the location cache.
func (h *DiscoveryHandler) Locations(c echo.Context) (int, any, error) {
	// Lookups are case-insensitive; the cache key and the upstream query use
	// the same normalized text.
	q := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	if utf8.RuneCountInString(q) < minLocationQuery {
		return 0, nil, apperr.Validation("q must be at least %d characters", minLocationQuery)
	}

	key := "locations:" + q
	data, err := h.locations.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) ([]byte, error) {
		res, err := h.gateway.Invoke(ctx, service.SearchLocations, &model.Call{Query: url.Values{"q": {q}}})
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, json.RawMessage(data), nil
}

// Analytics handles GET /api/discovery/creators/:platform/:handle/analytics.
func (h *DiscoveryHandler) Analytics(c echo.Context) (int, any, error) {
	platform, err := oneOfParam(c, "platform", socialPlatforms)
	if err != nil {
		return 0, nil, err
	}
	handle, err := pathParam(c, "handle")
	if err != nil {
		return 0, nil, err
	}
	handle = strings.TrimPrefix(handle, "@")
	if handle == "" {
		return 0, nil, apperr.Validation("handle is required")
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.GetCreatorAnalytics, &model.Call{
		Credential: cred,
		PathParams: map[string]string{"platform": platform, "handle": handle},
	}, http.StatusOK)
}
