package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/model"
	"influence-gateway/internal/service"
)

// AccountHandler serves the signed-in user, dashboards, reference data,
// message templates and social account connections.
type AccountHandler struct {
	gateway *service.Gateway
	logger  *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(g *service.Gateway, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		gateway: g,
		logger:  logger.With("component", "account_handler"),
	}
}

// Me handles GET /api/users/me.
func (h *AccountHandler) Me(c echo.Context) (int, any, error) {
	return h.simple(c, service.GetCurrentUser)
}

// Dashboard handles GET /api/dashboard/:role.
func (h *AccountHandler) Dashboard(c echo.Context) (int, any, error) {
	role, err := oneOfParam(c, "role", dashboardRoles)
	if err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.GetDashboard, &model.Call{
		Credential: cred,
		PathParams: map[string]string{"role": role},
	}, http.StatusOK)
}

// Statuses handles GET /api/statuses.
func (h *AccountHandler) Statuses(c echo.Context) (int, any, error) {
	return h.simple(c, service.ListStatuses)
}

// Templates handles GET /api/message-templates.
func (h *AccountHandler) Templates(c echo.Context) (int, any, error) {
	return h.simple(c, service.ListMessageTemplates)
}

// CreateTemplate handles POST /api/message-templates.
func (h *AccountHandler) CreateTemplate(c echo.Context) (int, any, error) {
	var in struct {
		Name *string `json:"name"`
		Body *string `json:"body"`
	}
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if err := required("name", in.Name); err != nil {
		return 0, nil, err
	}
	if err := required("body", in.Body); err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.CreateMessageTemplate, &model.Call{Credential: cred, Body: raw}, http.StatusCreated)
}

// Connections handles GET /api/social/connections.
func (h *AccountHandler) Connections(c echo.Context) (int, any, error) {
	return h.simple(c, service.ListSocialConnections)
}

// Connect handles POST /api/social/:platform/connect and returns the
// provider authorization URL issued by the backend.
func (h *AccountHandler) Connect(c echo.Context) (int, any, error) {
	platform, err := oneOfParam(c, "platform", socialPlatforms)
	if err != nil {
		return 0, nil, err
	}
	var in struct {
		RedirectURI *string `json:"redirect_uri"`
	}
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if err := required("redirect_uri", in.RedirectURI); err != nil {
		return 0, nil, err
	}
	if err := absoluteURL("redirect_uri", *in.RedirectURI); err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.ConnectSocial, &model.Call{
		Credential: cred,
		PathParams: map[string]string{"platform": platform},
		Body:       raw,
	}, http.StatusOK)
}

// Callback handles POST /api/social/:platform/callback.
func (h *AccountHandler) Callback(c echo.Context) (int, any, error) {
	platform, err := oneOfParam(c, "platform", socialPlatforms)
	if err != nil {
		return 0, nil, err
	}
	var in struct {
		Code  *string `json:"code"`
		State *string `json:"state"`
	}
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if err := required("code", in.Code); err != nil {
		return 0, nil, err
	}
	if err := required("state", in.State); err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	status, data, err := invoke(c, h.gateway, service.CompleteSocialConnect, &model.Call{
		Credential: cred,
		PathParams: map[string]string{"platform": platform},
		Body:       raw,
	}, http.StatusOK)
	if err == nil {
		h.logger.Info("social account connected", "platform", platform)
	}
	return status, data, err
}

// Disconnect handles DELETE /api/social/:platform.
func (h *AccountHandler) Disconnect(c echo.Context) (int, any, error) {
	platform, err := oneOfParam(c, "platform", socialPlatforms)
	if err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	status, data, err := invoke(c, h.gateway, service.DisconnectSocial, &model.Call{
		Credential: cred,
		PathParams: map[string]string{"platform": platform},
	}, http.StatusOK)
	if err == nil {
		h.logger.Info("social account disconnected", "platform", platform)
	}
	return status, data, err
}

// simple runs an authenticated operation that takes no input.
func (h *AccountHandler) simple(c echo.Context, op service.Operation) (int, any, error) {
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, op, &model.Call{Credential: cred}, http.StatusOK)
}
