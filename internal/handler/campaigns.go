package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/model"
	"influence-gateway/internal/service"
)

// CampaignHandler serves campaigns and their influencer assignments.
type CampaignHandler struct {
	gateway *service.Gateway
	logger  *slog.Logger
}

// NewCampaignHandler creates a CampaignHandler.
func NewCampaignHandler(g *service.Gateway, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		gateway: g,
		logger:  logger.With("component", "campaign_handler"),
	}
}

type campaignInput struct {
	Name      *string  `json:"name"`
	Budget    *float64 `json:"budget"`
	StartDate *string  `json:"start_date"`
	EndDate   *string  `json:"end_date"`
}

func (in campaignInput) validate(create bool) error {
	if create {
		if err := required("name", in.Name); err != nil {
			return err
		}
	} else if in.Name != nil {
		if err := required("name", in.Name); err != nil {
			return err
		}
	}
	if err := nonNegative("budget", in.Budget); err != nil {
		return err
	}
	return dateRange(in.StartDate, in.EndDate)
}

// List handles GET /api/campaigns.
func (h *CampaignHandler) List(c echo.Context) (int, any, error) {
	q, err := pageQuery(c, "status", "search")
	if err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.ListCampaigns, &model.Call{Credential: cred, Query: q}, http.StatusOK)
}

// Create handles POST /api/campaigns.
func (h *CampaignHandler) Create(c echo.Context) (int, any, error) {
	var in campaignInput
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if err := in.validate(true); err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.CreateCampaign, &model.Call{Credential: cred, Body: raw}, http.StatusCreated)
}

// Get handles GET /api/campaigns/:campaign_id.
func (h *CampaignHandler) Get(c echo.Context) (int, any, error) {
	call, err := h.campaignCall(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.GetCampaign, call, http.StatusOK)
}

// Update handles PUT /api/campaigns/:campaign_id.
func (h *CampaignHandler) Update(c echo.Context) (int, any, error) {
	id, err := pathParam(c, "campaign_id")
	if err != nil {
		return 0, nil, err
	}
	var in campaignInput
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if err := in.validate(false); err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.UpdateCampaign, &model.Call{
		Credential: cred,
		PathParams: map[string]string{"campaign_id": id},
		Body:       raw,
	}, http.StatusOK)
}

// Delete handles DELETE /api/campaigns/:campaign_id.
func (h *CampaignHandler) Delete(c echo.Context) (int, any, error) {
	call, err := h.campaignCall(c)
	if err != nil {
		return 0, nil, err
	}
	status, data, err := invoke(c, h.gateway, service.DeleteCampaign, call, http.StatusOK)
	if err == nil {
		h.logger.Info("campaign deleted", "campaign_id", call.PathParams["campaign_id"])
	}
	return status, data, err
}

// ListInfluencers handles GET /api/campaigns/:campaign_id/influencers.
func (h *CampaignHandler) ListInfluencers(c echo.Context) (int, any, error) {
	call, err := h.campaignCall(c)
	if err != nil {
		return 0, nil, err
	}
	q, err := pageQuery(c, "status")
	if err != nil {
		return 0, nil, err
	}
	call.Query = q
	return invoke(c, h.gateway, service.ListCampaignInfluencers, call, http.StatusOK)
}

// AddInfluencer handles POST /api/campaigns/:campaign_id/influencers.
func (h *CampaignHandler) AddInfluencer(c echo.Context) (int, any, error) {
	id, err := pathParam(c, "campaign_id")
	if err != nil {
		return 0, nil, err
	}
	var in struct {
		InfluencerID json.RawMessage `json:"influencer_id"`
	}
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if len(in.InfluencerID) == 0 || string(in.InfluencerID) == "null" || string(in.InfluencerID) == `""` {
		return 0, nil, apperr.Validation("influencer_id is required")
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.AddCampaignInfluencer, &model.Call{
		Credential: cred,
		PathParams: map[string]string{"campaign_id": id},
		Body:       raw,
	}, http.StatusCreated)
}

// UpdatePrice handles POST /api/campaigns/:campaign_id/influencers/:influencer_id/price.
func (h *CampaignHandler) UpdatePrice(c echo.Context) (int, any, error) {
	params, err := assignmentParams(c)
	if err != nil {
		return 0, nil, err
	}
	var in struct {
		CollaborationPrice *float64 `json:"collaboration_price"`
	}
	if _, err := decodeJSON(c, &in); err != nil {
		return 0, nil, err
	}
	if in.CollaborationPrice == nil {
		return 0, nil, apperr.Validation("collaboration_price is required")
	}
	if err := nonNegative("collaboration_price", in.CollaborationPrice); err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.UpdateInfluencerPrice, &model.Call{
		Credential: cred,
		PathParams: params,
		Body:       map[string]float64{"collaboration_price": *in.CollaborationPrice},
	}, http.StatusOK)
}

// UpdateStatus handles PUT /api/campaigns/:campaign_id/influencers/:influencer_id/status.
func (h *CampaignHandler) UpdateStatus(c echo.Context) (int, any, error) {
	params, err := assignmentParams(c)
	if err != nil {
		return 0, nil, err
	}
	var in struct {
		Status *string `json:"status"`
	}
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if err := required("status", in.Status); err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.UpdateInfluencerStatus, &model.Call{
		Credential: cred,
		PathParams: params,
		Body:       raw,
	}, http.StatusOK)
}

func (h *CampaignHandler) campaignCall(c echo.Context) (*model.Call, error) {
	id, err := pathParam(c, "campaign_id")
	if err != nil {
		return nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return nil, err
	}
	return &model.Call{Credential: cred, PathParams: map[string]string{"campaign_id": id}}, nil
}

func assignmentParams(c echo.Context) (map[string]string, error) {
	cid, err := pathParam(c, "campaign_id")
	if err != nil {
		return nil, err
	}
	iid, err := pathParam(c, "influencer_id")
	if err != nil {
		return nil, err
	}
	return map[string]string{"campaign_id": cid, "influencer_id": iid}, nil
}

// invoke runs op and returns status on success.
func invoke(c echo.Context, g *service.Gateway, op service.Operation, call *model.Call, status int) (int, any, error) {
	data, err := g.Invoke(c.Request().Context(), op, call)
	if err != nil {
		return 0, nil, err
	}
	return status, data, nil
}
