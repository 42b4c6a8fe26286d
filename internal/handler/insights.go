package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/config"
	"influence-gateway/internal/model"
	"influence-gateway/internal/service"
)

const maxSummaryText = 20000

// InsightsHandler serves video intelligence and text summarization.
type InsightsHandler struct {
	gateway *service.Gateway
	cfg     config.InsightsConfig
	logger  *slog.Logger
}

// NewInsightsHandler creates an InsightsHandler.
func NewInsightsHandler(g *service.Gateway, cfg *config.Config, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{
		gateway: g,
		cfg:     cfg.Insights,
		logger:  logger.With("component", "insights_handler"),
	}
}

// Video handles POST /api/insights/video.
func (h *InsightsHandler) Video(c echo.Context) (int, any, error) {
	var in struct {
		VideoURL *string `json:"video_url"`
	}
	raw, err := decodeJSON(c, &in)
	if err != nil {
		return 0, nil, err
	}
	if err := required("video_url", in.VideoURL); err != nil {
		return 0, nil, err
	}
	if err := absoluteURL("video_url", *in.VideoURL); err != nil {
		return 0, nil, err
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	return invoke(c, h.gateway, service.AnalyzeVideo, &model.Call{Credential: cred, Body: raw}, http.StatusOK)
}

// Summarize handles POST /api/insights/summarize.
func (h *InsightsHandler) Summarize(c echo.Context) (int, any, error) {
	var in struct {
		Text *string `json:"text"`
	}
	if _, err := decodeJSON(c, &in); err != nil {
		return 0, nil, err
	}
	if err := required("text", in.Text); err != nil {
		return 0, nil, err
	}
	text := strings.TrimSpace(*in.Text)
	if n := utf8.RuneCountInString(text); n > maxSummaryText {
		return 0, nil, apperr.Validation("text must be at most %d characters", maxSummaryText)
	}
	cred, err := credential(c)
	if err != nil {
		return 0, nil, err
	}
	h.logger.Debug("summarizing text", "chars", utf8.RuneCountInString(text), "model", h.cfg.SummaryModel)
	return invoke(c, h.gateway, service.SummarizeText, &model.Call{
		Credential: cred,
		Body:       service.SummaryRequest(h.cfg, text),
	}, http.StatusOK)
}
