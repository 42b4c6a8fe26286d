package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/respond"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(
	e *echo.Echo,
	logger *slog.Logger,
	account *AccountHandler,
	campaigns *CampaignHandler,
	discovery *DiscoveryHandler,
	insights *InsightsHandler,
	health *HealthHandler,
) {
	wrap := func(fn respond.Func) echo.HandlerFunc { return respond.Wrap(logger, fn) }

	e.GET("/healthz", health.Healthz)
	e.GET("/gateway/status", wrap(health.Status))

	api := e.Group("/api")

	api.GET("/users/me", wrap(account.Me))
	api.GET("/dashboard/:role", wrap(account.Dashboard))
	api.GET("/statuses", wrap(account.Statuses))
	api.GET("/message-templates", wrap(account.Templates))
	api.POST("/message-templates", wrap(account.CreateTemplate))

	api.GET("/social/connections", wrap(account.Connections))
	api.POST("/social/:platform/connect", wrap(account.Connect))
	api.POST("/social/:platform/callback", wrap(account.Callback))
	api.DELETE("/social/:platform", wrap(account.Disconnect))

	api.GET("/campaigns", wrap(campaigns.List))
	api.POST("/campaigns", wrap(campaigns.Create))
	api.GET("/campaigns/:campaign_id", wrap(campaigns.Get))
	api.PUT("/campaigns/:campaign_id", wrap(campaigns.Update))
	api.DELETE("/campaigns/:campaign_id", wrap(campaigns.Delete))
	api.GET("/campaigns/:campaign_id/influencers", wrap(campaigns.ListInfluencers))
	api.POST("/campaigns/:campaign_id/influencers", wrap(campaigns.AddInfluencer))
	api.POST("/campaigns/:campaign_id/influencers/:influencer_id/price", wrap(campaigns.UpdatePrice))
	api.PUT("/campaigns/:campaign_id/influencers/:influencer_id/status", wrap(campaigns.UpdateStatus))

	api.POST("/discovery/search", wrap(discovery.Search))
	api.GET("/discovery/locations", wrap(discovery.Locations))
	api.GET("/discovery/creators/:platform/:handle/analytics", wrap(discovery.Analytics))

	api.POST("/insights/video", wrap(insights.Video))
	api.POST("/insights/summarize", wrap(insights.Summarize))
}
