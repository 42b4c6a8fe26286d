package service

import (
	"net/http"

	"influence-gateway/internal/config"
)

// Operation is one named call against an upstream target. Path may contain
// {name} segments filled from the call's path parameters.
type Operation struct {
	Name         string
	Target       string
	Method       string
	Path         string
	RequiresAuth bool
	Shape        Shape
}

func backend(name, method, path string) Operation {
	return Operation{
		Name:         name,
		Target:       config.TargetBackend,
		Method:       method,
		Path:         path,
		RequiresAuth: true,
	}
}

// Backend operations.
var (
	GetCurrentUser          = backend("get_current_user", http.MethodGet, "/users/me")
	GetDashboard            = backend("get_dashboard", http.MethodGet, "/dashboard/{role}")
	ListCampaigns           = backend("list_campaigns", http.MethodGet, "/campaigns")
	CreateCampaign          = backend("create_campaign", http.MethodPost, "/campaigns")
	GetCampaign             = backend("get_campaign", http.MethodGet, "/campaigns/{campaign_id}")
	UpdateCampaign          = backend("update_campaign", http.MethodPut, "/campaigns/{campaign_id}")
	DeleteCampaign          = backend("delete_campaign", http.MethodDelete, "/campaigns/{campaign_id}")
	ListCampaignInfluencers = backend("list_campaign_influencers", http.MethodGet, "/campaigns/{campaign_id}/influencers")
	AddCampaignInfluencer   = backend("add_campaign_influencer", http.MethodPost, "/campaigns/{campaign_id}/influencers")
	UpdateInfluencerPrice   = backend("update_influencer_price", http.MethodPatch, "/campaigns/{campaign_id}/influencers/{influencer_id}")
	UpdateInfluencerStatus  = backend("update_influencer_status", http.MethodPatch, "/campaigns/{campaign_id}/influencers/{influencer_id}/status")
	ListStatuses            = backend("list_statuses", http.MethodGet, "/statuses")
	ListMessageTemplates    = backend("list_message_templates", http.MethodGet, "/message-templates")
	CreateMessageTemplate   = backend("create_message_template", http.MethodPost, "/message-templates")
	ListSocialConnections   = backend("list_social_connections", http.MethodGet, "/social/connections")
	ConnectSocial           = backend("connect_social", http.MethodPost, "/social/{platform}/connect")
	CompleteSocialConnect   = backend("complete_social_connect", http.MethodPost, "/social/{platform}/callback")
	DisconnectSocial        = backend("disconnect_social", http.MethodDelete, "/social/{platform}")
)

// Provider operations.
var (
	SearchCreators = Operation{
		Name:         "search_creators",
		Target:       config.TargetSocialSearch,
		Method:       http.MethodPost,
		Path:         "/v1/search",
		RequiresAuth: true,
		Shape:        shapeSearch,
	}
	SearchLocations = Operation{
		Name:   "search_locations",
		Target: config.TargetSocialSearch,
		Method: http.MethodGet,
		Path:   "/v1/locations",
		Shape:  shapeLocations,
	}
	GetCreatorAnalytics = Operation{
		Name:         "get_creator_analytics",
		Target:       config.TargetAnalytics,
		Method:       http.MethodGet,
		Path:         "/v1/creators/{platform}/{handle}/analytics",
		RequiresAuth: true,
	}
	AnalyzeVideo = Operation{
		Name:         "analyze_video",
		Target:       config.TargetVideo,
		Method:       http.MethodPost,
		Path:         "/v1/videos/analyze",
		RequiresAuth: true,
	}
	SummarizeText = Operation{
		Name:         "summarize_text",
		Target:       config.TargetLLM,
		Method:       http.MethodPost,
		Path:         "/chat/completions",
		RequiresAuth: true,
		Shape:        shapeSummary,
	}
)

// Operations lists every operation the gateway exposes.
func Operations() []Operation {
	return []Operation{
		GetCurrentUser, GetDashboard,
		ListCampaigns, CreateCampaign, GetCampaign, UpdateCampaign, DeleteCampaign,
		ListCampaignInfluencers, AddCampaignInfluencer, UpdateInfluencerPrice, UpdateInfluencerStatus,
		ListStatuses, ListMessageTemplates, CreateMessageTemplate,
		ListSocialConnections, ConnectSocial, CompleteSocialConnect, DisconnectSocial,
		SearchCreators, SearchLocations, GetCreatorAnalytics, AnalyzeVideo, SummarizeText,
	}
}
