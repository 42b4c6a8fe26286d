package service

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"influence-gateway/internal/client"
	"influence-gateway/internal/config"
	"influence-gateway/internal/model"
	"influence-gateway/internal/testutil"
)

func newRecordedUpstream(t *testing.T, cassette, name string, cfg config.UpstreamConfig) *client.Upstream {
	t.Helper()
	u, err := client.NewUpstream(name, cfg, discardLogger(), nil)
	require.NoError(t, err)
	return u.WithHTTPClient(testutil.HTTPClient(testutil.NewRecorder(t, cassette)))
}

func TestProviders_SocialSearch(t *testing.T) {
	u := newRecordedUpstream(t, "social_search", config.TargetSocialSearch, config.UpstreamConfig{
		BaseURL: "https://api.social-search.test",
		Auth:    config.AuthConfig{Scheme: config.SchemeHeader, Header: "X-Api-Key", Secret: "test-key"},
	})
	g := NewGateway(client.NewRegistryFrom(u), discardLogger())
	ctx := context.Background()

	locs, err := g.Invoke(ctx, SearchLocations, &model.Call{Query: url.Values{"q": {"lon"}}})
	require.NoError(t, err)
	assert.Equal(t, []Location{
		{ID: "2643743", Name: "London"},
		{ID: "6058560", Name: "London, Ontario"},
	}, locs)

	res, err := g.Invoke(ctx, SearchCreators, &model.Call{
		Credential: "user-token",
		Body:       map[string]any{"platform": "instagram", "query": "vegan recipes", "page": 1},
	})
	require.NoError(t, err)
	search := res.(SearchResult)
	assert.Equal(t, 57, search.Total)
	require.Len(t, search.Creators, 2)
	assert.JSONEq(t, `{"handle":"greenplate","followers":120400}`, string(search.Creators[0]))
}

func TestProviders_Summarize(t *testing.T) {
	u := newRecordedUpstream(t, "llm_summarize", config.TargetLLM, config.UpstreamConfig{
		BaseURL: "https://api.llm.test/v1",
		Auth:    config.AuthConfig{Scheme: config.SchemeBearer, Secret: "sk-test"},
	})
	g := NewGateway(client.NewRegistryFrom(u), discardLogger())

	body := SummaryRequest(config.InsightsConfig{SummaryModel: "gpt-4o-mini", SummaryMaxWords: 120},
		"Weekly vegan meal prep videos with a focus on budget grocery hauls.")
	got, err := g.Invoke(context.Background(), SummarizeText, &model.Call{Credential: "user-token", Body: body})
	require.NoError(t, err)
	assert.Equal(t, Summary{
		Summary: "Budget-focused vegan meal prep creator posting weekly grocery hauls.",
		Model:   "gpt-4o-mini-2024-07-18",
	}, got)
}

func TestSummaryRequest(t *testing.T) {
	req := SummaryRequest(config.InsightsConfig{SummaryModel: "m", SummaryMaxWords: 50}, "hello")
	assert.Equal(t, "m", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[0].Content, "50 words")
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "hello", req.Messages[1].Content)
	assert.Equal(t, http.MethodPost, SummarizeText.Method)
}
