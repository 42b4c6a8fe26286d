package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"

	"influence-gateway/internal/cache"
	"influence-gateway/internal/client"
	"influence-gateway/internal/config"
	"influence-gateway/internal/model"
	"influence-gateway/internal/respond"
	"influence-gateway/internal/service"
)

// recordedCall is one request seen by the fake upstream.
type recordedCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// fakeUpstream answers every target with canned responses keyed by "METHOD /path".
type fakeUpstream struct {
	srv       *httptest.Server
	calls     atomic.Int32
	mu        sync.Mutex
	last      recordedCall
	responses map[string]fakeResponse
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{responses: make(map[string]fakeResponse)}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.last = recordedCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		}
		resp, ok := f.responses[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if !ok {
			resp = fakeResponse{status: http.StatusOK, body: `{"ok":true}`}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = io.WriteString(w, resp.body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = fakeResponse{status: status, body: body}
}

func (f *fakeUpstream) lastCall() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer routes every target to the fake upstream under its own prefix.
func newTestServer(t *testing.T, f *fakeUpstream) *echo.Echo {
	t.Helper()
	logger := discardLogger()

	targets := map[string]config.UpstreamConfig{
		config.TargetBackend:      {BaseURL: f.srv.URL + "/backend", Auth: config.AuthConfig{Scheme: config.SchemeBearerPassthrough}},
		config.TargetSocialSearch: {BaseURL: f.srv.URL + "/social", Auth: config.AuthConfig{Scheme: config.SchemeHeader, Header: "X-Api-Key", Secret: "ss-key"}},
		config.TargetAnalytics:    {BaseURL: f.srv.URL + "/analytics", Auth: config.AuthConfig{Scheme: config.SchemeBasic, Username: "acct", Secret: "an-key"}},
		config.TargetVideo:        {BaseURL: f.srv.URL + "/video", Auth: config.AuthConfig{Scheme: config.SchemeQuery, Param: "token", Secret: "vid-key"}},
		config.TargetLLM:          {BaseURL: f.srv.URL + "/llm", Auth: config.AuthConfig{Scheme: config.SchemeBearer, Secret: "sk-test"}},
	}
	var ups []*client.Upstream
	for name, uc := range targets {
		uc.TimeoutSeconds = 5
		u, err := client.NewUpstream(name, uc, logger, nil)
		if err != nil {
			t.Fatalf("NewUpstream(%s): %v", name, err)
		}
		ups = append(ups, u)
	}
	registry := client.NewRegistryFrom(ups...)
	gateway := service.NewGateway(registry, logger)

	store, err := cache.NewMemoryStore(64)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	cfg := &config.Config{Insights: config.InsightsConfig{SummaryModel: "gpt-4o-mini", SummaryMaxWords: 120}}

	e := echo.New()
	e.HTTPErrorHandler = respond.ErrorHandler(logger)
	RegisterRoutes(e, logger,
		NewAccountHandler(gateway, logger),
		NewCampaignHandler(gateway, logger),
		NewDiscoveryHandler(gateway, cache.NewMemo(store, logger, nil), logger),
		NewInsightsHandler(gateway, cfg, logger),
		NewHealthHandler(registry, "test"),
	)
	return e
}

// do sends a request and decodes the envelope.
func do(t *testing.T, e *echo.Echo, method, target, token, body string) (*httptest.ResponseRecorder, model.Envelope, map[string]json.RawMessage) {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env model.Envelope
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope %q: %v", rec.Body.String(), err)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &raw)
	return rec, env, raw
}
