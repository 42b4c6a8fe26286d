package handler

import (
	"net/http"
	"strings"
	"testing"
)

func TestAccountRoutes_Forwarding(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{"me", http.MethodGet, "/api/users/me", "", http.StatusOK, http.MethodGet, "/backend/users/me", ""},
		{"dashboard", http.MethodGet, "/api/dashboard/Influencer", "", http.StatusOK, http.MethodGet, "/backend/dashboard/influencer", ""},
		{"statuses", http.MethodGet, "/api/statuses", "", http.StatusOK, http.MethodGet, "/backend/statuses", ""},
		{"templates", http.MethodGet, "/api/message-templates", "", http.StatusOK, http.MethodGet, "/backend/message-templates", ""},
		{"create template", http.MethodPost, "/api/message-templates", `{"name":"Intro","body":"Hi {{name}}"}`, http.StatusCreated, http.MethodPost, "/backend/message-templates", `"name":"Intro"`},
		{"connections", http.MethodGet, "/api/social/connections", "", http.StatusOK, http.MethodGet, "/backend/social/connections", ""},
		{"connect", http.MethodPost, "/api/social/instagram/connect", `{"redirect_uri":"https://app.test/cb"}`, http.StatusOK, http.MethodPost, "/backend/social/instagram/connect", `"redirect_uri":"https://app.test/cb"`},
		{"callback", http.MethodPost, "/api/social/instagram/callback", `{"code":"c","state":"s"}`, http.StatusOK, http.MethodPost, "/backend/social/instagram/callback", `"state":"s"`},
		{"disconnect", http.MethodDelete, "/api/social/tiktok", "", http.StatusOK, http.MethodDelete, "/backend/social/tiktok", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeUpstream(t)
			e := newTestServer(t, f)

			rec, env, _ := do(t, e, tt.method, tt.path, "user-token", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !env.Success {
				t.Errorf("success = false")
			}
			call := f.lastCall()
			if call.Method != tt.wantMethod || call.Path != tt.wantPath {
				t.Errorf("upstream = %s %s, want %s %s", call.Method, call.Path, tt.wantMethod, tt.wantPath)
			}
			if call.Auth != "Bearer user-token" {
				t.Errorf("Authorization = %q, want bearer passthrough", call.Auth)
			}
			if !strings.Contains(call.Body, tt.wantBody) {
				t.Errorf("upstream body = %q, want it to contain %s", call.Body, tt.wantBody)
			}
		})
	}
}

func TestAccountRoutes_Validation(t *testing.T) {
	f := newFakeUpstream(t)
	e := newTestServer(t, f)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		wantMsg string
	}{
		{"unknown dashboard role", http.MethodGet, "/api/dashboard/admin", "", "role must be one of platform, company, influencer"},
		{"template missing body", http.MethodPost, "/api/message-templates", `{"name":"Intro"}`, "body is required"},
		{"template not an object", http.MethodPost, "/api/message-templates", `["Intro"]`, "request body must be a JSON object"},
		{"connect bad platform", http.MethodPost, "/api/social/myspace/connect", `{"redirect_uri":"https://a.test"}`, "platform must be one of instagram, tiktok, youtube"},
		{"connect relative redirect", http.MethodPost, "/api/social/instagram/connect", `{"redirect_uri":"/cb"}`, "redirect_uri"},
		{"callback missing state", http.MethodPost, "/api/social/youtube/callback", `{"code":"c"}`, "state is required"},
		{"disconnect bad platform", http.MethodDelete, "/api/social/friendster", "", "platform must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env, _ := do(t, e, tt.method, tt.path, "user-token", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
			if env.Error == nil || !strings.Contains(env.Error.Message, tt.wantMsg) {
				t.Errorf("error = %+v, want message containing %q", env.Error, tt.wantMsg)
			}
		})
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

func TestSocialCallback_UpstreamUnauthorized(t *testing.T) {
	f := newFakeUpstream(t)
	f.on(http.MethodPost, "/backend/social/tiktok/callback", http.StatusUnauthorized, `{"detail":"token expired"}`)
	e := newTestServer(t, f)

	rec, env, _ := do(t, e, http.MethodPost, "/api/social/tiktok/callback", "stale", `{"code":"c","state":"s"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if env.Error == nil || env.Error.Message != "Authentication required" {
		t.Errorf("error = %+v", env.Error)
	}
}
