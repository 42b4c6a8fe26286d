// Package client provides the outbound HTTP client for the backend and
// third-party providers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"influence-gateway/internal/apperr"
	"influence-gateway/internal/config"
	"influence-gateway/internal/metrics"
	"influence-gateway/internal/model"
)

const userAgent = "influence-gateway/1.0"

// Request is one call against an upstream. Path is already expanded and
// relative to the target's base URL.
type Request struct {
	Method string
	Path   string
	Call   *model.Call
}

// Upstream sends requests to one configured target.
type Upstream struct {
	name       string
	baseURL    *url.URL
	auth       config.AuthConfig
	timeout    time.Duration
	maxBytes   int64
	retry      config.RetryConfig
	configured bool

	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstream creates an Upstream with connection pooling.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstream(name string, cfg config.UpstreamConfig, logger *slog.Logger, m *metrics.Metrics) (*Upstream, error) {
	u := &Upstream{
		name:       name,
		auth:       cfg.Auth,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		maxBytes:   cfg.MaxResponseBytes,
		retry:      cfg.Retry,
		configured: cfg.Configured(),
		logger:     logger.With("component", "upstream_client", "target", name),
		metrics:    m,
	}
	if u.timeout <= 0 {
		u.timeout = 30 * time.Second
	}
	if u.maxBytes <= 0 {
		u.maxBytes = 10 * 1024 * 1024
	}

	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse %s base_url: %w", name, err)
		}
		u.baseURL = base
	}

	idle := cfg.IdleConnections
	if idle <= 0 {
		idle = 100
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        idle,
		MaxIdleConnsPerHost: idle,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	// The bounded wait is applied per call through the request context, so
	// that a timeout can be told apart from the caller going away.
	u.httpClient = &http.Client{
		Transport: otelhttp.NewTransport(transport),
	}
	return u, nil
}

// Name returns the target name.
func (u *Upstream) Name() string { return u.name }

// Configured reports whether the target has a base URL and any secret it needs.
func (u *Upstream) Configured() bool { return u.configured }

// Timeout returns the bounded wait applied to each call.
func (u *Upstream) Timeout() time.Duration { return u.timeout }

// Do performs the call and returns the decoded JSON payload.
//
// Failures are an *apperr.Error for timeouts and missing configuration, or an
// *UpstreamError for everything else. Calls are not retried unless the
// target enables retries, and then only for GET.
func (u *Upstream) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if !u.configured {
		return nil, apperr.NotConfigured(u.name)
	}

	attempts := 1
	if req.Method == http.MethodGet && u.retry.MaxAttempts > 1 {
		attempts = u.retry.MaxAttempts
	}
	backoff := time.Duration(u.retry.BackoffMillis) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			u.logger.Debug("retrying upstream request",
				"method", req.Method,
				"path", req.Path,
				"attempt", attempt,
			)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, lastErr
			case <-timer.C:
			}
			backoff *= 2
		}

		data, err := u.do(ctx, req)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (u *Upstream) do(ctx context.Context, req Request) (json.RawMessage, error) {
	callCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	httpReq, err := u.newRequest(callCtx, req)
	if err != nil {
		return nil, err
	}

	u.logger.Debug("upstream request",
		"method", req.Method,
		"path", req.Path,
	)

	method := metrics.NormalizeMethod(req.Method)
	start := time.Now()
	resp, err := u.httpClient.Do(httpReq)
	if err != nil {
		u.observe(method, time.Since(start), 0)
		return nil, u.transportError(ctx, callCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, u.maxBytes+1))
	u.observe(method, time.Since(start), resp.StatusCode)
	if err != nil {
		return nil, u.transportError(ctx, callCtx, err)
	}
	if int64(len(data)) > u.maxBytes {
		return nil, &UpstreamError{Target: u.name, Message: "upstream response too large"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(data)
		if msg == "" {
			msg = resp.Status
		}
		return nil, &UpstreamError{Target: u.name, StatusCode: resp.StatusCode, Message: msg}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(data) {
		return nil, &UpstreamError{Target: u.name, Message: "invalid JSON response from " + u.name}
	}
	return json.RawMessage(data), nil
}

func (u *Upstream) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	// req.Path is already escaped.
	target := *u.baseURL
	target.RawPath = strings.TrimRight(u.baseURL.EscapedPath(), "/") + req.Path
	p, err := url.PathUnescape(target.RawPath)
	if err != nil {
		return nil, fmt.Errorf("build %s path: %w", u.name, err)
	}
	target.Path = p

	call := req.Call
	if call == nil {
		call = &model.Call{}
	}

	q := make(url.Values)
	for k, v := range call.Query {
		q[k] = v
	}
	if u.auth.Scheme == config.SchemeQuery {
		q.Set(u.auth.Param, u.auth.Secret)
	}
	target.RawQuery = q.Encode()

	var (
		body        io.Reader
		contentType = "application/json"
	)
	switch {
	case call.Raw != nil:
		body = call.Raw.Reader
		contentType = call.Raw.ContentType
	case call.Body != nil:
		buf, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request body: %w", u.name, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", u.name, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	switch u.auth.Scheme {
	case config.SchemeBearerPassthrough:
		if call.Credential != "" {
			httpReq.Header.Set("Authorization", "Bearer "+call.Credential.Reveal())
		}
	case config.SchemeBearer:
		httpReq.Header.Set("Authorization", "Bearer "+u.auth.Secret)
	case config.SchemeHeader:
		httpReq.Header.Set(u.auth.Header, u.auth.Secret)
	case config.SchemeBasic:
		httpReq.SetBasicAuth(u.auth.Username, u.auth.Secret)
	}
	return httpReq, nil
}

// transportError classifies a failure that produced no usable response.
// The returned message never contains the upstream URL.
func (u *Upstream) transportError(parent, callCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		u.fail("canceled")
		return &UpstreamError{Target: u.name, Message: "client disconnected", Err: parent.Err()}
	case errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		u.fail("timeout")
		return apperr.Timeout(u.name, err)
	}

	u.fail("transport")
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &UpstreamError{Target: u.name, Message: "upstream host unreachable", Err: err}
	}
	return &UpstreamError{Target: u.name, Message: "upstream connection failed", Err: err}
}

func (u *Upstream) observe(method string, d time.Duration, status int) {
	if u.metrics == nil {
		return
	}
	u.metrics.UpstreamDuration.WithLabelValues(u.name, method).Observe(d.Seconds())
	if status != 0 {
		u.metrics.UpstreamResponses.WithLabelValues(u.name, method, strconv.Itoa(status)).Inc()
	}
}

func (u *Upstream) fail(reason string) {
	if u.metrics != nil {
		u.metrics.UpstreamFailures.WithLabelValues(u.name, reason).Inc()
	}
}

// retryable reports whether a GET may be attempted again after err.
func retryable(err error) bool {
	if apperr.KindOf(err) == apperr.KindTimeout {
		return true
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	if ue.StatusCode == 0 {
		return ue.Err != nil
	}
	return ue.StatusCode >= 500
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to replay recorded
// provider traffic in tests.
func (u *Upstream) WithHTTPClient(c *http.Client) *Upstream {
	u.httpClient = c
	return u
}
