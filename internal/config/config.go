// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/influence-gateway/config.toml",
	"configs/config.toml",
}

// Upstream target names. They appear in logs, metrics labels and
// "not configured" errors.
const (
	TargetBackend      = "backend"
	TargetSocialSearch = "social_search"
	TargetAnalytics    = "analytics"
	TargetVideo        = "video"
	TargetLLM          = "llm"
)

// Auth schemes for upstream targets.
const (
	SchemeBearerPassthrough = "bearer_passthrough"
	SchemeBearer            = "bearer"
	SchemeHeader            = "header"
	SchemeBasic             = "basic"
	SchemeQuery             = "query"
	SchemeNone              = "none"
)

const placeholderSecret = "YOUR_API_KEY_HERE"

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config     string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	EnvFile    string `kong:"help='Optional .env file with upstream secrets.',default='.env',env='ENV_FILE'"`
	Host       string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port       int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	BackendURL string `kong:"help='Backend base URL (overrides config).',env='BACKEND_URL'"`
	RedisURL   string `kong:"help='Redis URL for the location cache (overrides config).',env='REDIS_URL'"`
	LogLevel   string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Upstreams UpstreamsConfig `toml:"upstreams"`
	Cache     CacheConfig     `toml:"cache"`
	Insights  InsightsConfig  `toml:"insights"`
	Log       LogConfig       `toml:"log"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Tracing   TracingConfig   `toml:"tracing"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8080); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// UpstreamsConfig lists every upstream the gateway can call.
type UpstreamsConfig struct {
	Backend      UpstreamConfig `toml:"backend"`
	SocialSearch UpstreamConfig `toml:"social_search"`
	Analytics    UpstreamConfig `toml:"analytics"`
	Video        UpstreamConfig `toml:"video"`
	LLM          UpstreamConfig `toml:"llm"`
}

// UpstreamConfig describes one upstream target. Base URL and auth are fixed
// at startup.
type UpstreamConfig struct {
	BaseURL          string      `toml:"base_url"`
	TimeoutSeconds   int         `toml:"timeout_seconds"`
	IdleConnections  int         `toml:"idle_connections"`
	MaxResponseBytes int64       `toml:"max_response_bytes"`
	Auth             AuthConfig  `toml:"auth"`
	Retry            RetryConfig `toml:"retry"`
}

// AuthConfig selects how requests to an upstream are authenticated.
type AuthConfig struct {
	Scheme    string `toml:"scheme"`
	Header    string `toml:"header"`     // scheme=header
	Param     string `toml:"param"`      // scheme=query
	Username  string `toml:"username"`   // scheme=basic
	Secret    string `toml:"secret"`     // static secret; prefer secret_env
	SecretEnv string `toml:"secret_env"` // env var holding the secret
}

// RetryConfig is the optional bounded retry for idempotent GET calls.
// MaxAttempts of 0 or 1 disables retries.
type RetryConfig struct {
	MaxAttempts   int `toml:"max_attempts"`
	BackoffMillis int `toml:"backoff_ms"`
}

// CacheConfig selects the location cache backend.
type CacheConfig struct {
	Backend    string `toml:"backend"` // memory|redis
	Size       int    `toml:"size"`
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// InsightsConfig holds language-model summarization settings.
type InsightsConfig struct {
	SummaryModel    string `toml:"summary_model"`
	SummaryMaxWords int    `toml:"summary_max_words"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// Load reads the TOML config file, resolves secrets from the environment and
// applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/influence-gateway/config.toml then configs/config.toml.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return nil, fmt.Errorf("config: no config file found (searched %v)", configSearchPaths)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.filePath = path
	cfg.applyCLI(cli)
	cfg.resolveSecrets(os.Getenv)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.BackendURL != "" {
		c.Upstreams.Backend.BaseURL = cli.BackendURL
	}
	if cli.RedisURL != "" {
		c.Cache.RedisURL = cli.RedisURL
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

// resolveSecrets fills each upstream secret from its secret_env variable.
// A non-empty environment value wins over a secret written in the file.
func (c *Config) resolveSecrets(getenv func(string) string) {
	for _, u := range c.Upstreams.All() {
		if u.Auth.SecretEnv == "" {
			continue
		}
		if v := strings.TrimSpace(getenv(u.Auth.SecretEnv)); v != "" {
			u.Auth.Secret = v
		}
	}
}

func (c *Config) validate() error {
	// Backend URL: required.
	if c.Upstreams.Backend.BaseURL == "" {
		return fmt.Errorf("upstreams.backend.base_url is required")
	}

	for name, u := range c.Upstreams.All() {
		if err := u.validate(name); err != nil {
			return err
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Cache.
	switch strings.ToLower(c.Cache.Backend) {
	case "", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be one of: memory, redis; got %q", c.Cache.Backend)
	}
	if c.Cache.Size < 0 || c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.size and cache.ttl_seconds must be non-negative")
	}
	if c.Insights.SummaryMaxWords < 0 {
		return fmt.Errorf("insights.summary_max_words must be non-negative; got %d", c.Insights.SummaryMaxWords)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/api", "/healthz", "/gateway/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

func (u *UpstreamConfig) validate(name string) error {
	if u.Auth.Secret == placeholderSecret {
		return fmt.Errorf("upstreams.%s.auth.secret contains placeholder value", name)
	}
	if u.BaseURL != "" {
		parsed, err := url.Parse(u.BaseURL)
		if err != nil {
			return fmt.Errorf("upstreams.%s.base_url is not a valid URL: %w", name, err)
		}
		if parsed.Scheme != "https" {
			return fmt.Errorf("upstreams.%s.base_url must use HTTPS; got %q", name, u.BaseURL)
		}
	}
	if u.TimeoutSeconds < 0 {
		return fmt.Errorf("upstreams.%s.timeout_seconds must be non-negative; got %d", name, u.TimeoutSeconds)
	}
	if u.IdleConnections < 0 {
		return fmt.Errorf("upstreams.%s.idle_connections must be non-negative; got %d", name, u.IdleConnections)
	}
	if u.MaxResponseBytes < 0 {
		return fmt.Errorf("upstreams.%s.max_response_bytes must be non-negative; got %d", name, u.MaxResponseBytes)
	}
	if u.Retry.MaxAttempts < 0 || u.Retry.MaxAttempts > 2 {
		return fmt.Errorf("upstreams.%s.retry.max_attempts must be 0–2; got %d", name, u.Retry.MaxAttempts)
	}

	switch strings.ToLower(u.Auth.Scheme) {
	case "", SchemeBearerPassthrough, SchemeBearer, SchemeNone:
	case SchemeHeader:
		if u.Auth.Header == "" {
			return fmt.Errorf("upstreams.%s.auth.header is required for scheme %q", name, SchemeHeader)
		}
	case SchemeQuery:
		if u.Auth.Param == "" {
			return fmt.Errorf("upstreams.%s.auth.param is required for scheme %q", name, SchemeQuery)
		}
	case SchemeBasic:
		if u.Auth.Username == "" {
			return fmt.Errorf("upstreams.%s.auth.username is required for scheme %q", name, SchemeBasic)
		}
	default:
		return fmt.Errorf("upstreams.%s.auth.scheme %q is not supported", name, u.Auth.Scheme)
	}
	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}

	if c.Upstreams.Backend.Auth.Scheme == "" {
		c.Upstreams.Backend.Auth.Scheme = SchemeBearerPassthrough
	}
	// Discovery-style calls use a short bounded wait.
	c.Upstreams.Backend.setDefaults(30)
	c.Upstreams.SocialSearch.setDefaults(10)
	c.Upstreams.Analytics.setDefaults(10)
	c.Upstreams.Video.setDefaults(60)
	c.Upstreams.LLM.setDefaults(60)

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if c.Cache.Size == 0 {
		c.Cache.Size = 1024
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 24 * 60 * 60
	}

	if c.Insights.SummaryModel == "" {
		c.Insights.SummaryModel = "gpt-4o-mini"
	}
	if c.Insights.SummaryMaxWords == 0 {
		c.Insights.SummaryMaxWords = 120
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "influence-gateway"
	}
}

func (u *UpstreamConfig) setDefaults(timeoutSeconds int) {
	if u.Auth.Scheme == "" {
		u.Auth.Scheme = SchemeNone
	}
	u.Auth.Scheme = strings.ToLower(u.Auth.Scheme)
	if u.TimeoutSeconds == 0 {
		u.TimeoutSeconds = timeoutSeconds
	}
	if u.IdleConnections == 0 {
		u.IdleConnections = 100
	}
	if u.MaxResponseBytes == 0 {
		u.MaxResponseBytes = 10 * 1024 * 1024
	}
	if u.Retry.BackoffMillis == 0 {
		u.Retry.BackoffMillis = 200
	}
}

// All returns every upstream keyed by target name.
func (u *UpstreamsConfig) All() map[string]*UpstreamConfig {
	return map[string]*UpstreamConfig{
		TargetBackend:      &u.Backend,
		TargetSocialSearch: &u.SocialSearch,
		TargetAnalytics:    &u.Analytics,
		TargetVideo:        &u.Video,
		TargetLLM:          &u.LLM,
	}
}

// Configured reports whether the target can be called: it has a base URL and,
// for schemes that need one, a secret.
func (u *UpstreamConfig) Configured() bool {
	if u.BaseURL == "" {
		return false
	}
	switch u.Auth.Scheme {
	case SchemeBearer, SchemeHeader, SchemeBasic, SchemeQuery:
		return u.Auth.Secret != ""
	}
	return true
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
// The file may hold upstream secrets.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
