package client

import (
	"fmt"
	"log/slog"
	"sort"

	"influence-gateway/internal/config"
	"influence-gateway/internal/metrics"
)

// Registry holds one Upstream per configured target name.
type Registry struct {
	upstreams map[string]*Upstream
}

// NewRegistry builds an Upstream for every target in cfg. Targets without a
// base URL or secret are still registered so that their endpoints can report
// "not configured".
func NewRegistry(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Registry, error) {
	r := &Registry{upstreams: make(map[string]*Upstream)}
	for name, uc := range cfg.Upstreams.All() {
		u, err := NewUpstream(name, *uc, logger, m)
		if err != nil {
			return nil, err
		}
		if !u.Configured() {
			logger.Warn("upstream not configured; its endpoints will fail", "target", name)
		}
		r.upstreams[name] = u
	}
	return r, nil
}

// NewRegistryFrom wraps already-built upstreams.
func NewRegistryFrom(upstreams ...*Upstream) *Registry {
	r := &Registry{upstreams: make(map[string]*Upstream, len(upstreams))}
	for _, u := range upstreams {
		r.upstreams[u.Name()] = u
	}
	return r
}

// Get returns the upstream registered under name.
func (r *Registry) Get(name string) (*Upstream, error) {
	u, ok := r.upstreams[name]
	if !ok {
		return nil, fmt.Errorf("unknown upstream target %q", name)
	}
	return u, nil
}

// TargetStatus is the configured state of one target.
type TargetStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Status lists every target and whether it is configured, sorted by name.
func (r *Registry) Status() []TargetStatus {
	out := make([]TargetStatus, 0, len(r.upstreams))
	for name, u := range r.upstreams {
		out = append(out, TargetStatus{Name: name, Configured: u.Configured()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
