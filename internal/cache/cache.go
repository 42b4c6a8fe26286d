// Package cache memoizes idempotent upstream lookups such as location searches.
package cache

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"influence-gateway/internal/metrics"
)

// Store is a key-value container for cached lookup results.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Memo provides get-or-fetch-and-store semantics over a Store. Concurrent
// fetches for the same key are collapsed into one upstream call.
type Memo struct {
	store   Store
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewMemo creates a Memo. The metrics parameter is optional.
func NewMemo(store Store, logger *slog.Logger, m *metrics.Metrics) *Memo {
	return &Memo{
		store:   store,
		logger:  logger.With("component", "location_cache"),
		metrics: m,
	}
}

// GetOrFetch returns the cached value for key, or calls fetch and stores its
// result. Store failures are logged and treated as a miss; fetch failures are
// returned and never cached.
func (m *Memo) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	v, ok, err := m.store.Get(ctx, key)
	switch {
	case err != nil:
		m.count("error")
		m.logger.Warn("cache get failed", "key", key, "err", err)
	case ok:
		m.count("hit")
		return v, nil
	default:
		m.count("miss")
	}

	res, err, _ := m.group.Do(key, func() (any, error) {
		// The first caller may disconnect while others wait on the same key.
		fctx := context.WithoutCancel(ctx)
		data, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		if err := m.store.Set(fctx, key, data); err != nil {
			m.logger.Warn("cache set failed", "key", key, "err", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (m *Memo) count(result string) {
	if m.metrics != nil {
		m.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
