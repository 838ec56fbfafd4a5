// Package feed merges external hazard sources into deduplicated,
// newest-first snapshots.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/geo"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
)

// Source fetches the current items of one external feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.FeedItem, error)
}

// Cache stores the last merged snapshot of a feed.
type Cache interface {
	Get(ctx context.Context, feed string) ([]domain.FeedItem, bool, error)
	Set(ctx context.Context, feed string, items []domain.FeedItem) error
}

// Snapshot is the merged result of one refresh. Errors maps a source name
// to its failure message and omits sources that succeeded.
type Snapshot struct {
	Items     []domain.FeedItem `json:"items"`
	Errors    map[string]string `json:"errors"`
	UpdatedAt time.Time         `json:"updated_at"`
	// Cached is set when every source failed and the items came from the
	// snapshot cache.
	Cached bool `json:"cached,omitempty"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLimit caps the number of items kept after sorting. Zero keeps all.
func WithLimit(n int) Option { return func(a *Aggregator) { a.limit = n } }

// WithCache sets the snapshot cache.
func WithCache(c Cache) Option { return func(a *Aggregator) { a.cache = c } }

// WithFetchTimeout bounds each source fetch.
func WithFetchTimeout(d time.Duration) Option { return func(a *Aggregator) { a.timeout = d } }

// Aggregator fetches its sources concurrently and keeps the latest merged
// snapshot.
type Aggregator struct {
	name    string
	sources []Source
	limit   int
	timeout time.Duration
	cache   Cache
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.RWMutex
	snap  Snapshot
	ready atomic.Bool
}

// New creates an aggregator named name over sources.
func New(name string, sources []Source, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Aggregator {
	a := &Aggregator{
		name:    name,
		sources: sources,
		timeout: 15 * time.Second,
		logger:  logger.With("feed", name),
		metrics: metrics,
		snap:    Snapshot{Items: []domain.FeedItem{}, Errors: map[string]string{}},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the feed name.
func (a *Aggregator) Name() string { return a.name }

// CheckReadiness returns nil once the first refresh has completed.
func (a *Aggregator) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return fmt.Errorf("feed %s has not refreshed yet", a.name)
	}
	return nil
}

// Refresh fetches every source, merges the results and stores the snapshot.
// A failing source contributes no items and an entry in Errors.
func (a *Aggregator) Refresh(ctx context.Context) Snapshot {
	results := make([][]domain.FeedItem, len(a.sources))
	errs := make([]error, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			results[i], errs[i] = src.Fetch(fetchCtx)
		}(i, src)
	}
	wg.Wait()

	snap := Snapshot{Errors: map[string]string{}, UpdatedAt: domain.Now()}
	var merged []domain.FeedItem
	for i, src := range a.sources {
		if errs[i] != nil {
			snap.Errors[src.Name()] = errs[i].Error()
			a.metrics.FeedFetches.WithLabelValues(src.Name(), "error").Inc()
			a.logger.Warn("feed source failed", "source", src.Name(), "error", errs[i])
			continue
		}
		a.metrics.FeedFetches.WithLabelValues(src.Name(), "success").Inc()
		merged = append(merged, results[i]...)
	}

	allFailed := len(a.sources) > 0 && len(snap.Errors) == len(a.sources)
	if allFailed {
		if cached, ok := a.fromCache(ctx); ok {
			merged = cached
			snap.Cached = true
		}
	}
	snap.Items = Merge(merged, a.limit)

	// A refresh interrupted by shutdown keeps the previous snapshot.
	if errors.Is(ctx.Err(), context.Canceled) {
		return snap
	}
	if !allFailed && a.cache != nil {
		if err := a.cache.Set(ctx, a.name, snap.Items); err != nil {
			a.logger.Warn("feed cache write failed", "error", err)
		}
	}

	a.mu.Lock()
	a.snap = snap
	a.mu.Unlock()
	a.ready.Store(true)
	a.metrics.FeedItems.WithLabelValues(a.name).Set(float64(len(snap.Items)))
	a.logger.Debug("feed refreshed", "items", len(snap.Items), "errors", len(snap.Errors), "cached", snap.Cached)
	return snap
}

func (a *Aggregator) fromCache(ctx context.Context) ([]domain.FeedItem, bool) {
	if a.cache == nil {
		return nil, false
	}
	items, ok, err := a.cache.Get(ctx, a.name)
	if err != nil {
		a.logger.Warn("feed cache read failed", "error", err)
		return nil, false
	}
	if ok {
		a.metrics.FeedFetches.WithLabelValues(a.name, "cached").Inc()
	}
	return items, ok
}

// Snapshot returns a copy of the latest snapshot.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := a.snap
	out.Items = make([]domain.FeedItem, len(a.snap.Items))
	copy(out.Items, a.snap.Items)
	out.Errors = make(map[string]string, len(a.snap.Errors))
	for k, v := range a.snap.Errors {
		out.Errors[k] = v
	}
	return out
}

// Items returns the items of the latest snapshot.
func (a *Aggregator) Items() []domain.FeedItem {
	return a.Snapshot().Items
}

// Nearby returns the latest items within radiusKm of center, newest first.
// Items without a position are excluded.
func (a *Aggregator) Nearby(center domain.Geo, radiusKm float64) []domain.FeedItem {
	return WithinRadius(a.Items(), center, radiusKm)
}

// WithinRadius filters items to those positioned within radiusKm of center,
// keeping their order.
func WithinRadius(items []domain.FeedItem, center domain.Geo, radiusKm float64) []domain.FeedItem {
	out := make([]domain.FeedItem, 0, len(items))
	for _, it := range items {
		if it.Position == nil {
			continue
		}
		if geo.HaversineKm(center, *it.Position) <= radiusKm {
			out = append(out, it)
		}
	}
	return out
}

// Merge removes duplicate ids, keeping the first occurrence, sorts newest
// first and applies limit when positive.
func Merge(items []domain.FeedItem, limit int) []domain.FeedItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.FeedItem, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published.After(out[j].Published)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
