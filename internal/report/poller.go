package report

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
)

// Lister fetches the remote report list.
type Lister interface {
	ListReports(ctx context.Context) ([]domain.Report, error)
}

// LiveSource says where a live snapshot came from.
type LiveSource string

const (
	SourceRemote LiveSource = "remote"
	SourceLocal  LiveSource = "local"
)

// LiveSnapshot is the most recent live-reports view.
type LiveSnapshot struct {
	Reports   []domain.Report `json:"reports"`
	Source    LiveSource      `json:"source"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Poller keeps a live view of the remote report list. Starting a refresh
// cancels any refresh still in flight; when the remote fails the view falls
// back to the local store.
type Poller struct {
	remote  Lister
	store   *Store
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	snapshot LiveSnapshot
}

// NewPoller creates a Poller. timeout bounds each refresh.
func NewPoller(remote Lister, store *Store, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		remote:   remote,
		store:    store,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
		snapshot: LiveSnapshot{Reports: []domain.Report{}, Source: SourceLocal},
	}
}

// Refresh fetches the remote list and updates the snapshot. A refresh that
// is superseded by a newer one leaves the snapshot untouched.
func (p *Poller) Refresh(ctx context.Context) SyncResult {
	start := time.Now()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	p.gen++
	gen := p.gen
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	items, err := p.remote.ListReports(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	res := SyncResult{Op: OpPoll}
	if gen != p.gen {
		res = finish(res, start, SyncResult{Outcome: OutcomeSuperseded})
		p.metrics.SyncOutcomes.WithLabelValues(res.Op, string(res.Outcome)).Inc()
		return res
	}
	p.cancel = nil

	if err != nil {
		res = finish(res, start, classifyRequest(err))
		p.snapshot = LiveSnapshot{Reports: p.store.Reports(), Source: SourceLocal, UpdatedAt: domain.Now()}
		p.logger.Debug("live reports fell back to local store", "reason", res.Reason)
	} else {
		if items == nil {
			items = []domain.Report{}
		}
		res = finish(res, start, SyncResult{Outcome: OutcomeSuccess, Items: len(items)})
		p.snapshot = LiveSnapshot{Reports: items, Source: SourceRemote, UpdatedAt: domain.Now()}
	}
	p.metrics.SyncOutcomes.WithLabelValues(res.Op, string(res.Outcome)).Inc()
	return res
}

// Snapshot returns the latest live view.
func (p *Poller) Snapshot() LiveSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.snapshot
	s.Reports = make([]domain.Report, len(p.snapshot.Reports))
	copy(s.Reports, p.snapshot.Reports)
	return s
}

// Stop cancels an in-flight refresh.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
