package report

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// Outcome classifies a background sync attempt.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeUnreachable   Outcome = "unreachable"
	OutcomeTimeout       Outcome = "timeout"
	OutcomeRequestFailed Outcome = "request_failed"
	OutcomeSuperseded    Outcome = "superseded"
)

// Sync operations.
const (
	OpCreate = "create"
	OpLoad   = "load"
	OpPoll   = "poll"
)

// SyncResult is the inspectable result of one background sync task. The
// caller-facing operation that started it has already succeeded locally.
type SyncResult struct {
	Op       string
	ReportID string
	Outcome  Outcome
	Reason   string
	Items    int
	Duration time.Duration
}

// OK reports whether the sync reached the remote and was accepted.
func (r SyncResult) OK() bool { return r.Outcome == OutcomeSuccess }

// goSync runs task in a goroutine bound to the store lifetime and records
// its result.
func (s *Store) goSync(task func(ctx context.Context) SyncResult) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.record(task(s.bgCtx))
	}()
}

func (s *Store) record(res SyncResult) {
	s.metrics.SyncOutcomes.WithLabelValues(res.Op, string(res.Outcome)).Inc()
	attrs := []any{"op", res.Op, "outcome", res.Outcome, "duration", res.Duration}
	if res.ReportID != "" {
		attrs = append(attrs, "report_id", res.ReportID)
	}
	if res.Reason != "" {
		attrs = append(attrs, "reason", res.Reason)
	}
	if res.OK() {
		s.logger.Debug("remote sync finished", attrs...)
	} else {
		s.logger.Info("remote sync skipped", attrs...)
	}
	if s.onSync != nil {
		s.onSync(res)
	}
}

// probe checks remote reachability within the health timeout.
func (s *Store) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Health)
	defer cancel()
	start := time.Now()
	err := s.remote.Ping(ctx)
	s.metrics.RemoteRequestDuration.WithLabelValues("health").Observe(time.Since(start).Seconds())
	return err
}

func (s *Store) syncCreate(ctx context.Context, id string, body domain.Draft) SyncResult {
	start := time.Now()
	res := SyncResult{Op: OpCreate, ReportID: id}

	if err := s.probe(ctx); err != nil {
		return finish(res, start, classifyProbe(err))
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()
	callStart := time.Now()
	err := s.remote.CreateReport(callCtx, body)
	s.metrics.RemoteRequestDuration.WithLabelValues(OpCreate).Observe(time.Since(callStart).Seconds())
	if err != nil {
		return finish(res, start, classifyRequest(err))
	}
	return finish(res, start, SyncResult{Outcome: OutcomeSuccess})
}

// syncLoad fetches the remote list and, on success, replaces local state.
// The replace is wholesale even if a local mutation landed meanwhile.
func (s *Store) syncLoad(ctx context.Context) SyncResult {
	start := time.Now()
	res := SyncResult{Op: OpLoad}

	if err := s.probe(ctx); err != nil {
		return finish(res, start, classifyProbe(err))
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeouts.Load)
	defer cancel()
	callStart := time.Now()
	items, err := s.remote.ListReports(callCtx)
	s.metrics.RemoteRequestDuration.WithLabelValues(OpLoad).Observe(time.Since(callStart).Seconds())
	if err != nil {
		return finish(res, start, classifyRequest(err))
	}
	if items == nil {
		items = []domain.Report{}
	}

	s.mu.Lock()
	s.reports = items
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Info("report store replaced from remote", "reports", len(items))
	return finish(res, start, SyncResult{Outcome: OutcomeSuccess, Items: len(items)})
}

func finish(base SyncResult, start time.Time, outcome SyncResult) SyncResult {
	base.Outcome = outcome.Outcome
	base.Reason = outcome.Reason
	base.Items = outcome.Items
	base.Duration = time.Since(start)
	return base
}

// classifyProbe maps a failed health probe to unreachable or timeout.
func classifyProbe(err error) SyncResult {
	if isTimeout(err) {
		return SyncResult{Outcome: OutcomeTimeout, Reason: err.Error()}
	}
	return SyncResult{Outcome: OutcomeUnreachable, Reason: err.Error()}
}

// classifyRequest maps a failed CRUD call to timeout or request_failed.
func classifyRequest(err error) SyncResult {
	if isTimeout(err) {
		return SyncResult{Outcome: OutcomeTimeout, Reason: err.Error()}
	}
	return SyncResult{Outcome: OutcomeRequestFailed, Reason: err.Error()}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
