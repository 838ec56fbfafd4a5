// Package report owns the canonical list of hazard reports for a running
// service. Mutations apply locally and immediately; the remote OceanEye API
// is mirrored on a best-effort basis and only wins once, at load time.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
)

// StorageKey is the KV key holding the JSON array of reports.
const StorageKey = "oceaneye-reports"

// ErrNotFound is returned when no report has the requested id.
var ErrNotFound = errors.New("report not found")

// Remote is the subset of the OceanEye API the store mirrors to.
type Remote interface {
	Ping(ctx context.Context) error
	ListReports(ctx context.Context) ([]domain.Report, error)
	CreateReport(ctx context.Context, d domain.Draft) error
}

// Identity supplies the device-scoped reporter id used when a draft has none.
type Identity interface {
	ReporterID(ctx context.Context) string
}

// Notifier delivers user-visible notifications such as report approvals.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// EventSink receives an event after every applied mutation.
type EventSink interface {
	Publish(ctx context.Context, ev domain.ReportEvent) error
}

// Timeouts bound each kind of remote call.
type Timeouts struct {
	Health time.Duration
	Load   time.Duration
	Write  time.Duration
}

// DefaultTimeouts mirrors the web client: a short probe, longer CRUD calls.
var DefaultTimeouts = Timeouts{
	Health: 1500 * time.Millisecond,
	Load:   4 * time.Second,
	Write:  5 * time.Second,
}

// Option customizes a Store.
type Option func(*Store)

// WithNotifier sets where approval notifications go. Defaults to the log.
func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

// WithEventSink publishes report events after each mutation.
func WithEventSink(e EventSink) Option { return func(s *Store) { s.events = e } }

// WithIdentity sets the fallback reporter identity.
func WithIdentity(id Identity) Option { return func(s *Store) { s.identity = id } }

// WithTimeouts overrides DefaultTimeouts.
func WithTimeouts(t Timeouts) Option { return func(s *Store) { s.timeouts = t } }

// WithSyncObserver is called with the result of every background sync task.
func WithSyncObserver(fn func(SyncResult)) Option { return func(s *Store) { s.onSync = fn } }

// WithIDGenerator replaces the random report id source.
func WithIDGenerator(fn func() string) Option { return func(s *Store) { s.newID = fn } }

// Store is the local-first report collection.
type Store struct {
	kv       domain.KV
	remote   Remote
	identity Identity
	notifier Notifier
	events   EventSink
	logger   *slog.Logger
	metrics  *observability.Metrics
	timeouts Timeouts
	newID    func() string
	onSync   func(SyncResult)

	mu      sync.Mutex
	reports []domain.Report // newest first
	loaded  atomic.Bool

	// Background sync goroutines run under bgCtx and are tracked by wg.
	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

// New creates an empty Store. Call Load before serving traffic. remote may
// be nil, in which case the store runs local-only.
func New(kv domain.KV, remote Remote, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		kv:       kv,
		remote:   remote,
		logger:   logger,
		metrics:  metrics,
		timeouts: DefaultTimeouts,
		newID:    func() string { return "r_" + uuid.NewString() },
		bgCtx:    ctx,
		bgCancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(logger)
	}
	return s
}

// Load hydrates the store from the KV synchronously, then starts a
// background fetch from the remote. A malformed or missing snapshot yields an
// empty store. A successful remote fetch replaces the local list wholesale.
func (s *Store) Load(ctx context.Context) {
	reports := s.readSnapshot(ctx)

	s.mu.Lock()
	s.reports = reports
	s.metrics.ReportsStored.Set(float64(len(reports)))
	s.mu.Unlock()
	s.loaded.Store(true)

	s.logger.Info("report store hydrated", "reports", len(reports))

	if s.remote == nil {
		return
	}
	s.goSync(func(ctx context.Context) SyncResult { return s.syncLoad(ctx) })
}

func (s *Store) readSnapshot(ctx context.Context) []domain.Report {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("read report snapshot failed", "error", err)
		return []domain.Report{}
	}
	if !ok || raw == "" {
		return []domain.Report{}
	}
	var reports []domain.Report
	if err := json.Unmarshal([]byte(raw), &reports); err != nil || reports == nil {
		s.logger.Warn("discarding malformed report snapshot", "error", err)
		return []domain.Report{}
	}
	return reports
}

// Submit builds a pending, medium-priority report from d, prepends it, and
// returns it. The remote mirror happens in the background and never affects
// the result.
func (s *Store) Submit(ctx context.Context, d domain.Draft) domain.Report {
	reporterID := d.ReporterID
	if reporterID == "" && s.identity != nil {
		reporterID = s.identity.ReporterID(ctx)
	}
	r := domain.NewReport(s.newID(), reporterID, d)

	s.mu.Lock()
	s.reports = append([]domain.Report{r}, s.reports...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.metrics.ReportsSubmitted.Inc()
	s.logger.Info("report submitted", "report_id", r.ID, "type", r.Type)
	s.publish(domain.ReportEvent{Type: domain.ReportCreated, ReportID: r.ID, Report: &r, OccurredAt: r.Timestamp})

	if s.remote != nil {
		body := remoteDraft(r)
		s.goSync(func(ctx context.Context) SyncResult { return s.syncCreate(ctx, r.ID, body) })
	}
	return r
}

// UpdateStatus sets the status of report id. Any status may follow any
// other; moving into approved from a different status sends one approval
// notification.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Report, error) {
	if !status.Valid() {
		return domain.Report{}, fmt.Errorf("invalid status %q", status)
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Report{}, fmt.Errorf("update status %s: %w", id, ErrNotFound)
	}
	prev := s.reports[i].Status
	s.reports[i].Status = status
	updated := s.reports[i]
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.metrics.ReportStatusChanges.WithLabelValues(string(status)).Inc()
	s.publish(domain.ReportEvent{Type: domain.ReportStatusChanged, ReportID: id, Report: &updated, OccurredAt: domain.Now()})

	if status == domain.StatusApproved && prev != domain.StatusApproved {
		s.metrics.ReportApprovals.Inc()
		if err := s.notifier.Notify(ctx, domain.ApprovalNotification(updated)); err != nil {
			s.logger.Warn("approval notification failed", "report_id", id, "error", err)
		}
	}
	return updated, nil
}

// UpdatePriority sets the priority of report id.
func (s *Store) UpdatePriority(ctx context.Context, id string, priority domain.Priority) (domain.Report, error) {
	if !priority.Valid() {
		return domain.Report{}, fmt.Errorf("invalid priority %q", priority)
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Report{}, fmt.Errorf("update priority %s: %w", id, ErrNotFound)
	}
	s.reports[i].Priority = priority
	updated := s.reports[i]
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(domain.ReportEvent{Type: domain.ReportPriorityChanged, ReportID: id, Report: &updated, OccurredAt: domain.Now()})
	return updated, nil
}

// ClearAll removes every report.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.reports = []domain.Report{}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Info("reports cleared")
	s.publish(domain.ReportEvent{Type: domain.ReportsCleared, OccurredAt: domain.Now()})
}

// Reports returns a copy of the collection, newest first.
func (s *Store) Reports() []domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Get returns the report with the given id.
func (s *Store) Get(id string) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.reports[i], nil
	}
	return domain.Report{}, ErrNotFound
}

// CheckReadiness returns nil once the local snapshot has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	if !s.loaded.Load() {
		return errors.New("report store has not loaded yet")
	}
	return nil
}

// Close cancels in-flight background syncs and waits for them to return.
func (s *Store) Close() {
	s.bgCancel()
	s.wg.Wait()
}

func (s *Store) indexLocked(id string) int {
	for i := range s.reports {
		if s.reports[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the current collection to the KV. Failures are logged;
// the in-memory state stays authoritative for the session.
func (s *Store) persistLocked(ctx context.Context) {
	s.metrics.ReportsStored.Set(float64(len(s.reports)))
	data, err := json.Marshal(s.reports)
	if err != nil {
		s.logger.Error("encode reports failed", "error", err)
		return
	}
	if err := s.kv.Set(context.WithoutCancel(ctx), StorageKey, string(data)); err != nil {
		s.logger.Warn("persist reports failed", "error", err)
	}
}

func (s *Store) publish(ev domain.ReportEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(s.bgCtx, ev); err != nil {
		s.logger.Warn("publish report event failed", "type", ev.Type, "report_id", ev.ReportID, "error", err)
	}
}

// remoteDraft is the create payload: every caller-facing field except the
// locally assigned id, status, priority, and timestamp.
func remoteDraft(r domain.Report) domain.Draft {
	return domain.Draft{
		Type:         r.Type,
		Description:  r.Description,
		Location:     r.Location,
		PhotoRef:     r.PhotoRef,
		VideoRef:     r.VideoRef,
		CommentsText: r.CommentsText,
		ReporterID:   r.ReporterID,
		ReporterName: r.ReporterName,
		Lat:          r.Lat,
		Lng:          r.Lng,
	}
}
