// Package schedule runs named background tasks at fixed intervals on a
// cron runner. Each registration returns a Ticket that cancels it.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one run of a scheduled job. ctx is cancelled when the ticket is
// cancelled or the scheduler stops.
type Task func(ctx context.Context)

// Scheduler owns a cron runner and the contexts of its tasks.
type Scheduler struct {
	cron   *cron.Cron
	chain  cron.Chain
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	wg     sync.WaitGroup
}

// New creates a stopped scheduler. Panics inside tasks are recovered and
// logged.
func New(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	chain := cron.NewChain(cron.Recover(cl))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		chain:  chain,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Ticket identifies a registered task.
type Ticket struct {
	name    string
	id      cron.EntryID
	cancel  context.CancelFunc
	removed func(cron.EntryID)
	once    sync.Once
}

// Name returns the task name.
func (t *Ticket) Name() string { return t.name }

// Cancel stops future runs and cancels the context of a run in progress.
// It is safe to call more than once.
func (t *Ticket) Cancel() {
	t.once.Do(func() {
		t.removed(t.id)
		t.cancel()
	})
}

// Every registers task to run every interval, starting with one run right
// away. Intervals below one second are rounded up by the cron runner.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) (*Ticket, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule %s: interval must be positive, got %s", name, interval)
	}
	if s.ctx.Err() != nil {
		return nil, errors.New("schedule " + name + ": scheduler stopped")
	}

	ctx, cancel := context.WithCancel(s.ctx)
	job := cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		task(ctx)
	})

	id := s.cron.Schedule(cron.Every(interval), job)
	s.logger.Info("task scheduled", "task", name, "interval", interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.chain.Then(job).Run()
	}()

	return &Ticket{name: name, id: id, cancel: cancel, removed: s.cron.Remove}, nil
}

// Start begins dispatching scheduled runs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Active returns the number of registered tasks.
func (s *Scheduler) Active() int {
	return len(s.cron.Entries())
}

// Stop cancels every task context and waits for running tasks to return, or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// cronLogger routes cron's internal logging to slog. Routine scheduling
// chatter is demoted to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
