package report

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at info level.
func (n *LogNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.logger.Info(note.Message, "title", note.Title, "level", note.Level, "report_id", note.ReportID)
	return nil
}

// Notifiers fans a notification out to several notifiers. Every notifier is
// tried; the first error is returned.
type Notifiers []Notifier

// Notify delivers note to each notifier in order.
func (ns Notifiers) Notify(ctx context.Context, note domain.Notification) error {
	var first error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, note); err != nil && first == nil {
			first = err
		}
	}
	return first
}
