// Package kafka publishes report events and approval notifications to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/oceaneye-service/internal/config"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
)

const (
	headerEventType  = "event_type"
	headerOccurredAt = "occurred_at"

	// NotificationEventType tags approval notifications on the shared topic.
	NotificationEventType = "notification.approval"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces report events to the configured topic.
// It implements report.EventSink and report.Notifier.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates an asynchronous Kafka producer. Messages are keyed by
// report id so each report's events stay ordered within a partition.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	p := &Publisher{logger: logger, metrics: metrics}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   p.complete,
	}
	return p
}

// Publish writes a report event.
func (p *Publisher) Publish(ctx context.Context, ev domain.ReportEvent) error {
	msg, err := serializeEvent(ev)
	if err != nil {
		return err
	}
	return p.write(ctx, string(ev.Type), msg)
}

// Notify writes an approval notification.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) error {
	msg, err := serializeNotification(n)
	if err != nil {
		return err
	}
	return p.write(ctx, NotificationEventType, msg)
}

func (p *Publisher) write(ctx context.Context, eventType string, msg kafkago.Message) error {
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.EventsPublished.WithLabelValues(eventType, "error").Inc()
		return fmt.Errorf("write %s: %w", eventType, err)
	}
	return nil
}

// complete runs after each async batch is acknowledged or rejected.
func (p *Publisher) complete(msgs []kafkago.Message, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		p.logger.Error("kafka batch failed", "messages", len(msgs), "error", err)
	}
	for i := range msgs {
		p.metrics.EventsPublished.WithLabelValues(headerValue(msgs[i], headerEventType), outcome).Inc()
	}
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeEvent marshals a ReportEvent into a Kafka message.
func serializeEvent(ev domain.ReportEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.ReportID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(ev.Type)},
			{Key: headerOccurredAt, Value: []byte(ev.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}

// serializeNotification marshals a Notification into a Kafka message.
func serializeNotification(n domain.Notification) (kafkago.Message, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(n.ReportID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(NotificationEventType)},
			{Key: headerOccurredAt, Value: []byte(n.SentAt.Format(time.RFC3339))},
		},
	}, nil
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return "unknown"
}
