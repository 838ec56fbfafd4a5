//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/oceaneye-service/internal/adapter/kafka"
	"github.com/couchcryptid/oceaneye-service/internal/adapter/storage"
	"github.com/couchcryptid/oceaneye-service/internal/config"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
	"github.com/couchcryptid/oceaneye-service/internal/report"
)

const testTopic = "test-report-events"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

type received struct {
	Key     string
	Type    string
	Payload map[string]any
}

func readMessage(ctx context.Context, t *testing.T, r *kafkago.Reader) received {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := r.ReadMessage(readCtx)
	require.NoError(t, err, "read report event")

	out := received{Key: string(msg.Key)}
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			out.Type = string(h.Value)
		}
	}
	require.NoError(t, json.Unmarshal(msg.Value, &out.Payload))
	return out
}

// TestReportEventsReachKafka drives the store through a submit and an
// approval and checks the events and the approval notice land on the topic
// in order.
func TestReportEventsReachKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaReportsTopic: testTopic}

	publisher := kafka.NewPublisher(cfg, logger, metrics)
	store := report.New(storage.NewMemory(), nil, logger, metrics,
		report.WithEventSink(publisher),
		report.WithNotifier(publisher),
	)
	store.Load(ctx)

	r := store.Submit(ctx, domain.Draft{
		Type: "Storm Surge", Description: "Surge over the promenade", Location: "12.80, 80.30", ReporterName: "IMD",
	})
	_, err := store.UpdateStatus(ctx, r.ID, domain.StatusApproved)
	require.NoError(t, err)

	store.Close()
	require.NoError(t, publisher.Close(), "flush publisher")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	defer consumer.Close()

	created := readMessage(ctx, t, consumer)
	assert.Equal(t, string(domain.ReportCreated), created.Type)
	assert.Equal(t, r.ID, created.Key)

	changed := readMessage(ctx, t, consumer)
	assert.Equal(t, string(domain.ReportStatusChanged), changed.Type)
	body, ok := changed.Payload["report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "approved", body["status"])

	notice := readMessage(ctx, t, consumer)
	assert.Equal(t, kafka.NotificationEventType, notice.Type)
	assert.Equal(t, "Report Approved", notice.Payload["title"])
	assert.Equal(t, "Report (Storm Surge) by IMD has been approved.", notice.Payload["message"])
}
