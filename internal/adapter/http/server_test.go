package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opshttp "github.com/couchcryptid/oceaneye-service/internal/adapter/http"
)

type mockReadiness struct {
	err   error
	calls int
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error {
	m.calls++
	return m.err
}

func get(t *testing.T, srv *opshttp.Server, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]string
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthzReturns200(t *testing.T) {
	srv := opshttp.NewServer(":0", slog.Default(), opshttp.Check{Name: "store", Checker: &mockReadiness{err: errors.New("down")}})

	rec, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenAllReady(t *testing.T) {
	store, feed := &mockReadiness{}, &mockReadiness{}
	srv := opshttp.NewServer(":0", slog.Default(),
		opshttp.Check{Name: "store", Checker: store},
		opshttp.Check{Name: "disaster-feed", Checker: feed},
	)

	rec, body := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, feed.calls)
}

func TestReadyzReturns503NamingEveryFailure(t *testing.T) {
	srv := opshttp.NewServer(":0", slog.Default(),
		opshttp.Check{Name: "store", Checker: &mockReadiness{err: errors.New("report store has not loaded yet")}},
		opshttp.Check{Name: "sqlite", Checker: &mockReadiness{}},
		opshttp.Check{Name: "alerts", Checker: &mockReadiness{err: errors.New("feed alerts has not refreshed yet")}},
	)

	rec, body := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["status"])
	assert.Contains(t, body["error"], "store: report store has not loaded yet")
	assert.Contains(t, body["error"], "alerts: feed alerts has not refreshed yet")
	assert.NotContains(t, body["error"], "sqlite")
}

func TestReadyzWithoutChecksIsReady(t *testing.T) {
	rec, _ := get(t, opshttp.NewServer(":0", slog.Default()), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChecksJoinErrors(t *testing.T) {
	cause := errors.New("ping failed")
	err := opshttp.Checks{{Name: "postgres", Checker: &mockReadiness{err: cause}}}.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := get(t, opshttp.NewServer(":0", slog.Default()), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
