package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(StaticBaseURL(srv.URL+"/"), srv.Client(), discardLogger())
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, newTestClient(srv).Ping(context.Background()))
}

func TestPing_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient(srv).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(StaticBaseURL(url), nil, discardLogger())
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.False(t, domain.IsAPIError(err))
}

func TestPing_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newTestClient(srv).Ping(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestListReports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/reports", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"items":[{"id":"srv-1","type":"Flood","description":"d","location":"13.05, 80.28","status":"approved","priority":"high","reporterId":"u1","timestamp":"2025-01-01T00:00:00Z"}]}`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv).ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "srv-1", items[0].ID)
	assert.Equal(t, domain.StatusApproved, items[0].Status)
	assert.Equal(t, domain.PriorityHigh, items[0].Priority)
}

func TestListReports_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"database offline"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListReports(context.Background())
	require.Error(t, err)
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "database offline", apiErr.Message)
}

func TestListReports_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListReports(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsAPIError(err))
}

func TestCreateReport(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	lat, lng := 12.9, 77.5
	err := newTestClient(srv).CreateReport(context.Background(), domain.Draft{
		Type: "high-waves", Description: "swell", Location: "12.9,77.5", ReporterID: "u1", Lat: &lat, Lng: &lng,
	})
	require.NoError(t, err)
	assert.Equal(t, "high-waves", got["type"])
	assert.Equal(t, "u1", got["reporterId"])
	assert.NotContains(t, got, "id")
	assert.NotContains(t, got, "status")
	assert.NotContains(t, got, "priority")
	assert.NotContains(t, got, "timestamp")
}

func TestCreateReport_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv).CreateReport(context.Background(), domain.Draft{Type: "x"})
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestSignup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/signup", r.URL.Path)
		var req SignupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.RoleOfficial, req.Role)
		w.Write([]byte(`{"ok":true,"user":{"id":"u-9","name":"Ravi","email":"ravi@example.com","phone":"+91-1","role":"official"}}`))
	}))
	defer srv.Close()

	user, err := newTestClient(srv).Signup(context.Background(), SignupRequest{
		Name: "Ravi", Email: "ravi@example.com", Phone: "+91-1", Password: "pw", Role: domain.RoleOfficial,
	})
	require.NoError(t, err)
	assert.Equal(t, "u-9", user.ID)
	assert.Equal(t, domain.RoleOfficial, user.Role)
}

func TestLogin_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Login(context.Background(), "ravi@example.com", "wrong")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Login failed (401)", apiErr.Message)
}

func TestBaseURLFollowsOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base := "http://127.0.0.1:1"
	c := NewClient(func() string { return base }, srv.Client(), discardLogger())
	require.Error(t, c.Ping(context.Background()))

	base = srv.URL
	assert.NoError(t, c.Ping(context.Background()))
}
