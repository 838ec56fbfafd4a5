package tsunami

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

func openFixture(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Open("testdata/events.xml")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParse(t *testing.T) {
	items, err := Parse(openFixture(t))
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "atom|urn:uuid:11111111-1111-4111-8111-111111111111", first.ID)
	assert.Equal(t, "Tsunami Information Statement Number 1", first.Title)
	assert.Equal(t, "https://www.tsunami.gov/events/PAAQ/2025/03/01/abc/1/WEAK51/WEAK51.txt", first.Link)
	assert.Equal(t, "A tsunami is not expected.", first.Summary)
	assert.True(t, first.Published.Equal(time.Date(2025, 3, 1, 9, 45, 0, 0, time.UTC)))
	assert.Equal(t, SourceLabel, first.Source)
	require.NotNil(t, first.Position)
	assert.Equal(t, domain.Geo{Lat: 51.2, Lng: -178.5}, *first.Position)

	second := items[1]
	assert.Equal(t, "Update", second.Title)
	assert.Equal(t, "#", second.Link)
	assert.Equal(t, "Earthquake evaluation in progress.", second.Summary)
	assert.True(t, second.Published.Equal(time.Date(2025, 2, 28, 18, 0, 0, 0, time.UTC)))
	assert.Nil(t, second.Position)
}

func TestParse_EntriesWithoutIDStayDistinct(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Tsunami bulletins</title>
  <entry><title>Tsunami Information Statement</title><updated>2025-03-01T10:00:00Z</updated></entry>
  <entry><title>Tsunami Advisory</title><updated>2025-03-01T11:00:00Z</updated></entry>
  <entry><title>Linked bulletin</title><link href="https://www.tsunami.gov/events/x"/><updated>2025-03-01T12:00:00Z</updated></entry>
</feed>`

	items, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, items, 3)

	seen := map[string]bool{}
	for _, it := range items {
		assert.NotEqual(t, "atom|", it.ID)
		seen[it.ID] = true
	}
	assert.Len(t, seen, 3)
	assert.True(t, seen["atom|https://www.tsunami.gov/events/x"])
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse(strings.NewReader("definitely not a feed"))
	require.Error(t, err)
}

func TestSource_Fetch(t *testing.T) {
	data, err := os.ReadFile("testdata/events.xml")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	src := NewSource(srv.URL+"/events.xml", srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, SourceName, src.Name())

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSource_Fetch_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewSource(srv.URL, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
