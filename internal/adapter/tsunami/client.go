// Package tsunami reads the NOAA/NWS Tsunami Warning Center Atom feed.
package tsunami

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	feedext "github.com/mmcdole/gofeed/extensions"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

const (
	// SourceName is the per-source key used in error maps.
	SourceName = "tsunamiGov"
	// SourceLabel is the attribution carried by every bulletin.
	SourceLabel = "NOAA/NWS National Tsunami Warning Center"
	// SourceLink points readers at the warning center home page.
	SourceLink = "https://www.tsunami.gov/"
)

// Source fetches tsunami bulletins from an Atom feed.
type Source struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSource creates a bulletin source for feedURL.
func NewSource(feedURL string, httpClient *http.Client, logger *slog.Logger) *Source {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Source{feedURL: feedURL, httpClient: httpClient, logger: logger}
}

// Name returns the per-source key.
func (s *Source) Name() string { return SourceName }

// Fetch downloads and parses the feed.
func (s *Source) Fetch(ctx context.Context) ([]domain.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml, application/xml;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", SourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", SourceName, resp.StatusCode)
	}

	items, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", SourceName, err)
	}
	s.logger.Debug("tsunami bulletins fetched", "items", len(items))
	return items, nil
}

// Parse converts an Atom document into feed items. Entries without an
// update or publish time are stamped with the current time.
func Parse(r io.Reader) ([]domain.FeedItem, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, err
	}

	now := domain.Now()
	items := make([]domain.FeedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, toFeedItem(entry, now))
	}
	return items, nil
}

func toFeedItem(entry *gofeed.Item, now time.Time) domain.FeedItem {
	item := domain.FeedItem{
		ID:         "atom|" + orDefault(entry.GUID, orDefault(entry.Link, uuid.NewString())),
		Title:      orDefault(strings.TrimSpace(entry.Title), "Update"),
		Link:       orDefault(entry.Link, "#"),
		Published:  now,
		Summary:    strings.TrimSpace(orDefault(entry.Description, entry.Content)),
		Source:     SourceLabel,
		SourceLink: SourceLink,
	}
	switch {
	case entry.UpdatedParsed != nil:
		item.Published = entry.UpdatedParsed.UTC()
	case entry.PublishedParsed != nil:
		item.Published = entry.PublishedParsed.UTC()
	}
	if pos, ok := geoPosition(entry); ok {
		item.Position = &pos
	}
	return item
}

// geoPosition reads the W3C Basic Geo lat/long elements the warning center
// attaches to each bulletin.
func geoPosition(entry *gofeed.Item) (domain.Geo, bool) {
	geo, ok := entry.Extensions["geo"]
	if !ok {
		return domain.Geo{}, false
	}
	lat, latOK := extensionFloat(geo, "lat")
	lng, lngOK := extensionFloat(geo, "long")
	if !latOK || !lngOK {
		return domain.Geo{}, false
	}
	return domain.Geo{Lat: lat, Lng: lng}, true
}

func extensionFloat(ext map[string][]feedext.Extension, name string) (float64, bool) {
	values := ext[name]
	if len(values) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(values[0].Value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
