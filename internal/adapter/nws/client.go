// Package nws fetches active alerts from the National Weather Service API
// and converts them to feed items.
package nws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

const (
	// SourceLabel is the attribution carried by every NWS feed item.
	SourceLabel = "NWS Alerts API"
	// SourceLink points readers at the API root.
	SourceLink = "https://api.weather.gov/"
)

// CoastalEvents are the alert event names aggregated for the coastal feeds,
// keyed by the source name used in per-source error maps.
var CoastalEvents = []Event{
	{Key: "nwsTsunamiWarning", Name: "Tsunami Warning"},
	{Key: "nwsTsunamiAdvisory", Name: "Tsunami Advisory"},
	{Key: "nwsCoastalFloodWarning", Name: "Coastal Flood Warning"},
	{Key: "nwsHighSurfAdvisory", Name: "High Surf Advisory"},
}

// Event names one NWS alert event filter.
type Event struct {
	Key  string
	Name string
}

// Source fetches the active alerts for a single event type.
type Source struct {
	event      Event
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSource creates an alert source for event. The NWS API asks callers to
// identify themselves with a User-Agent.
func NewSource(event Event, baseURL, userAgent string, httpClient *http.Client, logger *slog.Logger) *Source {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Source{
		event:      event,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CoastalSources returns one Source per entry in CoastalEvents.
func CoastalSources(baseURL, userAgent string, httpClient *http.Client, logger *slog.Logger) []*Source {
	sources := make([]*Source, 0, len(CoastalEvents))
	for _, e := range CoastalEvents {
		sources = append(sources, NewSource(e, baseURL, userAgent, httpClient, logger))
	}
	return sources
}

// Name returns the per-source key.
func (s *Source) Name() string { return s.event.Key }

// Fetch requests /alerts/active?event=<name> and parses the GeoJSON response.
func (s *Source) Fetch(ctx context.Context) ([]domain.FeedItem, error) {
	u := s.baseURL + "/alerts/active?" + url.Values{"event": {s.event.Name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.event.Key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", s.event.Key, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.event.Key, err)
	}
	items, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.event.Key, err)
	}
	s.logger.Debug("nws alerts fetched", "source", s.event.Key, "items", len(items))
	return items, nil
}

// Parse converts an NWS GeoJSON FeatureCollection into feed items. Features
// without geometry are kept without a position.
func Parse(data []byte) ([]domain.FeedItem, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	now := domain.Now()
	items := make([]domain.FeedItem, 0, len(fc.Features))
	for _, f := range fc.Features {
		items = append(items, toFeedItem(f, now))
	}
	return items, nil
}

func toFeedItem(f *geojson.Feature, now time.Time) domain.FeedItem {
	p := f.Properties
	featureID, _ := f.ID.(string)

	// Features without any id get a random one so they are not merged away.
	id := firstNonEmpty(featureID, str(p, "id"), uuid.NewString())
	title := "Alert"
	if event := str(p, "event"); event != "" {
		title = event
		if headline := str(p, "headline"); headline != "" {
			title += " - " + headline
		}
	}

	item := domain.FeedItem{
		ID:         "nws|" + id,
		Title:      title,
		Link:       firstNonEmpty(str(p, "uri"), str(p, "url"), featureID, "#"),
		Published:  published(p, now),
		Summary:    firstNonEmpty(str(p, "description"), str(p, "instruction"), str(p, "headline")),
		Source:     SourceLabel,
		SourceLink: SourceLink,
		Geometry:   f.Geometry,
	}
	if center, ok := domain.Centroid(f.Geometry); ok {
		item.Position = &center
	}
	return item
}

func published(p geojson.Properties, now time.Time) time.Time {
	for _, key := range []string{"sent", "effective", "onset"} {
		raw := str(p, key)
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return now
}

func str(p geojson.Properties, key string) string {
	s, _ := p[key].(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
