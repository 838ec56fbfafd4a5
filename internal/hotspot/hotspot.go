package hotspot

import (
	"math"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// DefaultZoom is the map zoom used when a request carries none.
const DefaultZoom = 11

// Zoom range of the web map tiles.
const (
	MinZoom = 0
	MaxZoom = 22
)

// DefaultCenter is the centroid of India.
var DefaultCenter = domain.Geo{Lat: 20.5937, Lng: 78.9629}

// Request describes one aggregation pass.
type Request struct {
	Zoom      float64
	Center    domain.Geo
	Options   Options
	MarkerCap int
}

// Result is everything the map layer needs for one view.
type Result struct {
	Mode        Mode      `json:"mode"`
	Zoom        float64   `json:"zoom"`
	CellSize    float64   `json:"cell_size_deg"`
	SignalCount int       `json:"signal_count"`
	Hotspots    []Hotspot `json:"hotspots"`
	Markers     []Signal  `json:"markers"`
}

// Compute builds signals, bins and normalizes them, and picks markers.
// Empty input yields empty hotspot and marker lists.
func Compute(reports []domain.Report, alerts []domain.FeedItem, req Request) Result {
	mode := req.Options.Mode
	if mode == "" {
		mode = ModeDensity
		req.Options.Mode = mode
	}

	req.Zoom = ClampZoom(req.Zoom)

	signals := BuildSignals(reports, alerts, req.Options)
	size := CellSize(req.Zoom)

	hotspots := Normalize(Bin(signals, size), req.Zoom)
	if hotspots == nil {
		hotspots = []Hotspot{}
	}

	return Result{
		Mode:        mode,
		Zoom:        req.Zoom,
		CellSize:    size,
		SignalCount: len(signals),
		Hotspots:    hotspots,
		Markers:     Downsample(signals, req.Center, req.MarkerCap),
	}
}

// ClampZoom limits zoom to [MinZoom, MaxZoom]. NaN maps to DefaultZoom.
func ClampZoom(zoom float64) float64 {
	if math.IsNaN(zoom) {
		return DefaultZoom
	}
	return math.Min(MaxZoom, math.Max(MinZoom, zoom))
}
