// Command hotspots computes hazard hotspots offline from exported data: a
// JSON array of reports (the value stored under oceaneye-reports) and,
// optionally, an NWS alerts GeoJSON document. The result is written as JSON
// or as a GeoJSON FeatureCollection of cell centers.
//
// Usage:
//
//	go run ./cmd/hotspots -reports reports.json [-alerts alerts.geojson] \
//	  [-zoom 11] [-lat 20.59 -lng 78.96] [-mode density] [-format geojson]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/oceaneye-service/internal/adapter/nws"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/hotspot"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "hotspots:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("hotspots", flag.ContinueOnError)
	reportsPath := fs.String("reports", "", "JSON array of reports")
	alertsPath := fs.String("alerts", "", "NWS alerts GeoJSON (optional)")
	zoom := fs.Float64("zoom", hotspot.DefaultZoom, "map zoom level")
	lat := fs.Float64("lat", hotspot.DefaultCenter.Lat, "map center latitude")
	lng := fs.Float64("lng", hotspot.DefaultCenter.Lng, "map center longitude")
	mode := fs.String("mode", string(hotspot.ModeDensity), "weighting mode: density, verified or keywords")
	keywords := fs.String("keywords", hotspot.DefaultKeywords, "comma-separated keywords for keywords mode")
	markerCap := fs.Int("cap", hotspot.DefaultMarkerCap, "maximum markers")
	format := fs.String("format", "json", "output format: json or geojson")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *reportsPath == "" {
		return errors.New("-reports is required")
	}

	m, err := hotspot.ParseMode(*mode)
	if err != nil {
		return err
	}

	reports, err := readReports(*reportsPath)
	if err != nil {
		return err
	}
	var alerts []domain.FeedItem
	if *alertsPath != "" {
		data, err := os.ReadFile(*alertsPath)
		if err != nil {
			return fmt.Errorf("read alerts: %w", err)
		}
		if alerts, err = nws.Parse(data); err != nil {
			return fmt.Errorf("parse alerts: %w", err)
		}
	}

	res := hotspot.Compute(reports, alerts, hotspot.Request{
		Zoom:      *zoom,
		Center:    domain.Geo{Lat: *lat, Lng: *lng},
		Options:   hotspot.Options{Mode: m, Keywords: hotspot.ParseKeywords(*keywords)},
		MarkerCap: *markerCap,
	})

	var v any
	switch *format {
	case "json":
		v = res
	case "geojson":
		v = toFeatureCollection(res)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readReports(path string) ([]domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}
	var reports []domain.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("parse reports: %w", err)
	}
	return reports, nil
}

// toFeatureCollection emits one point feature per hotspot cell center.
func toFeatureCollection(res hotspot.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, h := range res.Hotspots {
		f := geojson.NewFeature(orb.Point{h.Center.Lng, h.Center.Lat})
		f.Properties["intensity"] = h.Intensity
		f.Properties["radius_m"] = h.RadiusMeters
		f.Properties["color"] = h.Color
		f.Properties["total_weight"] = h.TotalWeight
		f.Properties["signal_count"] = h.SignalCount
		f.Properties["verified_count"] = h.VerifiedCount
		fc.Append(f)
	}
	return fc
}
