package domain

import (
	"context"
	"log/slog"
)

// ResolveDraftLocation fills in whatever half of a draft's position is
// missing. A draft with only a free-text location is forward geocoded into
// explicit coordinates; a draft with only coordinates gets a readable
// address. Failures are logged and the draft is returned unchanged.
func ResolveDraftLocation(ctx context.Context, d Draft, geocoder Geocoder, logger *slog.Logger) Draft {
	if geocoder == nil {
		return d
	}

	hasCoords := d.Lat != nil && d.Lng != nil

	if !hasCoords && d.Location != "" {
		if _, ok := ParseLatLng(d.Location); ok {
			return d
		}
		place, err := geocoder.ForwardGeocode(ctx, d.Location)
		if err != nil {
			logger.Warn("forward geocoding failed", "location", d.Location, "error", err)
			return d
		}
		if place.Found() {
			lat, lng := place.Position.Lat, place.Position.Lng
			d.Lat, d.Lng = &lat, &lng
		}
		return d
	}

	if hasCoords && d.Location == "" {
		pos := Geo{Lat: *d.Lat, Lng: *d.Lng}
		place, err := geocoder.ReverseGeocode(ctx, pos)
		if err != nil {
			logger.Warn("reverse geocoding failed", "lat", pos.Lat, "lng", pos.Lng, "error", err)
			return d
		}
		if place.Found() {
			d.Location = place.Address
		}
	}
	return d
}
