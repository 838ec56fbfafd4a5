package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// latLngRe finds a "lat, lng" pair inside free text, e.g. "pier 12.9716, 77.5946".
// Latitude allows up to two integer digits and longitude up to three; both
// require a fractional part.
var latLngRe = regexp.MustCompile(`(-?\d{1,2}\.\d+)[,\s]+(-?\d{1,3}\.\d+)`)

// Geo is a WGS-84 latitude/longitude pair in degrees.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseLatLng extracts the first coordinate pair from s. Strings without two
// decimal numbers separated by a comma or whitespace yield false.
func ParseLatLng(s string) (Geo, bool) {
	if s == "" {
		return Geo{}, false
	}
	m := latLngRe.FindStringSubmatch(s)
	if len(m) != 3 {
		return Geo{}, false
	}
	lat, errLat := strconv.ParseFloat(m[1], 64)
	lng, errLng := strconv.ParseFloat(m[2], 64)
	if errLat != nil || errLng != nil {
		return Geo{}, false
	}
	return Geo{Lat: lat, Lng: lng}, true
}

// FormatLatLng renders g in the "lat, lng" form ParseLatLng accepts.
func FormatLatLng(g Geo) string {
	return fmt.Sprintf("%.4f, %.4f", g.Lat, g.Lng)
}
