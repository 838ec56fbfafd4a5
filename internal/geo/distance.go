// Package geo provides great-circle distance helpers and proximity queries
// over OceanEye positions.
package geo

import (
	"sort"

	"github.com/golang/geo/s2"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used for every distance in the service.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b domain.Geo) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Ranked pairs an item with its distance from a query point.
type Ranked[T any] struct {
	Item       T       `json:"item"`
	DistanceKm float64 `json:"distance_km"`
}

// SortByDistance ranks items by distance from center, nearest first. Ties
// keep their input order.
func SortByDistance[T any](items []T, center domain.Geo, pos func(T) domain.Geo) []Ranked[T] {
	out := make([]Ranked[T], len(items))
	for i, it := range items {
		out[i] = Ranked[T]{Item: it, DistanceKm: HaversineKm(center, pos(it))}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// WithinRadius returns the items no further than radiusKm from center,
// nearest first. A positive limit caps the result length.
func WithinRadius[T any](items []T, center domain.Geo, radiusKm float64, limit int, pos func(T) domain.Geo) []Ranked[T] {
	ranked := SortByDistance(items, center, pos)
	out := ranked[:0]
	for _, r := range ranked {
		if r.DistanceKm > radiusKm {
			break
		}
		out = append(out, r)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
