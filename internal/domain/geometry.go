package domain

import "github.com/paulmach/orb"

// Centroid returns a representative position for an alert geometry.
//
// Points map to themselves. Every other supported variant (line strings,
// rings, polygons, multi-polygons) returns the arithmetic mean of all its
// flattened vertices, closing vertices included. This is a vertex average,
// not the area-weighted centroid, so irregular polygons with dense edges pull
// the result toward those edges. Downstream hotspot weights depend on this
// exact behavior.
func Centroid(g orb.Geometry) (Geo, bool) {
	switch v := g.(type) {
	case nil:
		return Geo{}, false
	case orb.Point:
		return Geo{Lat: v.Lat(), Lng: v.Lon()}, true
	case orb.MultiPoint:
		return vertexAverage(v)
	case orb.LineString:
		return vertexAverage(v)
	case orb.Ring:
		return vertexAverage(v)
	case orb.MultiLineString:
		var pts []orb.Point
		for _, ls := range v {
			pts = append(pts, ls...)
		}
		return vertexAverage(pts)
	case orb.Polygon:
		return vertexAverage(flattenPolygon(v))
	case orb.MultiPolygon:
		var pts []orb.Point
		for _, p := range v {
			pts = append(pts, flattenPolygon(p)...)
		}
		return vertexAverage(pts)
	default:
		return Geo{}, false
	}
}

func flattenPolygon(p orb.Polygon) []orb.Point {
	var pts []orb.Point
	for _, ring := range p {
		pts = append(pts, ring...)
	}
	return pts
}

func vertexAverage(pts []orb.Point) (Geo, bool) {
	if len(pts) == 0 {
		return Geo{}, false
	}
	var sumLng, sumLat float64
	for _, p := range pts {
		sumLng += p[0]
		sumLat += p[1]
	}
	n := float64(len(pts))
	return Geo{Lat: sumLat / n, Lng: sumLng / n}, true
}
