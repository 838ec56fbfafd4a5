package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestCentroid_Point(t *testing.T) {
	got, ok := Centroid(orb.Point{80.28, 13.05})

	assert.True(t, ok)
	assert.Equal(t, Geo{Lat: 13.05, Lng: 80.28}, got)
}

func TestCentroid_PolygonIncludesClosingVertex(t *testing.T) {
	// Closed square (0,0)(2,0)(2,2)(0,2)(0,0): five vertices, the origin twice.
	poly := orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}

	got, ok := Centroid(poly)

	assert.True(t, ok)
	assert.InDelta(t, 0.8, got.Lat, 1e-9)
	assert.InDelta(t, 0.8, got.Lng, 1e-9)
}

func TestCentroid_MultiPolygonFlattensAllRings(t *testing.T) {
	mp := orb.MultiPolygon{
		{{{0, 0}, {0, 0}}},
		{{{4, 2}, {4, 2}}},
	}

	got, ok := Centroid(mp)

	assert.True(t, ok)
	assert.InDelta(t, 1.0, got.Lat, 1e-9)
	assert.InDelta(t, 2.0, got.Lng, 1e-9)
}

func TestCentroid_LineString(t *testing.T) {
	got, ok := Centroid(orb.LineString{{10, 20}, {20, 40}})

	assert.True(t, ok)
	assert.Equal(t, Geo{Lat: 30, Lng: 15}, got)
}

func TestCentroid_Unsupported(t *testing.T) {
	_, ok := Centroid(nil)
	assert.False(t, ok)

	_, ok = Centroid(orb.Polygon{})
	assert.False(t, ok)

	_, ok = Centroid(orb.Collection{orb.Point{1, 2}})
	assert.False(t, ok)
}
