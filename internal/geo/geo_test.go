package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

func TestHaversineKm(t *testing.T) {
	chennai := domain.Geo{Lat: 13.0827, Lng: 80.2707}
	mumbai := domain.Geo{Lat: 19.0760, Lng: 72.8777}

	assert.InDelta(t, 1030, HaversineKm(chennai, mumbai), 10)
	assert.InDelta(t, 0, HaversineKm(chennai, chennai), 1e-9)
	assert.InDelta(t, HaversineKm(chennai, mumbai), HaversineKm(mumbai, chennai), 1e-9)
}

func TestHaversineKm_OneDegreeOfLatitude(t *testing.T) {
	d := HaversineKm(domain.Geo{Lat: 0, Lng: 0}, domain.Geo{Lat: 1, Lng: 0})
	assert.InDelta(t, 111.19, d, 0.01)
}

func TestWithinRadius_NearestShelters(t *testing.T) {
	shelters := domain.CoastalShelters()
	pos := func(s domain.Shelter) domain.Geo { return s.Position }

	got := WithinRadius(shelters, domain.Geo{Lat: 13.05, Lng: 80.28}, 10, 5, pos)

	require.Len(t, got, 1)
	assert.Equal(t, "sh_chn_1", got[0].Item.ID)
	assert.Less(t, got[0].DistanceKm, 5.0)
}

func TestWithinRadius_LimitAndOrder(t *testing.T) {
	pts := []domain.Geo{{Lat: 0, Lng: 0.03}, {Lat: 0, Lng: 0.01}, {Lat: 0, Lng: 0.02}, {Lat: 5, Lng: 5}}
	id := func(g domain.Geo) domain.Geo { return g }

	got := WithinRadius(pts, domain.Geo{}, 10, 2, id)

	require.Len(t, got, 2)
	assert.Equal(t, 0.01, got[0].Item.Lng)
	assert.Equal(t, 0.02, got[1].Item.Lng)
}

func TestSortByDistance_Empty(t *testing.T) {
	got := SortByDistance([]domain.Geo{}, domain.Geo{}, func(g domain.Geo) domain.Geo { return g })
	assert.Empty(t, got)
}

func TestNearestLinks(t *testing.T) {
	// Three nodes on a line plus one far away.
	nodes := []domain.Geo{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 2}, {Lat: 50, Lng: 50}}

	links := NearestLinks(nodes, 1)

	// 0->1 kept; 1's nearest is 0 (tie with 2, 0 first) so no 1->x;
	// 2->1 dropped (2 > 1); 3's nearest is 2, dropped.
	assert.Equal(t, []Link{{From: 0, To: 1}}, links)
}

func TestNearestLinks_CapsNodes(t *testing.T) {
	nodes := make([]domain.Geo, 100)
	for i := range nodes {
		nodes[i] = domain.Geo{Lat: float64(i), Lng: 0}
	}

	for _, l := range NearestLinks(nodes, 2) {
		assert.Less(t, l.From, l.To)
		assert.Less(t, l.To, MaxLinkNodes)
	}
}

func TestNearestLinks_Degenerate(t *testing.T) {
	assert.Nil(t, NearestLinks(nil, 2))
	assert.Nil(t, NearestLinks([]domain.Geo{{}}, 2))
	assert.Nil(t, NearestLinks([]domain.Geo{{}, {Lat: 1}}, 0))
}
