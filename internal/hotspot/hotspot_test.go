package hotspot

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/geo"
)

func fptr(f float64) *float64 { return &f }

func sampleReports() []domain.Report {
	return []domain.Report{
		{ID: "r1", Type: "Storm Surge", Description: "surge over the seawall", Location: "13.0500, 80.2824", Status: domain.StatusApproved},
		{ID: "r2", Type: "High Waves", Description: "#highwaves at the pier", Location: "Pier", Lat: fptr(13.0512), Lng: fptr(80.2831), Status: domain.StatusPending},
		{ID: "r3", Type: "Flood", Description: "street flooding", Location: "near the pier", Status: domain.StatusPending},
		{ID: "r4", Type: "Tsunami", Description: "tsunami siren heard", Location: "9.9312, 76.2673", Status: domain.StatusRejected},
	}
}

func sampleAlerts() []domain.FeedItem {
	return []domain.FeedItem{
		{ID: "nws|a", Title: "Coastal Flood Warning - flood expected", Position: &domain.Geo{Lat: 13.0555, Lng: 80.2801}, Published: time.Unix(0, 0)},
		{ID: "atom|b", Title: "Tsunami bulletin", Published: time.Unix(0, 0)},
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDensity, m)

	m, err = ParseMode("Verified")
	require.NoError(t, err)
	assert.Equal(t, ModeVerified, m)

	_, err = ParseMode("heat")
	assert.Error(t, err)
}

func TestParseKeywords(t *testing.T) {
	assert.Equal(t, []string{"tsunami", "flood", "stormsurge", "highwaves", "swell"}, ParseKeywords(DefaultKeywords))
	assert.Equal(t, []string{"surge"}, ParseKeywords(" , #Surge ,"))
	assert.Empty(t, ParseKeywords(""))
}

func TestBuildSignals_SkipsUnresolvable(t *testing.T) {
	signals := BuildSignals(sampleReports(), sampleAlerts(), Options{Mode: ModeDensity})

	require.Len(t, signals, 4)
	ids := make([]string, 0, len(signals))
	for _, s := range signals {
		ids = append(ids, s.SourceID)
	}
	assert.Equal(t, []string{"r1", "r2", "r4", "nws|a"}, ids)
}

func TestBuildSignals_Weights(t *testing.T) {
	keywords := ParseKeywords(DefaultKeywords)
	tests := []struct {
		mode Mode
		want map[string]float64
	}{
		{ModeDensity, map[string]float64{"r1": 1, "r2": 1, "r4": 1, "nws|a": 0.7}},
		{ModeVerified, map[string]float64{"r1": 2, "r2": 0.5, "r4": 0.5, "nws|a": 2}},
		// r1: none ("storm surge" is not "stormsurge"); r2: highwaves; r4: tsunami; alert: flood.
		{ModeKeywords, map[string]float64{"r1": 1, "r2": 2, "r4": 2, "nws|a": 1.4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			signals := BuildSignals(sampleReports(), sampleAlerts(), Options{Mode: tt.mode, Keywords: keywords})
			got := make(map[string]float64, len(signals))
			for _, s := range signals {
				got[s.SourceID] = s.Weight
			}
			for id, w := range tt.want {
				assert.InDelta(t, w, got[id], 1e-9, id)
			}
		})
	}
}

func TestBuildSignals_Exclusions(t *testing.T) {
	onlySocial := BuildSignals(sampleReports(), sampleAlerts(), Options{ExcludeReports: true})
	require.Len(t, onlySocial, 1)
	assert.Equal(t, KindSocial, onlySocial[0].Kind)
	assert.True(t, onlySocial[0].Verified)

	onlyReports := BuildSignals(sampleReports(), sampleAlerts(), Options{ExcludeSocial: true})
	assert.Len(t, onlyReports, 3)
}

func TestCellSize_MonotonicInZoom(t *testing.T) {
	prev := math.Inf(1)
	for z := 0.0; z <= 20; z += 0.5 {
		size := CellSize(z)
		assert.LessOrEqual(t, size, prev, "zoom %v", z)
		prev = size
	}
	assert.Equal(t, 0.002, CellSize(15))
	assert.Equal(t, 0.05, CellSize(8.9))
}

func TestBin_Deterministic(t *testing.T) {
	signals := BuildSignals(sampleReports(), sampleAlerts(), Options{Mode: ModeVerified})

	first := Bin(signals, CellSize(13))
	second := Bin(signals, CellSize(13))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("binning not deterministic (-first +second):\n%s", diff)
	}
}

func TestBin_EverySignalInExactlyOneCell(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	signals := make([]Signal, 1000)
	for i := range signals {
		kind := KindReport
		if i%3 == 0 {
			kind = KindSocial
		}
		signals[i] = Signal{
			Position: domain.Geo{Lat: -10 + rng.Float64()*20, Lng: 70 + rng.Float64()*20},
			Kind:     kind,
			Weight:   1,
			Verified: i%2 == 0,
		}
	}

	for _, zoom := range []float64{5, 9, 11, 13, 15} {
		size := CellSize(zoom)
		cells := Bin(signals, size)

		total, reports, social, verified := 0, 0, 0, 0
		seen := make(map[CellKey]bool)
		for _, c := range cells {
			assert.False(t, seen[c.Key], "duplicate cell %v", c.Key)
			seen[c.Key] = true
			total += c.SignalCount
			reports += c.ReportCount
			social += c.SocialCount
			verified += c.VerifiedCount
			assert.InDelta(t, float64(c.SignalCount), c.TotalWeight, 1e-9)
		}
		assert.Equal(t, len(signals), total, "zoom %v", zoom)
		assert.Equal(t, len(signals), reports+social)
		assert.Equal(t, 500, verified)

		for _, s := range signals {
			assert.True(t, seen[KeyFor(s.Position, size)])
		}
	}
}

func TestBin_CellCenter(t *testing.T) {
	cells := Bin([]Signal{{Position: domain.Geo{Lat: 13.0512, Lng: -80.2831}, Kind: KindReport, Weight: 1}}, 0.01)

	require.Len(t, cells, 1)
	assert.Equal(t, CellKey{Lat: 1305, Lng: -8029}, cells[0].Key)
	assert.InDelta(t, 13.055, cells[0].Center.Lat, 1e-9)
	assert.InDelta(t, -80.285, cells[0].Center.Lng, 1e-9)
}

func TestNormalize_IntensityBounds(t *testing.T) {
	cells := []Cell{{TotalWeight: 0.5}, {TotalWeight: 4}, {TotalWeight: 2}}

	hs := Normalize(cells, 12)

	require.Len(t, hs, 3)
	for _, h := range hs {
		assert.GreaterOrEqual(t, h.Intensity, 0.0)
		assert.LessOrEqual(t, h.Intensity, 1.0)
	}
	assert.Equal(t, 1.0, hs[1].Intensity)
	assert.InDelta(t, 0.125, hs[0].Intensity, 1e-9)
	assert.Equal(t, "#ef4444", hs[1].Color)
}

func TestNormalize_LightestSetStillPeaksAtOne(t *testing.T) {
	hs := Normalize([]Cell{{TotalWeight: 0.5}}, 12)

	require.Len(t, hs, 1)
	assert.Equal(t, 1.0, hs[0].Intensity)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil, 12))
}

func TestRadiusMeters(t *testing.T) {
	assert.InDelta(t, 800, RadiusMeters(12, 1), 1e-9)
	assert.InDelta(t, 200, RadiusMeters(14, 1), 1e-9)
	assert.InDelta(t, 80, RadiusMeters(12, 0.0001), 1e-9)
	assert.InDelta(t, 1600, RadiusMeters(11, 1), 1e-9)
}

func TestColorScale(t *testing.T) {
	assert.Equal(t, "#3b82f6", ColorScale(0))
	assert.Equal(t, "#f59e0b", ColorScale(0.5))
	assert.Equal(t, "#ef4444", ColorScale(1))
	assert.Equal(t, "#ef4444", ColorScale(3))
	assert.Equal(t, "#3b82f6", ColorScale(-1))
}

func TestDownsample_BelowCapKeepsAll(t *testing.T) {
	signals := make([]Signal, 10)
	got := Downsample(signals, domain.Geo{}, 200)
	assert.Len(t, got, 10)
}

func TestDownsample_KeepsNearest(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	center := domain.Geo{Lat: 13.05, Lng: 80.28}
	signals := make([]Signal, 750)
	for i := range signals {
		signals[i] = Signal{
			SourceID: fmt.Sprintf("s%d", i),
			Position: domain.Geo{Lat: center.Lat + rng.NormFloat64(), Lng: center.Lng + rng.NormFloat64()},
		}
	}

	kept := Downsample(signals, center, DefaultMarkerCap)
	require.Len(t, kept, DefaultMarkerCap)

	keptIDs := make(map[string]bool, len(kept))
	maxKept := 0.0
	for _, s := range kept {
		keptIDs[s.SourceID] = true
		maxKept = math.Max(maxKept, geo.HaversineKm(center, s.Position))
	}
	for _, s := range signals {
		if keptIDs[s.SourceID] {
			continue
		}
		assert.GreaterOrEqual(t, geo.HaversineKm(center, s.Position), maxKept)
	}
}

func TestCompute(t *testing.T) {
	res := Compute(sampleReports(), sampleAlerts(), Request{
		Zoom:   13,
		Center: domain.Geo{Lat: 13.05, Lng: 80.28},
	})

	assert.Equal(t, ModeDensity, res.Mode)
	assert.Equal(t, 0.005, res.CellSize)
	assert.Equal(t, 4, res.SignalCount)
	assert.Len(t, res.Markers, 4)

	count := 0
	for _, h := range res.Hotspots {
		count += h.SignalCount
	}
	assert.Equal(t, 4, count)
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(nil, nil, Request{Zoom: 5})

	assert.NotNil(t, res.Hotspots)
	assert.Empty(t, res.Hotspots)
	assert.Empty(t, res.Markers)
	assert.Equal(t, 0, res.SignalCount)
}

func TestClampZoom(t *testing.T) {
	cases := map[string]struct {
		in   float64
		want float64
	}{
		"in range":  {in: 13.5, want: 13.5},
		"below":     {in: -2000, want: MinZoom},
		"above":     {in: 40, want: MaxZoom},
		"minus inf": {in: math.Inf(-1), want: MinZoom},
		"plus inf":  {in: math.Inf(1), want: MaxZoom},
		"nan":       {in: math.NaN(), want: DefaultZoom},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClampZoom(tc.in))
		})
	}
}

func TestCompute_OutOfRangeZoomStaysFinite(t *testing.T) {
	for _, zoom := range []float64{-2000, math.Inf(-1), math.NaN(), 1e6} {
		res := Compute(sampleReports(), sampleAlerts(), Request{Zoom: zoom, Center: domain.Geo{Lat: 13.05, Lng: 80.28}})

		require.NotEmpty(t, res.Hotspots)
		assert.False(t, math.IsNaN(res.Zoom) || math.IsInf(res.Zoom, 0), "zoom %v", zoom)
		for _, h := range res.Hotspots {
			assert.False(t, math.IsNaN(h.RadiusMeters) || math.IsInf(h.RadiusMeters, 0), "zoom %v", zoom)
		}
		_, err := json.Marshal(res)
		assert.NoError(t, err, "zoom %v", zoom)
	}
}
