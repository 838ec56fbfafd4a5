package hotspot

import (
	"sort"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/geo"
)

// DefaultMarkerCap bounds how many individual markers are rendered.
const DefaultMarkerCap = 200

// Downsample keeps every signal when there are at most limit of them,
// otherwise the limit signals nearest to center. The input is not modified.
func Downsample(signals []Signal, center domain.Geo, limit int) []Signal {
	if limit <= 0 {
		limit = DefaultMarkerCap
	}
	if len(signals) <= limit {
		out := make([]Signal, len(signals))
		copy(out, signals)
		return out
	}

	type ranked struct {
		s Signal
		d float64
	}
	all := make([]ranked, len(signals))
	for i, s := range signals {
		all[i] = ranked{s: s, d: geo.HaversineKm(center, s.Position)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].d < all[j].d })

	out := make([]Signal, limit)
	for i := range out {
		out[i] = all[i].s
	}
	return out
}
