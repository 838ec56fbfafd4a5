package geo

import (
	"sort"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// MaxLinkNodes caps how many nodes NearestLinks considers.
const MaxLinkNodes = 64

// Link joins two node indexes; From is always lower than To.
type Link struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// NearestLinks connects each of the first MaxLinkNodes nodes to its k nearest
// neighbours by squared degree distance. A pair is emitted only from the
// lower index, so when the higher-index node is the only one that picked the
// other, no link is produced.
func NearestLinks(nodes []domain.Geo, k int) []Link {
	n := min(len(nodes), MaxLinkNodes)
	if k <= 0 || n < 2 {
		return nil
	}

	type neighbour struct {
		j int
		d float64
	}

	var links []Link
	dists := make([]neighbour, 0, n-1)
	for i := 0; i < n; i++ {
		dists = dists[:0]
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dLat := nodes[i].Lat - nodes[j].Lat
			dLng := nodes[i].Lng - nodes[j].Lng
			dists = append(dists, neighbour{j: j, d: dLat*dLat + dLng*dLng})
		}
		sort.SliceStable(dists, func(a, b int) bool { return dists[a].d < dists[b].d })
		for _, nb := range dists[:min(k, len(dists))] {
			if i < nb.j {
				links = append(links, Link{From: i, To: nb.j})
			}
		}
	}
	return links
}
