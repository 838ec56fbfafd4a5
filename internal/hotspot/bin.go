package hotspot

import (
	"math"
	"sort"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// CellSize maps a map zoom level to a grid cell edge in degrees. Finer cells
// at higher zoom; the table is monotonic non-increasing.
func CellSize(zoom float64) float64 {
	switch {
	case zoom >= 15:
		return 0.002
	case zoom >= 13:
		return 0.005
	case zoom >= 11:
		return 0.01
	case zoom >= 9:
		return 0.02
	default:
		return 0.05
	}
}

// CellKey is the integer grid index of a cell.
type CellKey struct {
	Lat int64 `json:"lat"`
	Lng int64 `json:"lng"`
}

// Cell accumulates the signals that fell into one grid square.
type Cell struct {
	Key           CellKey    `json:"key"`
	Center        domain.Geo `json:"center"`
	TotalWeight   float64    `json:"total_weight"`
	SignalCount   int        `json:"signal_count"`
	ReportCount   int        `json:"report_count"`
	SocialCount   int        `json:"social_count"`
	VerifiedCount int        `json:"verified_count"`
}

// KeyFor returns the cell a position falls into for the given cell size.
func KeyFor(pos domain.Geo, cellSize float64) CellKey {
	return CellKey{
		Lat: int64(math.Floor(pos.Lat / cellSize)),
		Lng: int64(math.Floor(pos.Lng / cellSize)),
	}
}

// Bin groups signals by grid cell. Cells are returned ordered by latitude
// index, then longitude index.
func Bin(signals []Signal, cellSize float64) []Cell {
	if len(signals) == 0 || cellSize <= 0 {
		return nil
	}

	cells := make(map[CellKey]*Cell)
	for _, s := range signals {
		key := KeyFor(s.Position, cellSize)
		c, ok := cells[key]
		if !ok {
			c = &Cell{
				Key: key,
				Center: domain.Geo{
					Lat: (float64(key.Lat) + 0.5) * cellSize,
					Lng: (float64(key.Lng) + 0.5) * cellSize,
				},
			}
			cells[key] = c
		}
		c.TotalWeight += s.Weight
		c.SignalCount++
		switch s.Kind {
		case KindReport:
			c.ReportCount++
		case KindSocial:
			c.SocialCount++
		}
		if s.Verified {
			c.VerifiedCount++
		}
	}

	out := make([]Cell, 0, len(cells))
	for _, c := range cells {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Lat != out[j].Key.Lat {
			return out[i].Key.Lat < out[j].Key.Lat
		}
		return out[i].Key.Lng < out[j].Key.Lng
	})
	return out
}
