package hotspot

import (
	"fmt"
	"math"
)

// Hotspot is a cell with its rendering hints.
type Hotspot struct {
	Cell
	Intensity    float64 `json:"intensity"`
	RadiusMeters float64 `json:"radius_m"`
	Color        string  `json:"color"`
}

// Normalize scales every cell against the heaviest one and derives its circle
// radius and color for the given zoom. The heaviest cell always gets
// intensity 1.
func Normalize(cells []Cell, zoom float64) []Hotspot {
	if len(cells) == 0 {
		return nil
	}

	maxWeight := 0.0
	for _, c := range cells {
		maxWeight = math.Max(maxWeight, c.TotalWeight)
	}
	if maxWeight <= 0 {
		maxWeight = 1
	}

	out := make([]Hotspot, len(cells))
	for i, c := range cells {
		t := clamp01(c.TotalWeight / maxWeight)
		out[i] = Hotspot{
			Cell:         c,
			Intensity:    t,
			RadiusMeters: RadiusMeters(zoom, t),
			Color:        ColorScale(t),
		}
	}
	return out
}

// RadiusMeters shrinks with zoom and grows with the square root of intensity,
// never below 80 m.
func RadiusMeters(zoom, intensity float64) float64 {
	base := 800 * math.Pow(2, 12-zoom)
	return math.Max(80, base*math.Sqrt(intensity))
}

type rgb struct{ r, g, b float64 }

var (
	colorLow  = rgb{0x3b, 0x82, 0xf6}
	colorMid  = rgb{0xf5, 0x9e, 0x0b}
	colorHigh = rgb{0xef, 0x44, 0x44}
)

// ColorScale interpolates blue to orange over [0, 0.5] and orange to red over
// [0.5, 1].
func ColorScale(t float64) string {
	t = clamp01(t)
	if t < 0.5 {
		return lerpColor(colorLow, colorMid, t/0.5)
	}
	return lerpColor(colorMid, colorHigh, (t-0.5)/0.5)
}

func lerpColor(a, b rgb, k float64) string {
	lerp := func(x, y float64) int { return int(math.Round(x + (y-x)*k)) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(a.r, b.r), lerp(a.g, b.g), lerp(a.b, b.b))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
