// Package hotspot turns geo-tagged reports and alert items into weighted
// grid cells and a bounded marker set for map rendering.
//
// Everything here is pure: the same inputs always produce the same cells in
// the same order, and nothing is cached between calls.
package hotspot

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// Mode selects the weighting policy applied to every signal.
type Mode string

const (
	ModeDensity  Mode = "density"
	ModeVerified Mode = "verified"
	ModeKeywords Mode = "keywords"
)

// ParseMode accepts the three mode names; empty means density.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeDensity, nil
	case ModeDensity, ModeVerified, ModeKeywords:
		return m, nil
	default:
		return "", fmt.Errorf("unknown hotspot mode %q", s)
	}
}

// Kind distinguishes human reports from alert-feed ("social") signals.
type Kind string

const (
	KindReport Kind = "report"
	KindSocial Kind = "social"
)

// DefaultKeywords is the keyword list used when none is configured.
const DefaultKeywords = "#tsunami,#flood,#stormsurge,#highwaves,#swell"

// Signal is one weighted observation. Raw points back at the report or feed
// item it came from.
type Signal struct {
	Position     domain.Geo `json:"position"`
	Kind         Kind       `json:"kind"`
	Weight       float64    `json:"weight"`
	Verified     bool       `json:"verified"`
	KeywordCount int        `json:"keyword_count"`
	SourceID     string     `json:"source_id"`
	Label        string     `json:"label"`
	Raw          any        `json:"-"`
}

// Options controls signal construction.
type Options struct {
	Mode           Mode
	Keywords       []string
	ExcludeReports bool
	ExcludeSocial  bool
}

// ParseKeywords splits a comma-separated list, trimming blanks and a leading
// '#' from each entry.
func ParseKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		k := strings.TrimSpace(part)
		if k == "" {
			continue
		}
		k = strings.TrimPrefix(k, "#")
		out = append(out, strings.ToLower(k))
	}
	return out
}

func countKeywords(text string, keywords []string) int {
	text = strings.ToLower(text)
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, strings.ToLower(k)) {
			n++
		}
	}
	return n
}

// BuildSignals derives signals from reports and alert items. Reports without
// resolvable coordinates and alerts without a position are skipped.
func BuildSignals(reports []domain.Report, alerts []domain.FeedItem, opts Options) []Signal {
	var out []Signal

	if !opts.ExcludeReports {
		for i := range reports {
			r := &reports[i]
			pos, ok := r.Coordinates()
			if !ok {
				continue
			}
			n := countKeywords(r.Type+" "+r.Description+" "+r.Location, opts.Keywords)
			approved := r.Status == domain.StatusApproved
			out = append(out, Signal{
				Position:     pos,
				Kind:         KindReport,
				Weight:       reportWeight(opts.Mode, approved, n),
				Verified:     approved,
				KeywordCount: n,
				SourceID:     r.ID,
				Label:        r.Type,
				Raw:          *r,
			})
		}
	}

	if !opts.ExcludeSocial {
		for i := range alerts {
			a := &alerts[i]
			if a.Position == nil {
				continue
			}
			n := countKeywords(a.Text(), opts.Keywords)
			out = append(out, Signal{
				Position:     *a.Position,
				Kind:         KindSocial,
				Weight:       socialWeight(opts.Mode, n),
				Verified:     true,
				KeywordCount: n,
				SourceID:     a.ID,
				Label:        a.Title,
				Raw:          *a,
			})
		}
	}

	return out
}

func reportWeight(mode Mode, approved bool, keywords int) float64 {
	switch mode {
	case ModeVerified:
		if approved {
			return 2
		}
		return 0.5
	case ModeKeywords:
		return 1 + float64(keywords)
	default:
		return 1
	}
}

func socialWeight(mode Mode, keywords int) float64 {
	switch mode {
	case ModeVerified:
		return 2
	case ModeKeywords:
		return 0.7 + float64(keywords)*0.7
	default:
		return 0.7
	}
}
