package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// FeedItem is one entry from an external hazard feed: an NWS alert, a
// tsunami bulletin, or similar. Position is set only when the source carried
// usable geometry.
type FeedItem struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Link       string       `json:"link"`
	Published  time.Time    `json:"published"`
	Summary    string       `json:"summary,omitempty"`
	Source     string       `json:"source"`
	SourceLink string       `json:"source_link"`
	Position   *Geo         `json:"position,omitempty"`
	Geometry   orb.Geometry `json:"-"`
}

// Text is the free text searched for keyword matches.
func (f FeedItem) Text() string {
	return f.Title + " " + f.Summary
}
