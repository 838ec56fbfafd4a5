package domain

import "context"

// Place is a geocoding answer. Relevance is the provider's 0..1 score.
type Place struct {
	Position  Geo
	Address   string
	Name      string
	Relevance float64
}

// Found reports whether the provider returned a match.
func (p Place) Found() bool {
	return p.Address != ""
}

// Geocoder resolves free-text locations and coordinates.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, query string) (Place, error)
	ReverseGeocode(ctx context.Context, pos Geo) (Place, error)
}
