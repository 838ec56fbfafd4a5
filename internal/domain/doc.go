// Package domain holds the OceanEye data model: hazard reports and their
// moderation state, feed items from external alert sources, roles and
// permissions, and the small coordinate helpers every other package shares.
//
// # Positions
//
// A report is placed on the map from its explicit lat/lng when both are set,
// otherwise from the first "lat, lng" pair found in its free-text location
// (for example "Near Marina Beach (13.0500, 80.2824)"). Reports with neither
// are listed but never mapped.
//
// Feed items carry a GeoJSON geometry. Points map to themselves; every other
// geometry maps to the plain average of all of its vertices. This is not an
// area-weighted centroid and polygon rings count their closing vertex twice.
//
// # Time
//
// All timestamps come from [Now], which reads a swappable clockwork clock so
// tests can pin report times.
package domain
