package geocode

import (
	"context"
	"errors"
)

// ErrNotFound means the geocoder has no match for the text or coordinate.
var ErrNotFound = errors.New("location not found")

// Place is a geocoding match.
type Place struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Address is the geocoder's full, comma separated address.
	Address string `json:"address"`
	// Locality is the most specific settlement name, when the backend reports one.
	Locality string `json:"locality,omitempty"`
}

// Geocoder maps place names to coordinates and back.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, text string) (Place, error)
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
}
