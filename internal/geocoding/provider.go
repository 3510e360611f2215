// Package geocoding provides forward geocoders that turn a free-text address
// into WGS84 coordinates.
package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/pscgeo/internal/models"
)

// ErrNoResult is returned when the provider answered but found no match for the address.
var ErrNoResult = errors.New("geocoder returned no result")

// Provider geocodes a single address. Implementations issue exactly one
// upstream query per call; fallback strategies belong to the caller.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
