// Package ipgeo resolves an approximate, city-level location from the
// caller's network identity. It is the lower-confidence substitute used when
// no device position can be acquired.
package ipgeo

import (
	"context"
	"net/http"
	"time"

	"github.com/fieldmark/beacon/internal/models"
)

// Provider is a single IP-geolocation backend. Locate uses the caller's
// network identity, so the request carries no input.
type Provider interface {
	Name() string
	Confidence() float64
	Locate(ctx context.Context) (models.LocationReading, models.PlaceDetails, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// newReading builds the reading shared by every IP provider result.
func newReading(lat, lng float64) models.LocationReading {
	return models.LocationReading{
		Coordinates: models.Coordinates{Latitude: lat, Longitude: lng},
		Source:      models.SourceIPGeolocation,
		Timestamp:   time.Now(),
	}
}
