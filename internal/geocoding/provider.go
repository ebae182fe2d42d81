package geocoding

import (
	"context"
	"net/http"

	"github.com/fieldmark/beacon/internal/models"
)

// Provider is a single reverse-geocoding backend in the ordered fallback
// chain. ReverseGeocode returns structured place details for a coordinate or
// an error; the chain recovers single-provider failures by trying the next
// one. Confidence is the fixed 0..1 trust score attached to this provider's
// results.
type Provider interface {
	Name() string
	Confidence() float64
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.PlaceDetails, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
