package geocoding

import (
	"context"
	"fmt"

	"github.com/fieldmark/beacon/internal/models"
)

// CoordinateProvider is the terminal pass-through at the end of the chain.
// It renders the raw coordinate as the display string and cannot fail, which
// guarantees the chain always terminates with a result.
type CoordinateProvider struct{}

// NewCoordinateProvider returns the terminal provider.
func NewCoordinateProvider() *CoordinateProvider {
	return &CoordinateProvider{}
}

// Name implements Provider.
func (*CoordinateProvider) Name() string { return ProviderCoordinates }

// Confidence implements Provider.
func (*CoordinateProvider) Confidence() float64 { return 0 }

// ReverseGeocode implements Provider. It never returns an error.
func (*CoordinateProvider) ReverseGeocode(
	_ context.Context,
	coords models.Coordinates,
) (*models.PlaceDetails, error) {
	return &models.PlaceDetails{
		FullDisplay: CoordinateString(coords),
		Provider:    ProviderCoordinates,
		Confidence:  0,
	}, nil
}

// CoordinateString renders a coordinate pair for display, the absolute last
// resort when no place information is available.
func CoordinateString(coords models.Coordinates) string {
	return fmt.Sprintf("%.6f, %.6f", coords.Latitude, coords.Longitude)
}
