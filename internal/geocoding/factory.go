package geocoding

import (
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// Provider names used for logging and metrics labels.
const (
	ProviderNominatim   = "nominatim"
	ProviderGoogle      = "google"
	ProviderCoordinates = "coordinates"
)

// ChainConfig holds configuration for assembling the reverse-geocoding chain.
type ChainConfig struct {
	GoogleAPIKey string       // API key for the keyed commercial provider; empty skips it
	RateLimit    int          // Requests per second allowed against the keyless provider
	Logger       *slog.Logger // Logger shared by the providers
}

// NewChain assembles the ordered provider list: the free keyless provider
// first, the keyed commercial provider when a credential is configured, and
// the coordinate pass-through last so the chain always terminates.
func NewChain(config ChainConfig) ([]Provider, error) {
	providers := []Provider{
		NewNominatimProvider(config.RateLimit, config.Logger),
	}

	if config.GoogleAPIKey != "" {
		client, err := maps.NewClient(maps.WithAPIKey(config.GoogleAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
		}
		providers = append(providers, NewGoogleProvider(client, config.Logger))
	} else {
		config.Logger.Info("Google reverse geocoding disabled: no API key configured")
	}

	providers = append(providers, NewCoordinateProvider())

	return providers, nil
}
