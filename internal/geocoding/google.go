package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldmark/beacon/internal/models"
	"googlemaps.github.io/maps"
)

const googleConfidence = 0.90

// GoogleProvider is the keyed commercial reverse-geocoding backend. It is
// only present in the chain when an API key is configured.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrGoogleEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrGoogleEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider initializes a GoogleProvider over an existing Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Name implements Provider.
func (gp *GoogleProvider) Name() string { return ProviderGoogle }

// Confidence implements Provider.
func (gp *GoogleProvider) Confidence() float64 { return googleConfidence }

// ReverseGeocode converts a coordinate into place details using the Google
// Maps Geocoding API, mapping address components by their type tags.
func (gp *GoogleProvider) ReverseGeocode(
	ctx context.Context,
	coords models.Coordinates,
) (*models.PlaceDetails, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", coords.Latitude, "lon", coords.Longitude)

	req := maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude},
	}
	results, err := gp.client.ReverseGeocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse geocode coordinate: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrGoogleEmptyResponse
	}

	return gp.normalize(results[0]), nil
}

// normalize maps Google address components into PlaceDetails. Each component
// carries type tags rather than a fixed position in the response.
func (gp *GoogleProvider) normalize(result maps.GeocodingResult) *models.PlaceDetails {
	place := &models.PlaceDetails{
		FullDisplay: result.FormattedAddress,
		Provider:    ProviderGoogle,
		Confidence:  googleConfidence,
	}

	for _, component := range result.AddressComponents {
		for _, typ := range component.Types {
			switch typ {
			case "street_number":
				place.HouseNumber = component.LongName
			case "route":
				place.Street = component.LongName
			case "neighborhood":
				place.Neighbourhood = component.LongName
			case "sublocality", "sublocality_level_1":
				place.Suburb = component.LongName
			case "locality", "postal_town":
				place.City = component.LongName
			case "administrative_area_level_2":
				place.County = component.LongName
			case "administrative_area_level_1":
				place.State = component.LongName
			case "postal_code":
				place.PostalCode = component.LongName
			case "country":
				place.Country = component.LongName
			case "point_of_interest", "establishment":
				place.Amenity = component.LongName
			case "natural_feature", "park", "airport":
				place.Place = component.LongName
			}
		}
	}

	return place
}
