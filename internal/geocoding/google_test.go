package geocoding_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/fieldmark/beacon/internal/geocoding"
	"github.com/fieldmark/beacon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

// mockGoogleClient is a mock implementation of GoogleAPIClient for testing.
type mockGoogleClient struct {
	reverseGeocodeFunc func(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

func (m *mockGoogleClient) ReverseGeocode(
	ctx context.Context,
	r *maps.GeocodingRequest,
) ([]maps.GeocodingResult, error) {
	return m.reverseGeocodeFunc(ctx, r)
}

func TestGoogleProvider_ReverseGeocode(t *testing.T) {
	ctx := context.Background()
	coords := models.Coordinates{Latitude: 48.8584, Longitude: 2.2945}

	t.Run("successful reverse geocoding", func(t *testing.T) {
		mockClient := &mockGoogleClient{
			reverseGeocodeFunc: func(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
				require.NotNil(t, r.LatLng)
				assert.InEpsilon(t, 48.8584, r.LatLng.Lat, 0.0001)
				assert.InEpsilon(t, 2.2945, r.LatLng.Lng, 0.0001)

				return []maps.GeocodingResult{
					{
						FormattedAddress: "5 Avenue Anatole France, 75007 Paris, France",
						AddressComponents: []maps.AddressComponent{
							{LongName: "5", Types: []string{"street_number"}},
							{LongName: "Avenue Anatole France", Types: []string{"route"}},
							{LongName: "Paris", Types: []string{"locality", "political"}},
							{LongName: "Ile-de-France", Types: []string{"administrative_area_level_1", "political"}},
							{LongName: "75007", Types: []string{"postal_code"}},
							{LongName: "France", Types: []string{"country", "political"}},
						},
					},
				}, nil
			},
		}

		provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
		place, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		require.NotNil(t, place)
		assert.Equal(t, "5", place.HouseNumber)
		assert.Equal(t, "Avenue Anatole France", place.Street)
		assert.Equal(t, "Paris", place.City)
		assert.Equal(t, "Ile-de-France", place.State)
		assert.Equal(t, "75007", place.PostalCode)
		assert.Equal(t, "France", place.Country)
		assert.Equal(t, "5 Avenue Anatole France, 75007 Paris, France", place.FullDisplay)
		assert.Equal(t, "google", place.Provider)
		assert.InEpsilon(t, 0.90, place.Confidence, 0.0001)
	})

	t.Run("empty response", func(t *testing.T) {
		mockClient := &mockGoogleClient{
			reverseGeocodeFunc: func(_ context.Context, _ *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
				return []maps.GeocodingResult{}, nil
			},
		}

		provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
		place, err := provider.ReverseGeocode(ctx, coords)

		require.Error(t, err)
		require.Nil(t, place)
		assert.ErrorIs(t, err, geocoding.ErrGoogleEmptyResponse)
	})

	t.Run("API error", func(t *testing.T) {
		mockClient := &mockGoogleClient{
			reverseGeocodeFunc: func(_ context.Context, _ *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
		place, err := provider.ReverseGeocode(ctx, coords)

		require.Error(t, err)
		require.Nil(t, place)
		assert.Contains(t, err.Error(), "failed to reverse geocode coordinate")
	})

	t.Run("establishment mapped to amenity", func(t *testing.T) {
		mockClient := &mockGoogleClient{
			reverseGeocodeFunc: func(_ context.Context, _ *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
				return []maps.GeocodingResult{
					{
						FormattedAddress: "Eiffel Tower, Paris, France",
						AddressComponents: []maps.AddressComponent{
							{LongName: "Eiffel Tower", Types: []string{"establishment", "point_of_interest"}},
							{LongName: "Champ de Mars", Types: []string{"park"}},
							{LongName: "Paris", Types: []string{"locality"}},
							{LongName: "France", Types: []string{"country"}},
						},
					},
				}, nil
			},
		}

		provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
		place, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Eiffel Tower", place.Amenity)
		assert.Equal(t, "Champ de Mars", place.Place)
		assert.Equal(t, "Paris", place.City)
	})
}

func TestGoogleProvider_Name(t *testing.T) {
	provider := geocoding.NewGoogleProvider(&mockGoogleClient{}, slog.Default())
	assert.Equal(t, "google", provider.Name())
	assert.InEpsilon(t, 0.90, provider.Confidence(), 0.0001)
}
