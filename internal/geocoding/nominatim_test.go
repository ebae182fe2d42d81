package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/fieldmark/beacon/internal/geocoding"
	"github.com/fieldmark/beacon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func newNominatimForTest(client *mockHTTPClient) *geocoding.NominatimProvider {
	return geocoding.NewNominatimProviderWithClient(client, rate.NewLimiter(rate.Inf, 1), slog.Default())
}

func TestNominatimProvider_ReverseGeocode(t *testing.T) {
	ctx := context.Background()
	kyiv := models.Coordinates{Latitude: 50.4501, Longitude: 30.5234}

	t.Run("successful reverse geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, "GET", req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org/reverse")
				assert.Equal(t, "50.4501", req.URL.Query().Get("lat"))
				assert.Equal(t, "30.5234", req.URL.Query().Get("lon"))
				assert.Equal(t, "jsonv2", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("addressdetails"))
				assert.Equal(
					t,
					"Beacon-Location-Engine/1.0 (https://github.com/fieldmark/beacon)",
					req.Header.Get("User-Agent"),
				)

				responseBody := `{
					"display_name": "1, Khreshchatyk Street, Pecherskyi district, Kyiv, 01001, Ukraine",
					"address": {
						"house_number": "1",
						"road": "Khreshchatyk Street",
						"city_district": "Pecherskyi district",
						"city": "Kyiv",
						"state": "Kyiv",
						"postcode": "01001",
						"country": "Ukraine"
					}
				}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newNominatimForTest(mockClient)
		place, err := provider.ReverseGeocode(ctx, kyiv)

		require.NoError(t, err)
		require.NotNil(t, place)
		assert.Equal(t, "1", place.HouseNumber)
		assert.Equal(t, "Khreshchatyk Street", place.Street)
		assert.Equal(t, "Pecherskyi district", place.District)
		assert.Equal(t, "Kyiv", place.City)
		assert.Equal(t, "Ukraine", place.Country)
		assert.Equal(t, "nominatim", place.Provider)
		assert.InEpsilon(t, 0.95, place.Confidence, 0.0001)
	})

	t.Run("town used when city absent", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{
					"display_name": "Bucha, Kyiv Oblast, Ukraine",
					"address": {"town": "Bucha", "place": "Central Square", "state": "Kyiv Oblast", "country": "Ukraine"}
				}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newNominatimForTest(mockClient)
		place, err := provider.ReverseGeocode(ctx, kyiv)

		require.NoError(t, err)
		assert.Equal(t, "Bucha", place.City)
		assert.Equal(t, "Central Square", place.Place)
	})

	t.Run("unable-to-geocode payload", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{"error": "Unable to geocode"}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newNominatimForTest(mockClient)
		place, err := provider.ReverseGeocode(ctx, kyiv)

		require.Error(t, err)
		require.Nil(t, place)
		assert.ErrorIs(t, err, geocoding.ErrNominatimNoResult)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{"error":"Rate limit exceeded"}`
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newNominatimForTest(mockClient)
		place, err := provider.ReverseGeocode(ctx, kyiv)

		require.Error(t, err)
		require.Nil(t, place)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `invalid json`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newNominatimForTest(mockClient)
		place, err := provider.ReverseGeocode(ctx, kyiv)

		require.Error(t, err)
		require.Nil(t, place)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := newNominatimForTest(mockClient)
		place, err := provider.ReverseGeocode(ctx, kyiv)

		require.Error(t, err)
		require.Nil(t, place)
		assert.Contains(t, err.Error(), "failed to execute reverse geocoding request")
	})

	t.Run("context cancellation", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, req.Context().Err()
			},
		}

		provider := newNominatimForTest(mockClient)
		place, err := provider.ReverseGeocode(newCtx, kyiv)

		require.Error(t, err)
		require.Nil(t, place)
	})
}

func TestNewNominatimProvider(t *testing.T) {
	provider := geocoding.NewNominatimProvider(1, slog.Default())

	require.NotNil(t, provider)
	assert.Equal(t, "nominatim", provider.Name())
	assert.InEpsilon(t, 0.95, provider.Confidence(), 0.0001)
}
