package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fieldmark/beacon/internal/models"
	"golang.org/x/time/rate"
)

// NominatimBaseURL -- OpenStreetMap Nominatim reverse-geocoding endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/reverse"

const nominatimConfidence = 0.95

// NominatimProvider implements the Provider interface using OpenStreetMap's
// Nominatim API. This is a free reverse-geocoding service with usage limits
// (1 request/second for fair use), so requests go through a rate limiter.
type NominatimProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Nominatim API
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// Common errors for Nominatim provider.
var (
	ErrNominatimNoResult      = errors.New("nominatim API returned no result for coordinate")
	ErrNominatimInvalidCoords = errors.New("nominatim provider got invalid coordinates")
)

// nominatimResponse represents the JSON reverse-geocoding response.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		HouseNumber   string `json:"house_number"`
		Road          string `json:"road"`
		Neighbourhood string `json:"neighbourhood"`
		Quarter       string `json:"quarter"`
		Suburb        string `json:"suburb"`
		CityDistrict  string `json:"city_district"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		Municipality  string `json:"municipality"`
		County        string `json:"county"`
		State         string `json:"state"`
		Region        string `json:"region"`
		Postcode      string `json:"postcode"`
		Country       string `json:"country"`
		Amenity       string `json:"amenity"`
		Shop          string `json:"shop"`
		Tourism       string `json:"tourism"`
		Place         string `json:"place"`
	} `json:"address"`
}

// NewNominatimProvider creates a new Nominatim reverse-geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(rateLimit int, log *slog.Logger) *NominatimProvider {
	const timeout = 10
	if rateLimit <= 0 {
		rateLimit = 1
	}
	return NewNominatimProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom
// HTTP client and limiter. Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:  client,
		baseURL: NominatimBaseURL,
		log:     log,
		limiter: limiter,
		// User-Agent MUST include valid contact info per Nominatim usage policy:
		// https://operations.osmfoundation.org/policies/nominatim/
		userAgent: "Beacon-Location-Engine/1.0 (https://github.com/fieldmark/beacon)",
	}
}

// Name implements Provider.
func (np *NominatimProvider) Name() string { return ProviderNominatim }

// Confidence implements Provider.
func (np *NominatimProvider) Confidence() float64 { return nominatimConfidence }

// ReverseGeocode converts a coordinate to a structured place record using the
// Nominatim API. It respects Nominatim's usage policy by including a
// User-Agent header and waiting on the rate limiter.
func (np *NominatimProvider) ReverseGeocode(
	ctx context.Context,
	coords models.Coordinates,
) (*models.PlaceDetails, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	np.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", coords.Latitude, "lon", coords.Longitude)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1") // Include the detailed address breakdown
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute reverse geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	var result nominatimResponse
	if err = json.Unmarshal(body, &result); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	// Nominatim reports "Unable to geocode" inside a 200 response.
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNominatimNoResult, result.Error)
	}
	if result.DisplayName == "" && result.Address.Country == "" {
		return nil, ErrNominatimNoResult
	}

	place := np.normalize(result)

	np.log.DebugContext(ctx, "Nominatim found place", "display_name", result.DisplayName)

	return place, nil
}

// normalize maps Nominatim's address fields into the provider-independent
// PlaceDetails hierarchy. Nominatim reports the city under different keys
// depending on the settlement type.
func (np *NominatimProvider) normalize(result nominatimResponse) *models.PlaceDetails {
	addr := result.Address

	city := addr.City
	if city == "" {
		city = addr.Town
	}
	if city == "" {
		city = addr.Village
	}
	if city == "" {
		city = addr.Municipality
	}

	neighbourhood := addr.Neighbourhood
	if neighbourhood == "" {
		neighbourhood = addr.Quarter
	}

	return &models.PlaceDetails{
		HouseNumber:   addr.HouseNumber,
		Street:        addr.Road,
		Neighbourhood: neighbourhood,
		Suburb:        addr.Suburb,
		District:      addr.CityDistrict,
		City:          city,
		State:         addr.State,
		County:        addr.County,
		Region:        addr.Region,
		PostalCode:    addr.Postcode,
		Country:       addr.Country,
		Amenity:       addr.Amenity,
		Shop:          addr.Shop,
		Tourism:       addr.Tourism,
		Place:         addr.Place,
		FullDisplay:   result.DisplayName,
		Provider:      ProviderNominatim,
		Confidence:    nominatimConfidence,
	}
}
