package ipgeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldmark/beacon/internal/geo"
	"github.com/fieldmark/beacon/internal/models"
)

// IPAPICoBaseURL -- ipapi.co JSON endpoint.
const IPAPICoBaseURL = "https://ipapi.co/json/"

const ipAPICoConfidence = 0.50

// Common errors for ipapi.co provider.
var (
	ErrIPAPICoFailed        = errors.New("ipapi.co returned an error payload")
	ErrIPAPICoInvalidCoords = errors.New("ipapi.co returned invalid coordinates")
)

// IPAPICoProvider implements IP geolocation using the free ipapi.co service.
type IPAPICoProvider struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

type ipAPICoResponse struct {
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryName string  `json:"country_name"`
	Postal      string  `json:"postal"`
}

// NewIPAPICoProvider creates an ipapi.co provider with a default HTTP client.
func NewIPAPICoProvider(log *slog.Logger) *IPAPICoProvider {
	const timeout = 10
	return NewIPAPICoProviderWithClient(&http.Client{Timeout: timeout * time.Second}, log)
}

// NewIPAPICoProviderWithClient allows injecting a custom HTTP client for tests.
func NewIPAPICoProviderWithClient(client HTTPClient, log *slog.Logger) *IPAPICoProvider {
	return &IPAPICoProvider{client: client, baseURL: IPAPICoBaseURL, log: log}
}

// Name implements Provider.
func (p *IPAPICoProvider) Name() string { return "ipapi-co" }

// Confidence implements Provider.
func (p *IPAPICoProvider) Confidence() float64 { return ipAPICoConfidence }

// Locate queries ipapi.co for the caller's approximate position.
func (p *IPAPICoProvider) Locate(ctx context.Context) (models.LocationReading, models.PlaceDetails, error) {
	var reading models.LocationReading
	var place models.PlaceDetails

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return reading, place, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return reading, place, fmt.Errorf("failed to execute IP geolocation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return reading, place, fmt.Errorf("ipapi.co returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reading, place, fmt.Errorf("failed to read response body: %w", err)
	}

	var result ipAPICoResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return reading, place, fmt.Errorf("failed to decode ipapi.co response: %w", err)
	}

	if result.Error {
		return reading, place, fmt.Errorf("%w: %s", ErrIPAPICoFailed, result.Reason)
	}
	if !geo.IsValidCoordinate(result.Latitude, result.Longitude) {
		return reading, place, ErrIPAPICoInvalidCoords
	}

	p.log.DebugContext(ctx, "ipapi.co located caller", "city", result.City, "country", result.CountryName)

	reading = newReading(result.Latitude, result.Longitude)
	place = models.PlaceDetails{
		City:       result.City,
		Region:     result.Region,
		PostalCode: result.Postal,
		Country:    result.CountryName,
		Provider:   p.Name(),
		Confidence: ipAPICoConfidence,
	}
	return reading, place, nil
}
