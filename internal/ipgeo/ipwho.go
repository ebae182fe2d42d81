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

// IPWhoBaseURL -- ipwho.is JSON endpoint.
const IPWhoBaseURL = "https://ipwho.is/"

const ipWhoConfidence = 0.55

// Common errors for ipwho.is provider.
var (
	ErrIPWhoFailed        = errors.New("ipwho.is returned a failure status")
	ErrIPWhoInvalidCoords = errors.New("ipwho.is returned invalid coordinates")
)

// IPWhoProvider implements IP geolocation using the free ipwho.is service.
type IPWhoProvider struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

type ipWhoResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Postal    string  `json:"postal"`
}

// NewIPWhoProvider creates an ipwho.is provider with a default HTTP client.
func NewIPWhoProvider(log *slog.Logger) *IPWhoProvider {
	const timeout = 10
	return NewIPWhoProviderWithClient(&http.Client{Timeout: timeout * time.Second}, log)
}

// NewIPWhoProviderWithClient allows injecting a custom HTTP client for tests.
func NewIPWhoProviderWithClient(client HTTPClient, log *slog.Logger) *IPWhoProvider {
	return &IPWhoProvider{client: client, baseURL: IPWhoBaseURL, log: log}
}

// Name implements Provider.
func (p *IPWhoProvider) Name() string { return "ipwho" }

// Confidence implements Provider.
func (p *IPWhoProvider) Confidence() float64 { return ipWhoConfidence }

// Locate queries ipwho.is for the caller's approximate position.
func (p *IPWhoProvider) Locate(ctx context.Context) (models.LocationReading, models.PlaceDetails, error) {
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
		return reading, place, fmt.Errorf("ipwho.is returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reading, place, fmt.Errorf("failed to read response body: %w", err)
	}

	var result ipWhoResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return reading, place, fmt.Errorf("failed to decode ipwho.is response: %w", err)
	}

	if !result.Success {
		return reading, place, fmt.Errorf("%w: %s", ErrIPWhoFailed, result.Message)
	}
	if !geo.IsValidCoordinate(result.Latitude, result.Longitude) {
		return reading, place, ErrIPWhoInvalidCoords
	}

	p.log.DebugContext(ctx, "ipwho.is located caller", "city", result.City, "country", result.Country)

	reading = newReading(result.Latitude, result.Longitude)
	place = models.PlaceDetails{
		City:       result.City,
		Region:     result.Region,
		PostalCode: result.Postal,
		Country:    result.Country,
		Provider:   p.Name(),
		Confidence: ipWhoConfidence,
	}
	return reading, place, nil
}
