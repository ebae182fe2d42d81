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

// IPAPIBaseURL -- ip-api.com JSON endpoint.
const IPAPIBaseURL = "http://ip-api.com/json/"

const ipAPIConfidence = 0.60

// Common errors for ip-api provider.
var (
	ErrIPAPIFailed        = errors.New("ip-api returned a failure status")
	ErrIPAPIInvalidCoords = errors.New("ip-api returned invalid coordinates")
)

// IPAPIProvider implements IP geolocation using the free ip-api.com service.
type IPAPIProvider struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
	Country    string  `json:"country"`
	Zip        string  `json:"zip"`
}

// NewIPAPIProvider creates an ip-api.com provider with a default HTTP client.
func NewIPAPIProvider(log *slog.Logger) *IPAPIProvider {
	const timeout = 10
	return NewIPAPIProviderWithClient(&http.Client{Timeout: timeout * time.Second}, log)
}

// NewIPAPIProviderWithClient allows injecting a custom HTTP client for tests.
func NewIPAPIProviderWithClient(client HTTPClient, log *slog.Logger) *IPAPIProvider {
	return &IPAPIProvider{client: client, baseURL: IPAPIBaseURL, log: log}
}

// Name implements Provider.
func (p *IPAPIProvider) Name() string { return "ip-api" }

// Confidence implements Provider.
func (p *IPAPIProvider) Confidence() float64 { return ipAPIConfidence }

// Locate queries ip-api.com for the caller's approximate position.
func (p *IPAPIProvider) Locate(ctx context.Context) (models.LocationReading, models.PlaceDetails, error) {
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
		return reading, place, fmt.Errorf("ip-api returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reading, place, fmt.Errorf("failed to read response body: %w", err)
	}

	var result ipAPIResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return reading, place, fmt.Errorf("failed to decode ip-api response: %w", err)
	}

	if result.Status != "success" {
		return reading, place, fmt.Errorf("%w: %s", ErrIPAPIFailed, result.Message)
	}
	if !geo.IsValidCoordinate(result.Lat, result.Lon) {
		return reading, place, ErrIPAPIInvalidCoords
	}

	p.log.DebugContext(ctx, "ip-api located caller", "city", result.City, "country", result.Country)

	reading = newReading(result.Lat, result.Lon)
	place = models.PlaceDetails{
		City:       result.City,
		Region:     result.RegionName,
		PostalCode: result.Zip,
		Country:    result.Country,
		Provider:   p.Name(),
		Confidence: ipAPIConfidence,
	}
	return reading, place, nil
}
