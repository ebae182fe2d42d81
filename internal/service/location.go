package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldmark/beacon/internal/geo"
	"github.com/fieldmark/beacon/internal/metrics"
	"github.com/fieldmark/beacon/internal/models"
)

// Method identifies which tier of the fallback chain produced a resolution.
type Method string

const (
	MethodGPS      Method = "gps"
	MethodIP       Method = "ip"
	MethodFallback Method = "fallback"
)

// Resolution is the self-documenting result of a best-effort resolution call:
// the location, the tier that produced it, and every warning accumulated
// along the degradation path.
type Resolution struct {
	Location models.ResolvedLocation `json:"location"`
	Method   Method                  `json:"method"`
	Warnings []string                `json:"warnings"`
}

// ErrInvalidReading is returned when a caller-supplied reading carries an
// out-of-range or null-island coordinate.
var ErrInvalidReading = errors.New("reading has an invalid coordinate")

// Collaborator contracts, satisfied by device.Acquirer, geocoding.Resolver,
// ipgeo.Chain and geofence.Validator.
type deviceAcquirer interface {
	AcquireBestEffort(ctx context.Context) (models.LocationReading, error)
}

type placeResolver interface {
	Resolve(ctx context.Context, reading models.LocationReading) models.ResolvedLocation
}

type ipLocator interface {
	Resolve(ctx context.Context) (models.ResolvedLocation, error)
}

type zoneValidator interface {
	Validate(loc models.ResolvedLocation, zones []models.GeofenceZone) models.ValidationResult
}

// LocationService is the top-level orchestrator composing device acquisition,
// reverse geocoding, IP fallback and geofence validation into calls that
// always produce a usable answer.
type LocationService struct {
	log            *slog.Logger
	acquirer       deviceAcquirer
	places         placeResolver
	ipChain        ipLocator
	validator      zoneValidator
	metrics        *metrics.Metrics
	fallbackCoords models.Coordinates
}

// NewLocationService creates the orchestrator. fallbackCoords is the static
// country-centroid placeholder returned when every acquisition tier fails.
func NewLocationService(
	log *slog.Logger,
	acquirer deviceAcquirer,
	places placeResolver,
	ipChain ipLocator,
	validator zoneValidator,
	m *metrics.Metrics,
	fallbackCoords models.Coordinates,
) *LocationService {
	return &LocationService{
		log:            log,
		acquirer:       acquirer,
		places:         places,
		ipChain:        ipChain,
		validator:      validator,
		metrics:        m,
		fallbackCoords: fallbackCoords,
	}
}

// ResolveBestEffort never fails. It walks the tiers in order -- device GPS,
// IP geolocation, static default -- and accumulates a warning for every step
// that degraded, so the final result documents what was tried and why.
func (s *LocationService) ResolveBestEffort(ctx context.Context) Resolution {
	warnings := []string{}

	reading, err := s.acquirer.AcquireBestEffort(ctx)
	if err == nil {
		s.metrics.Resolutions.WithLabelValues(string(MethodGPS)).Inc()
		return Resolution{
			Location: s.places.Resolve(ctx, reading),
			Method:   MethodGPS,
			Warnings: warnings,
		}
	}

	warnings = append(warnings, acquisitionWarning(err))
	s.log.WarnContext(ctx, "Device acquisition failed, falling back to IP geolocation", "error", err)

	ipLocation, ipErr := s.ipChain.Resolve(ctx)
	if ipErr == nil {
		warnings = append(warnings, "using IP-based location (less accurate than GPS)")
		s.metrics.Resolutions.WithLabelValues(string(MethodIP)).Inc()
		return Resolution{Location: ipLocation, Method: MethodIP, Warnings: warnings}
	}

	warnings = append(warnings, fmt.Sprintf("IP geolocation failed: %v", ipErr))
	warnings = append(warnings, "no real geolocation was available; using static fallback location")
	s.log.ErrorContext(ctx, "Every geolocation tier failed, using static fallback", "error", ipErr)
	s.metrics.Resolutions.WithLabelValues(string(MethodFallback)).Inc()

	return Resolution{Location: s.staticFallback(), Method: MethodFallback, Warnings: warnings}
}

// ResolveReading resolves a caller-supplied device reading (the coordinate a
// field client captured and posted) without running the acquisition tiers.
func (s *LocationService) ResolveReading(ctx context.Context, reading models.LocationReading) (Resolution, error) {
	if !geo.IsValidCoordinate(reading.Latitude, reading.Longitude) {
		return Resolution{}, fmt.Errorf("%w: (%f, %f)", ErrInvalidReading, reading.Latitude, reading.Longitude)
	}

	reading.Source = models.SourceDeviceGPS
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}

	s.metrics.Resolutions.WithLabelValues(string(MethodGPS)).Inc()
	return Resolution{
		Location: s.places.Resolve(ctx, reading),
		Method:   MethodGPS,
		Warnings: []string{},
	}, nil
}

// Validate applies the geofence rules to a resolved location.
func (s *LocationService) Validate(loc models.ResolvedLocation, zones []models.GeofenceZone) models.ValidationResult {
	result := s.validator.Validate(loc, zones)
	s.metrics.Validations.WithLabelValues(string(result.Security.RiskLevel)).Inc()
	return result
}

// staticFallback builds the hardcoded last-resort location, marked invalid
// with zero confidence.
func (s *LocationService) staticFallback() models.ResolvedLocation {
	return models.ResolvedLocation{
		LocationReading: models.LocationReading{
			Coordinates: s.fallbackCoords,
			Source:      models.SourceStaticFallback,
			Timestamp:   time.Now(),
		},
		Place: models.PlaceDetails{
			Provider:   "static",
			Confidence: 0,
		},
		AccuracyLevel: models.AccuracyCountry,
		DisplayName:   fmt.Sprintf("%.6f, %.6f", s.fallbackCoords.Latitude, s.fallbackCoords.Longitude),
		IsValid:       false,
	}
}

// acquisitionWarning renders a classified acquisition error for the warning
// list.
func acquisitionWarning(err error) string {
	type userMessager interface{ UserMessage() string }

	var classified userMessager
	if errors.As(err, &classified) {
		return fmt.Sprintf("device location unavailable: %s", classified.UserMessage())
	}
	return fmt.Sprintf("device location unavailable: %v", err)
}
