package geocoding

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldmark/beacon/internal/fallback"
	"github.com/fieldmark/beacon/internal/metrics"
	"github.com/fieldmark/beacon/internal/models"
)

// Resolver turns a coordinate into a structured, display-ready place record
// by walking the ordered provider chain. It never fails: the terminal
// coordinate provider guarantees a result even when every real provider is
// down.
type Resolver struct {
	providers []Provider
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewResolver creates a Resolver over the given provider chain.
func NewResolver(providers []Provider, m *metrics.Metrics, log *slog.Logger) *Resolver {
	return &Resolver{providers: providers, metrics: m, log: log}
}

// ResolvePlace queries the providers sequentially, first success wins, and
// degrades to a coordinate-only record on total failure.
func (r *Resolver) ResolvePlace(ctx context.Context, coords models.Coordinates) models.PlaceDetails {
	steps := make([]fallback.Step[*models.PlaceDetails], 0, len(r.providers))
	for _, provider := range r.providers {
		steps = append(steps, r.step(provider, coords))
	}

	place, providerName, err := fallback.First(ctx, r.log, steps)
	if err != nil {
		// Unreachable as long as the terminal provider is in the chain, but
		// the degradation contract holds regardless.
		r.log.ErrorContext(ctx, "Every reverse-geocoding provider failed", "error", err)
		return models.PlaceDetails{
			FullDisplay: CoordinateString(coords),
			Provider:    ProviderCoordinates,
			Confidence:  0,
		}
	}

	r.log.DebugContext(ctx, "Place resolved", "provider", providerName, "display", place.FullDisplay)
	return *place
}

// Resolve enriches a location reading with place details and the derived
// presentation fields.
func (r *Resolver) Resolve(ctx context.Context, reading models.LocationReading) models.ResolvedLocation {
	place := r.ResolvePlace(ctx, reading.Coordinates)

	return models.ResolvedLocation{
		LocationReading: reading,
		Place:           place,
		AccuracyLevel:   ClassifyAccuracy(place),
		DisplayName:     DisplayName(place, reading.Coordinates),
		IsValid:         true,
	}
}

func (r *Resolver) step(provider Provider, coords models.Coordinates) fallback.Step[*models.PlaceDetails] {
	return fallback.Step[*models.PlaceDetails]{
		Name: provider.Name(),
		Run: func(ctx context.Context) (*models.PlaceDetails, error) {
			startTime := time.Now()
			place, err := provider.ReverseGeocode(ctx, coords)
			r.metrics.ProviderRequestSeconds.WithLabelValues(provider.Name()).Observe(time.Since(startTime).Seconds())
			if err != nil {
				r.metrics.ProviderErrors.WithLabelValues(provider.Name()).Inc()
				return nil, err
			}
			return place, nil
		},
	}
}
