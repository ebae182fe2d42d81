package ipgeo

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldmark/beacon/internal/fallback"
	"github.com/fieldmark/beacon/internal/geocoding"
	"github.com/fieldmark/beacon/internal/metrics"
	"github.com/fieldmark/beacon/internal/models"
)

// Chain walks the ordered IP providers with the same first-success-wins
// policy the reverse-geocoding chain uses. Provider confidence strictly
// decreases down the list, reflecting the trust ordering.
type Chain struct {
	providers []Provider
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewChain creates the default provider ordering.
func NewChain(m *metrics.Metrics, log *slog.Logger) *Chain {
	return NewChainWithProviders(
		[]Provider{
			NewIPAPIProvider(log),
			NewIPWhoProvider(log),
			NewIPAPICoProvider(log),
		},
		m, log,
	)
}

// NewChainWithProviders allows injecting providers for tests.
func NewChainWithProviders(providers []Provider, m *metrics.Metrics, log *slog.Logger) *Chain {
	return &Chain{providers: providers, metrics: m, log: log}
}

type located struct {
	reading models.LocationReading
	place   models.PlaceDetails
}

// Resolve returns a city-level resolved location from the first provider that
// answers, or the joined error of every provider when the list is exhausted.
func (c *Chain) Resolve(ctx context.Context) (models.ResolvedLocation, error) {
	steps := make([]fallback.Step[located], 0, len(c.providers))
	for _, provider := range c.providers {
		steps = append(steps, c.step(provider))
	}

	result, providerName, err := fallback.First(ctx, c.log, steps)
	if err != nil {
		return models.ResolvedLocation{}, err
	}

	c.log.InfoContext(ctx, "Resolved location from network identity",
		"provider", providerName, "city", result.place.City)

	return models.ResolvedLocation{
		LocationReading: result.reading,
		Place:           result.place,
		AccuracyLevel:   models.AccuracyCityIP,
		DisplayName:     geocoding.DisplayName(result.place, result.reading.Coordinates),
		IsValid:         true,
	}, nil
}

func (c *Chain) step(provider Provider) fallback.Step[located] {
	return fallback.Step[located]{
		Name: provider.Name(),
		Run: func(ctx context.Context) (located, error) {
			startTime := time.Now()
			reading, place, err := provider.Locate(ctx)
			c.metrics.ProviderRequestSeconds.WithLabelValues(provider.Name()).Observe(time.Since(startTime).Seconds())
			if err != nil {
				c.metrics.ProviderErrors.WithLabelValues(provider.Name()).Inc()
				return located{}, err
			}
			return located{reading: reading, place: place}, nil
		},
	}
}
