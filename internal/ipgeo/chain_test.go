package ipgeo_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fieldmark/beacon/internal/ipgeo"
	"github.com/fieldmark/beacon/internal/metrics"
	"github.com/fieldmark/beacon/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLocator is a mock implementation of Provider for chain tests.
type stubLocator struct {
	name       string
	confidence float64
	reading    models.LocationReading
	place      models.PlaceDetails
	err        error
	calls      int
}

func (s *stubLocator) Name() string        { return s.name }
func (s *stubLocator) Confidence() float64 { return s.confidence }

func (s *stubLocator) Locate(_ context.Context) (models.LocationReading, models.PlaceDetails, error) {
	s.calls++
	if s.err != nil {
		return models.LocationReading{}, models.PlaceDetails{}, s.err
	}
	return s.reading, s.place, nil
}

func newChainForTest(providers ...ipgeo.Provider) *ipgeo.Chain {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return ipgeo.NewChainWithProviders(providers, m, slog.Default())
}

func cityReading() (models.LocationReading, models.PlaceDetails) {
	reading := models.LocationReading{
		Coordinates: models.Coordinates{Latitude: 50.4501, Longitude: 30.5234},
		Source:      models.SourceIPGeolocation,
		Timestamp:   time.Now(),
	}
	place := models.PlaceDetails{
		City:       "Kyiv",
		Country:    "Ukraine",
		Provider:   "primary",
		Confidence: 0.60,
	}
	return reading, place
}

func TestChain_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("first provider wins", func(t *testing.T) {
		reading, place := cityReading()
		primary := &stubLocator{name: "primary", confidence: 0.60, reading: reading, place: place}
		secondary := &stubLocator{name: "secondary", confidence: 0.55}

		chain := newChainForTest(primary, secondary)
		resolved, err := chain.Resolve(ctx)

		require.NoError(t, err)
		assert.Equal(t, reading.Coordinates, resolved.Coordinates)
		assert.Equal(t, "Kyiv", resolved.Place.City)
		assert.Equal(t, models.AccuracyCityIP, resolved.AccuracyLevel)
		assert.True(t, resolved.IsValid)
		assert.Equal(t, 1, primary.calls)
		assert.Zero(t, secondary.calls, "later providers must not be queried after a success")
	})

	t.Run("falls through on failure", func(t *testing.T) {
		reading, place := cityReading()
		place.Provider = "secondary"
		primary := &stubLocator{name: "primary", confidence: 0.60, err: assert.AnError}
		secondary := &stubLocator{name: "secondary", confidence: 0.55, reading: reading, place: place}

		chain := newChainForTest(primary, secondary)
		resolved, err := chain.Resolve(ctx)

		require.NoError(t, err)
		assert.Equal(t, "secondary", resolved.Place.Provider)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("display name synthesized from place", func(t *testing.T) {
		reading, place := cityReading()
		primary := &stubLocator{name: "primary", confidence: 0.60, reading: reading, place: place}

		chain := newChainForTest(primary)
		resolved, err := chain.Resolve(ctx)

		require.NoError(t, err)
		assert.Equal(t, "Kyiv", resolved.DisplayName)
	})

	t.Run("all providers fail", func(t *testing.T) {
		first := &stubLocator{name: "first", err: assert.AnError}
		second := &stubLocator{name: "second", err: assert.AnError}

		chain := newChainForTest(first, second)
		_, err := chain.Resolve(ctx)

		require.Error(t, err)
		assert.Equal(t, 1, first.calls)
		assert.Equal(t, 1, second.calls)
	})
}
