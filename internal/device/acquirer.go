package device

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldmark/beacon/internal/geo"
	"github.com/fieldmark/beacon/internal/models"
)

// Acquisition timeouts. Low accuracy is tried first because it succeeds more
// often on constrained hardware and under restrictive policies.
const (
	lowAccuracyTimeout  = 30 * time.Second
	lowAccuracyCacheAge = 10 * time.Minute
	highAccuracyTimeout = 20 * time.Second
)

// Acquirer obtains one-shot positions from a LocationSource with a two-tier
// accuracy retry policy. It never fabricates a fallback position; both
// failures propagate a classified *AcquisitionError to the orchestrator.
type Acquirer struct {
	source LocationSource
	log    *slog.Logger
}

// NewAcquirer creates an Acquirer over the given platform source.
func NewAcquirer(source LocationSource, log *slog.Logger) *Acquirer {
	return &Acquirer{source: source, log: log}
}

// AcquireBestEffort tries a low-accuracy fix first (generous timeout, cached
// fixes accepted), then a fresh high-accuracy fix. The error from the last
// attempt is returned when both fail.
func (a *Acquirer) AcquireBestEffort(ctx context.Context) (models.LocationReading, error) {
	reading, err := a.AcquireOnce(ctx, AcquireOptions{
		HighAccuracy: false,
		Timeout:      lowAccuracyTimeout,
		MaxCacheAge:  lowAccuracyCacheAge,
	})
	if err == nil {
		return reading, nil
	}
	a.log.WarnContext(ctx, "Low-accuracy acquisition failed, retrying with high accuracy", "error", err)

	reading, err = a.AcquireOnce(ctx, AcquireOptions{
		HighAccuracy: true,
		Timeout:      highAccuracyTimeout,
	})
	if err == nil {
		return reading, nil
	}
	a.log.WarnContext(ctx, "High-accuracy acquisition failed", "error", err)

	return models.LocationReading{}, err
}

// AcquireOnce performs a single bounded acquisition attempt. The source call
// runs in its own goroutine with a buffered result channel; a result arriving
// after the timeout is discarded, never merged into a later step's output.
func (a *Acquirer) AcquireOnce(ctx context.Context, opts AcquireOptions) (models.LocationReading, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	type outcome struct {
		reading models.LocationReading
		err     error
	}
	results := make(chan outcome, 1)

	go func() {
		reading, err := a.source.GetCurrent(attemptCtx, opts)
		results <- outcome{reading: reading, err: err}
	}()

	select {
	case <-attemptCtx.Done():
		return models.LocationReading{}, Classify(CodeTimeout, "no position fix within the configured timeout")
	case res := <-results:
		if res.err != nil {
			return models.LocationReading{}, asAcquisitionError(res.err)
		}
		return a.normalize(res.reading)
	}
}

func (a *Acquirer) normalize(reading models.LocationReading) (models.LocationReading, error) {
	if !geo.IsValidCoordinate(reading.Latitude, reading.Longitude) {
		return models.LocationReading{}, Classify(CodePositionUnavailable, "source reported an invalid coordinate")
	}
	reading.Source = models.SourceDeviceGPS
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}
	return reading, nil
}

// asAcquisitionError keeps already-classified errors intact and classifies
// anything else by its message alone.
func asAcquisitionError(err error) *AcquisitionError {
	var acqErr *AcquisitionError
	if errors.As(err, &acqErr) {
		return acqErr
	}
	return Classify(0, err.Error())
}
