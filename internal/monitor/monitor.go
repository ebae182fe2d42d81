// Package monitor implements the continuous location monitoring session: a
// stateful subscription to ongoing position updates that re-resolves and
// re-validates on each delivery, tracks movement deltas, and fans out to
// registered observers.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fieldmark/beacon/internal/device"
	"github.com/fieldmark/beacon/internal/geo"
	"github.com/fieldmark/beacon/internal/metrics"
	"github.com/fieldmark/beacon/internal/models"
)

// significantMovementMeters is the delta between consecutive readings that
// counts as significant movement.
const significantMovementMeters = 1000.0

// ErrAlreadyMonitoring is returned when Start is called on an active session.
var ErrAlreadyMonitoring = errors.New("monitor session is already active")

// Update is a single monitoring tick delivered to observers.
type Update struct {
	Location   models.ResolvedLocation
	Validation models.ValidationResult
}

// Observer receives monitoring updates. Observers are invoked serially
// within a delivery; the order between observers is unspecified.
type Observer func(Update)

type placeResolver interface {
	Resolve(ctx context.Context, reading models.LocationReading) models.ResolvedLocation
}

type zoneValidator interface {
	Validate(loc models.ResolvedLocation, zones []models.GeofenceZone) models.ValidationResult
}

// Monitor is a continuous location monitoring session. Its lifecycle is
// Idle -> Monitoring -> Idle; Stop is idempotent and releases the platform
// subscription deterministically.
type Monitor struct {
	source    device.LocationSource
	places    placeResolver
	validator zoneValidator
	metrics   *metrics.Metrics
	log       *slog.Logger

	mu          sync.Mutex
	ctx         context.Context
	handle      device.WatchHandle
	zones       []models.GeofenceZone
	lastReading *models.LocationReading
	observers   map[int]Observer
	nextID      int
}

// New creates an idle monitor over the given collaborators.
func New(
	source device.LocationSource,
	places placeResolver,
	validator zoneValidator,
	m *metrics.Metrics,
	log *slog.Logger,
) *Monitor {
	return &Monitor{
		source:    source,
		places:    places,
		validator: validator,
		metrics:   m,
		log:       log,
		observers: make(map[int]Observer),
	}
}

// Start opens the platform continuous subscription and transitions to
// Monitoring. Starting an active session is an error.
func (m *Monitor) Start(ctx context.Context, zones []models.GeofenceZone, opts device.AcquireOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		return ErrAlreadyMonitoring
	}

	handle, err := m.source.Watch(m.onReading, m.onError, opts)
	if err != nil {
		return fmt.Errorf("failed to open location watch: %w", err)
	}

	m.ctx = ctx
	m.handle = handle
	m.zones = zones
	m.metrics.ActiveMonitors.Inc()
	m.log.InfoContext(ctx, "Location monitoring started", "zones", len(zones))

	return nil
}

// Stop releases the subscription and returns to Idle. Stopping an idle
// session, or stopping twice, is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return
	}

	m.handle.Cancel()
	m.handle = nil
	m.lastReading = nil
	m.zones = nil
	m.metrics.ActiveMonitors.Dec()
	m.log.Info("Location monitoring stopped")
}

// Subscribe registers an observer and returns its unsubscribe func.
// Registration and removal are safe while a delivery is in progress.
func (m *Monitor) Subscribe(obs Observer) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.observers[id] = obs

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// onReading is the platform delivery callback, invoked serially by the
// location subsystem.
func (m *Monitor) onReading(reading models.LocationReading) {
	// The geometry layer treats invalid input as a programming error, so an
	// unusable delivery must be dropped before any distance or zone math.
	if !geo.IsValidCoordinate(reading.Latitude, reading.Longitude) {
		m.log.Warn("Discarding unusable position delivery",
			"lat", reading.Latitude, "lon", reading.Longitude)
		return
	}

	m.mu.Lock()
	if m.handle == nil {
		// Delivery raced a Stop; the session no longer owns this reading.
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	zones := m.zones
	last := m.lastReading
	m.mu.Unlock()

	if last != nil {
		delta := geo.DistanceMeters(last.Coordinates, reading.Coordinates)
		if delta > significantMovementMeters {
			m.log.InfoContext(ctx, "Significant movement detected",
				"delta_m", delta,
				"from_lat", last.Latitude, "from_lon", last.Longitude,
				"to_lat", reading.Latitude, "to_lon", reading.Longitude,
			)
			m.metrics.SignificantMovements.Inc()
		}
	}

	resolved := m.places.Resolve(ctx, reading)
	validation := m.validator.Validate(resolved, zones)

	m.mu.Lock()
	m.lastReading = &reading
	// Snapshot the observer list so registration changes during delivery
	// cannot skip or duplicate an observer on the next tick.
	observers := make([]Observer, 0, len(m.observers))
	for _, obs := range m.observers {
		observers = append(observers, obs)
	}
	m.mu.Unlock()

	update := Update{Location: resolved, Validation: validation}
	for _, obs := range observers {
		obs(update)
	}
}

func (m *Monitor) onError(err error) {
	m.log.Warn("Location watch delivery failed", "error", err)
}
