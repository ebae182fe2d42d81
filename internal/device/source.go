// Package device wraps a platform location source behind an injectable
// interface and implements the two-tier best-effort acquisition policy on
// top of it.
package device

import (
	"context"
	"time"

	"github.com/fieldmark/beacon/internal/models"
)

// AcquireOptions mirror the knobs a platform location source accepts.
type AcquireOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxCacheAge  time.Duration // accept a cached fix no older than this; zero requires a fresh fix
}

// WatchHandle represents an active continuous subscription. Cancel releases
// the underlying platform resources and must be safe to call more than once.
type WatchHandle interface {
	Cancel()
}

// LocationSource abstracts the platform's positioning capability so the
// acquisition and monitoring logic is testable without real hardware.
// GetCurrent returns a single fix or a classified *AcquisitionError.
// Watch delivers fixes continuously until the handle is cancelled; the
// platform invokes the callbacks serially.
type LocationSource interface {
	GetCurrent(ctx context.Context, opts AcquireOptions) (models.LocationReading, error)
	Watch(onReading func(models.LocationReading), onError func(error), opts AcquireOptions) (WatchHandle, error)
}
