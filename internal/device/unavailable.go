package device

import (
	"context"
	"errors"

	"github.com/fieldmark/beacon/internal/models"
)

// ErrNoSource is returned when a deployment without a device feed tries to
// open a continuous watch.
var ErrNoSource = errors.New("no device location source configured")

// UnavailableSource is the LocationSource for deployments with no device
// position feed. Every one-shot acquisition fails as PositionUnavailable,
// which sends the orchestrator straight to the IP fallback tier.
type UnavailableSource struct{}

// NewUnavailableSource returns the always-failing source.
func NewUnavailableSource() *UnavailableSource {
	return &UnavailableSource{}
}

func (*UnavailableSource) GetCurrent(_ context.Context, _ AcquireOptions) (models.LocationReading, error) {
	return models.LocationReading{}, Classify(CodePositionUnavailable, ErrNoSource.Error())
}

func (*UnavailableSource) Watch(
	_ func(models.LocationReading),
	_ func(error),
	_ AcquireOptions,
) (WatchHandle, error) {
	return nil, ErrNoSource
}
