// Package geofence applies distance, accuracy and staleness rules to a
// resolved location and produces a risk-classified validation verdict against
// a set of authorized zones.
package geofence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldmark/beacon/internal/geo"
	"github.com/fieldmark/beacon/internal/models"
)

// Rule thresholds.
const (
	criticalDistanceMeters = 5000.0
	highDistanceMeters     = 1000.0
	maxAccuracyMeters      = 100.0
	maxReadingAge          = 5 * time.Minute
)

// Validator evaluates each rule independently and reduces the outcomes by
// maximum severity, so the final level never depends on evaluation order.
type Validator struct {
	log *slog.Logger
	now func() time.Time
}

// NewValidator creates a Validator using the wall clock.
func NewValidator(log *slog.Logger) *Validator {
	return &Validator{log: log, now: time.Now}
}

// NewValidatorWithClock allows injecting the clock for staleness tests.
func NewValidatorWithClock(log *slog.Logger, now func() time.Time) *Validator {
	return &Validator{log: log, now: now}
}

// outcome is the result of one independently evaluated rule. A nil-risk rule
// contributes nothing.
type outcome struct {
	risk           models.RiskLevel
	warning        string
	recommendation string
}

// Validate checks a resolved location against the authorized zones. The
// verdict is valid only when every rule stays at LOW risk.
func (v *Validator) Validate(loc models.ResolvedLocation, zones []models.GeofenceZone) models.ValidationResult {
	prox := geo.NearestZone(loc.Coordinates, zones)

	outcomes := []outcome{
		distanceRule(prox),
		accuracyRule(loc),
		stalenessRule(loc, v.now()),
	}

	risk := models.RiskLow
	warnings := []string{}
	recommendations := []string{}
	for _, out := range outcomes {
		if out.risk == "" {
			continue
		}
		risk = models.MaxRisk(risk, out.risk)
		if out.warning != "" {
			warnings = append(warnings, out.warning)
		}
		if out.recommendation != "" {
			recommendations = append(recommendations, out.recommendation)
		}
	}

	result := models.ValidationResult{
		IsValid:         risk == models.RiskLow,
		Warnings:        warnings,
		Recommendations: recommendations,
		Security: models.SecurityAssessment{
			WithinAnyZone:               prox.WithinAnyZone,
			NearestZoneLabel:            prox.NearestZoneLabel,
			DistanceToNearestZoneMeters: prox.DistanceToNearestZoneMeters,
			RiskLevel:                   risk,
		},
	}

	v.log.Debug("Location validated",
		"risk", risk,
		"within_zone", prox.WithinAnyZone,
		"nearest_zone", prox.NearestZoneLabel,
		"distance_m", prox.DistanceToNearestZoneMeters,
	)

	return result
}

// distanceRule bands the distance to the nearest zone. The bands only apply
// when the point is outside every zone: inside a zone, centre distance says
// nothing about authorization.
func distanceRule(prox geo.ZoneProximity) outcome {
	if prox.WithinAnyZone {
		return outcome{}
	}

	dist := prox.DistanceToNearestZoneMeters
	switch {
	case dist > criticalDistanceMeters:
		return outcome{
			risk: models.RiskCritical,
			warning: fmt.Sprintf("location is %.0f m from the nearest authorized site (%s)",
				dist, prox.NearestZoneLabel),
			recommendation: "re-verify the location before accepting this record",
		}
	case dist > highDistanceMeters:
		return outcome{
			risk: models.RiskHigh,
			warning: fmt.Sprintf("location is %.0f m from the nearest authorized site (%s)",
				dist, prox.NearestZoneLabel),
			recommendation: "confirm the field agent is at the intended site",
		}
	default:
		return outcome{
			risk: models.RiskMedium,
			warning: fmt.Sprintf("location is outside every authorized site, %.0f m from %s",
				dist, prox.NearestZoneLabel),
			recommendation: "move closer to the site boundary and retry",
		}
	}
}

// accuracyRule escalates when the reading's uncertainty radius is too wide to
// trust a containment decision.
func accuracyRule(loc models.ResolvedLocation) outcome {
	if loc.Accuracy <= 0 || loc.Accuracy <= maxAccuracyMeters {
		return outcome{}
	}
	return outcome{
		risk:           models.RiskMedium,
		warning:        fmt.Sprintf("position accuracy is %.0f m, too coarse for a reliable geofence decision", loc.Accuracy),
		recommendation: "retry in an open area for a tighter GPS fix",
	}
}

// stalenessRule escalates when the reading was captured too long ago.
func stalenessRule(loc models.ResolvedLocation, now time.Time) outcome {
	if loc.Timestamp.IsZero() {
		return outcome{}
	}
	age := now.Sub(loc.Timestamp)
	if age <= maxReadingAge {
		return outcome{}
	}
	return outcome{
		risk:           models.RiskMedium,
		warning:        fmt.Sprintf("location reading is %s old", age.Round(time.Second)),
		recommendation: "capture a fresh position before submitting",
	}
}
