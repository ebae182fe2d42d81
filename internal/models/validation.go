package models

// GeofenceZone is an authorized circular site supplied by the caller.
type GeofenceZone struct {
	Coordinates
	RadiusMeters float64 `json:"radius_meters"`
	Label        string  `json:"label"`
}

// RiskLevel classifies the severity of a validation verdict.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// severity orders risk levels so independent rules can be max-reduced.
var severity = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Severity returns the ordinal of the risk level, lowest first.
func (r RiskLevel) Severity() int {
	return severity[r]
}

// MaxRisk returns the more severe of two risk levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// SecurityAssessment summarizes geofence containment for risk scoring.
type SecurityAssessment struct {
	WithinAnyZone               bool      `json:"within_any_zone"`
	NearestZoneLabel            string    `json:"nearest_zone_label"`
	DistanceToNearestZoneMeters float64   `json:"distance_to_nearest_zone_meters"`
	RiskLevel                   RiskLevel `json:"risk_level"`
}

// ValidationResult is the verdict produced by the geofence validator.
type ValidationResult struct {
	IsValid         bool               `json:"is_valid"`
	Warnings        []string           `json:"warnings"`
	Recommendations []string           `json:"recommendations"`
	Security        SecurityAssessment `json:"security_assessment"`
}
