// Package geo provides the pure geometry primitives the engine is built on:
// coordinate validity, great-circle distance and geofence containment.
package geo

import (
	"fmt"
	"math"

	"github.com/fieldmark/beacon/internal/models"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// IsValidCoordinate reports whether the pair is a usable position: latitude
// in [-90, 90], longitude in [-180, 180], and not the (0,0) null-island
// sentinel, which platforms emit for an unset reading.
func IsValidCoordinate(lat, lng float64) bool {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return true
}

// DistanceMeters returns the great-circle distance between two points.
// Feeding it an invalid coordinate is a programming error and panics rather
// than producing a silently wrong security decision.
func DistanceMeters(a, b models.Coordinates) float64 {
	mustBeValid(a)
	mustBeValid(b)

	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

func mustBeValid(c models.Coordinates) {
	if !IsValidCoordinate(c.Latitude, c.Longitude) {
		panic(fmt.Sprintf("geo: invalid coordinate (%f, %f)", c.Latitude, c.Longitude))
	}
}

// ZoneProximity reports how a point relates to a set of geofence zones.
// Nearest-by-distance and containment are independent facts: a point can be
// nearest to one zone while contained by another.
type ZoneProximity struct {
	WithinAnyZone               bool
	NearestZoneLabel            string
	DistanceToNearestZoneMeters float64
}

// NearestZone scans every zone, tracking the minimum centre distance and its
// label, and separately whether any zone's radius test passed. With no zones
// the distance is +Inf and nothing contains the point.
func NearestZone(point models.Coordinates, zones []models.GeofenceZone) ZoneProximity {
	prox := ZoneProximity{DistanceToNearestZoneMeters: math.Inf(1)}

	for _, zone := range zones {
		dist := DistanceMeters(point, zone.Coordinates)
		if dist <= zone.RadiusMeters {
			prox.WithinAnyZone = true
		}
		if dist < prox.DistanceToNearestZoneMeters {
			prox.DistanceToNearestZoneMeters = dist
			prox.NearestZoneLabel = zone.Label
		}
	}

	return prox
}
