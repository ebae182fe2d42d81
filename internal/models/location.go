package models

import "time"

// Source identifies how a location reading was obtained.
type Source string

const (
	// SourceDeviceGPS marks readings acquired from the device positioning hardware.
	SourceDeviceGPS Source = "device_gps"
	// SourceIPGeolocation marks readings derived from the caller's network identity.
	SourceIPGeolocation Source = "ip_geolocation"
	// SourceStaticFallback marks the hardcoded last-resort location.
	SourceStaticFallback Source = "static_fallback"
)

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`  // Latitude of the geographical point, degrees.
	Longitude float64 `json:"longitude"` // Longitude of the geographical point, degrees.
}

// LocationReading is a single position fix together with its capture metadata.
// Accuracy is the radius of uncertainty in meters; zero means the source did
// not report one. Altitude, Speed and Heading are likewise optional.
type LocationReading struct {
	Coordinates
	Accuracy  float64   `json:"accuracy,omitempty"` // meters
	Altitude  float64   `json:"altitude,omitempty"` // meters above sea level
	Speed     float64   `json:"speed,omitempty"`    // m/s
	Heading   float64   `json:"heading,omitempty"`  // degrees from north
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
}
