package models

// Accuracy levels, ordered from most to least specific. The classification
// rules live in the geocoding package; these are the display values shared
// with downstream consumers.
const (
	AccuracyAddress  = "Address Level"
	AccuracyLandmark = "Landmark Level"
	AccuracyStreet   = "Street Level"
	AccuracyArea     = "Area Level"
	AccuracyDistrict = "District Level"
	AccuracyCity     = "City Level"
	AccuracyState    = "State Level"
	AccuracyCountry  = "Country Level"
	AccuracyCityIP   = "City Level (IP-based)"
)

// PlaceDetails is the normalized address hierarchy produced by a reverse
// geocoding provider. Every field is optional and populated as far as the
// provider's response allows.
type PlaceDetails struct {
	HouseNumber   string `json:"house_number,omitempty"`
	Street        string `json:"street,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	Locality      string `json:"locality,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	District      string `json:"district,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	County        string `json:"county,omitempty"`
	Region        string `json:"region,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`

	// Landmark fields.
	Amenity string `json:"amenity,omitempty"`
	Shop    string `json:"shop,omitempty"`
	Tourism string `json:"tourism,omitempty"`
	Place   string `json:"place,omitempty"`

	// FullDisplay is the provider's own single-line rendering of the place,
	// kept for display-name synthesis fallback.
	FullDisplay string `json:"full_display,omitempty"`

	Provider   string  `json:"provider"`
	Confidence float64 `json:"confidence"` // fixed per provider, 0..1
}

// ResolvedLocation is a location reading enriched with place details and the
// derived presentation fields.
type ResolvedLocation struct {
	LocationReading
	Place         PlaceDetails `json:"place"`
	AccuracyLevel string       `json:"accuracy_level"`
	DisplayName   string       `json:"display_name"`
	IsValid       bool         `json:"is_valid"`
}
