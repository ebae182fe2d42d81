package geocoding

import (
	"strings"

	"github.com/fieldmark/beacon/internal/models"
)

// ClassifyAccuracy derives the ordinal accuracy tier of a resolved place.
// Rules are checked most specific first and the first match wins.
func ClassifyAccuracy(place models.PlaceDetails) string {
	landmark := place.Amenity != "" || place.Shop != "" || place.Tourism != ""

	switch {
	case place.HouseNumber != "" && place.Street != "":
		return models.AccuracyAddress
	case landmark:
		return models.AccuracyLandmark
	case place.Street != "":
		return models.AccuracyStreet
	case place.Neighbourhood != "" || place.Locality != "":
		return models.AccuracyArea
	case place.District != "" || place.Suburb != "":
		return models.AccuracyDistrict
	case place.City != "":
		return models.AccuracyCity
	case place.State != "" || place.Region != "":
		return models.AccuracyState
	default:
		return models.AccuracyCountry
	}
}

// DisplayName synthesizes a short human-readable name for a place, preferring
// the most specific field combinations available. The provider's full display
// string and finally the raw coordinate serve as last resorts.
func DisplayName(place models.PlaceDetails, coords models.Coordinates) string {
	landmark := firstNonEmpty(place.Amenity, place.Shop, place.Tourism, place.Place)
	locality := firstNonEmpty(place.Locality, place.Neighbourhood)
	area := firstNonEmpty(place.District, place.Suburb)

	rules := [][]string{
		{place.HouseNumber, place.Street, place.Neighbourhood, place.City},
		{place.HouseNumber, place.Street, place.City},
		{place.Street, place.Neighbourhood, place.City},
		{landmark, place.City},
		{place.Street, place.City},
		{locality, place.City},
		{area, place.City},
		{place.City, place.State},
		{place.City},
		{firstNonEmpty(place.State, place.County, place.Region)},
		{place.Country},
	}

	for _, parts := range rules {
		if allPresent(parts) {
			return strings.Join(parts, ", ")
		}
	}

	if segments := leadingSegments(place.FullDisplay); len(segments) > 0 {
		return strings.Join(segments, ", ")
	}

	return CoordinateString(coords)
}

// DetailedDisplay concatenates every available hierarchy field in specificity
// order. When more than six fields are present the output is capped to the
// four most specific components plus the two trailing ones to avoid unbounded
// strings.
func DetailedDisplay(place models.PlaceDetails) string {
	const (
		maxUncapped = 6
		leadKeep    = 4
		tailKeep    = 2
	)

	candidates := []string{
		place.HouseNumber,
		firstNonEmpty(place.Street, place.Amenity, place.Shop, place.Tourism, place.Place),
		firstNonEmpty(place.Neighbourhood, place.Locality),
		firstNonEmpty(place.District, place.Suburb),
		place.City,
		firstNonEmpty(place.State, place.Region),
		place.County,
		place.PostalCode,
		place.Country,
	}

	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" {
			parts = append(parts, c)
		}
	}

	if len(parts) > maxUncapped {
		capped := make([]string, 0, leadKeep+tailKeep)
		capped = append(capped, parts[:leadKeep]...)
		capped = append(capped, parts[len(parts)-tailKeep:]...)
		parts = capped
	}

	return strings.Join(parts, ", ")
}

// leadingSegments returns the first two or three comma-separated segments of
// a provider display string: three when that many exist, fewer otherwise.
func leadingSegments(display string) []string {
	if display == "" {
		return nil
	}

	const maxSegments = 3
	segments := []string{}
	for _, seg := range strings.Split(display, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
		if len(segments) == maxSegments {
			break
		}
	}
	return segments
}

func allPresent(parts []string) bool {
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return len(parts) > 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
