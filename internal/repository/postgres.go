package repository

import (
	"context"
	"fmt"

	"github.com/fieldmark/beacon/internal/models"
)

// FetchActiveSites retrieves every active authorized site as a geofence zone.
// Sites with a null or non-positive radius are excluded because they cannot
// participate in a containment decision. Results are ordered by label so the
// zone list is stable across calls.
func (r *Repository) FetchActiveSites(ctx context.Context) ([]models.GeofenceZone, error) {
	var zones []models.GeofenceZone
	query := `
		SELECT label, latitude, longitude, radius_meters
		FROM public.sites
		WHERE
			is_active = true
			AND radius_meters > 0
		ORDER BY label ASC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var zone models.GeofenceZone
		if errScan := rows.Scan(&zone.Label, &zone.Latitude, &zone.Longitude, &zone.RadiusMeters); errScan != nil {
			return nil, fmt.Errorf("failed to scan active site: %w", errScan)
		}
		r.log.DebugContext(ctx, "Loaded authorized site",
			"label", zone.Label, "radius_m", zone.RadiusMeters)
		zones = append(zones, zone)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return zones, nil
}

// DeactivateSite removes a site from the active zone set without deleting its
// record. It returns an error if the update fails.
func (r *Repository) DeactivateSite(ctx context.Context, label string) error {
	query := `
		UPDATE sites
		SET is_active = false
		WHERE label = $1;
	`

	_, err := r.db.Exec(ctx, query, label)
	if err != nil {
		return fmt.Errorf("failed to deactivate site: %w", err)
	}

	return nil
}
