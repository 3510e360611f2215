package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/pscgeo/internal/models"
	"github.com/jackc/pgx/v5"
)

const postcodesTable = "postcodes"

// EnsureSchema creates the postcode table when it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS public.postcodes (
			postcode  TEXT PRIMARY KEY,
			eastings  DOUBLE PRECISION NOT NULL,
			northings DOUBLE PRECISION NOT NULL
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create postcodes table: %w", err)
	}

	return nil
}

// FetchPostcodes returns every stored postcode grid reference.
func (r *Repository) FetchPostcodes(ctx context.Context) ([]models.GeoReferencePoint, error) {
	query := `
		SELECT postcode, eastings, northings
		FROM public.postcodes;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query postcodes: %w", err)
	}
	defer rows.Close()

	var points []models.GeoReferencePoint
	for rows.Next() {
		var point models.GeoReferencePoint
		if errScan := rows.Scan(&point.Postcode, &point.Easting, &point.Northing); errScan != nil {
			return nil, fmt.Errorf("failed to scan postcode: %w", errScan)
		}
		points = append(points, point)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	r.log.DebugContext(ctx, "Postcodes fetched from database", "count", len(points))
	return points, nil
}

// StorePostcodes replaces the stored postcodes with points using a bulk copy.
// Later duplicates of a postcode win, matching the in-memory index.
func (r *Repository) StorePostcodes(ctx context.Context, points []models.GeoReferencePoint) (int64, error) {
	if _, err := r.db.Exec(ctx, `TRUNCATE TABLE public.postcodes;`); err != nil {
		return 0, fmt.Errorf("failed to truncate postcodes: %w", err)
	}

	unique := dedupe(points)
	copied, err := r.db.CopyFrom(
		ctx,
		pgx.Identifier{"public", postcodesTable},
		[]string{"postcode", "eastings", "northings"},
		pgx.CopyFromSlice(len(unique), func(i int) ([]any, error) {
			return []any{unique[i].Postcode, unique[i].Easting, unique[i].Northing}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy postcodes: %w", err)
	}

	r.log.InfoContext(ctx, "Postcodes stored", "count", copied)
	return copied, nil
}

func dedupe(points []models.GeoReferencePoint) []models.GeoReferencePoint {
	index := make(map[string]int, len(points))
	unique := make([]models.GeoReferencePoint, 0, len(points))
	for _, point := range points {
		if i, ok := index[point.Postcode]; ok {
			unique[i] = point
			continue
		}
		index[point.Postcode] = len(unique)
		unique = append(unique, point)
	}
	return unique
}
