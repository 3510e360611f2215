// Package postcode provides an in-memory postcode to coordinates index built
// from National Grid reference rows (Ordnance Survey Code-Point Open).
package postcode

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/UnknownOlympus/pscgeo/internal/models"
	"github.com/UnknownOlympus/pscgeo/internal/projection"
)

// ErrNotFound is returned when a postcode is not present in the index.
var ErrNotFound = errors.New("postcode not found")

type gridRef struct {
	easting  float64
	northing float64
}

// Index maps normalized postcodes to grid references. It is immutable once built.
type Index struct {
	refs map[string]gridRef
}

// Normalize canonicalizes a postcode for lookups: surrounding space is
// trimmed, letters are uppercased and all inner whitespace is removed, so
// "AB1 5XS", "ab15xs" and " AB1  5XS " share the same key.
func Normalize(postcode string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, postcode)
}

// Build creates an index from reference rows. Rows with an empty postcode are
// ignored; for duplicated postcodes the last row wins.
func Build(rows []models.GeoReferencePoint) *Index {
	refs := make(map[string]gridRef, len(rows))
	for _, row := range rows {
		key := Normalize(row.Postcode)
		if key == "" {
			continue
		}
		refs[key] = gridRef{easting: row.Easting, northing: row.Northing}
	}

	return &Index{refs: refs}
}

// Len returns the number of distinct postcodes in the index.
func (idx *Index) Len() int {
	return len(idx.refs)
}

// Lookup returns the WGS84 coordinates of a postcode. It returns ErrNotFound
// for unknown or empty postcodes and projection.ErrInvalidCoordinate when the
// stored grid reference cannot be converted.
func (idx *Index) Lookup(postcode string) (models.Coordinates, error) {
	key := Normalize(postcode)
	if key == "" {
		return models.Coordinates{}, ErrNotFound
	}

	ref, ok := idx.refs[key]
	if !ok {
		return models.Coordinates{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	coords, err := projection.ToWGS84(ref.easting, ref.northing)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to convert grid reference of %s: %w", key, err)
	}

	return coords, nil
}
