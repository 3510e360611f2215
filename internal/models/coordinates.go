package models

import "math"

// Coordinates represents a geographical point defined by its longitude and latitude (WGS84).
type Coordinates struct {
	Longitude float64 // Longitude of the geographical point.
	Latitude  float64 // Latitude of the geographical point.
}

// Valid reports whether both components are finite and inside the geographic range.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// GeoReferencePoint is a single postcode row of the grid reference data.
type GeoReferencePoint struct {
	Postcode string  // Postcode, normalized by the index on build.
	Easting  float64 // Easting on the British National Grid, in metres.
	Northing float64 // Northing on the British National Grid, in metres.
}
