// Package projection converts between the British National Grid (EPSG:27700)
// and WGS84 geographic coordinates (EPSG:4326).
//
// The grid is a Transverse Mercator projection of the Airy 1830 ellipsoid
// (OSGB36 datum). Datum shifts use the published 7-parameter Helmert
// transformation, which is accurate to a few metres nationally; the inverse
// mapping ToGrid reverses it to within millimetres.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/UnknownOlympus/pscgeo/internal/models"
)

// ErrInvalidCoordinate is returned for non-finite input or input outside the grid.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Grid extent, in metres.
const (
	MaxEasting  = 700000.0
	MaxNorthing = 1300000.0
)

type ellipsoid struct {
	a, b float64 // semi-major and semi-minor axes
}

func (e ellipsoid) e2() float64 { return 1 - (e.b*e.b)/(e.a*e.a) }

var (
	airy1830 = ellipsoid{a: 6377563.396, b: 6356256.909}
	wgs84    = ellipsoid{a: 6378137.0, b: 6356752.314245}
)

// National Grid projection constants.
const (
	scaleFactor   = 0.9996012717
	falseEasting  = 400000.0
	falseNorthing = -100000.0
	originLat     = 49.0 * math.Pi / 180
	originLon     = -2.0 * math.Pi / 180
	// Convergence limit for the meridional arc iteration, in metres.
	arcTolerance = 1e-5
	// Convergence limit for geodetic latitude, in radians.
	latTolerance = 1e-12
)

// helmert is a 7-parameter similarity transform between datums.
type helmert struct {
	tx, ty, tz float64 // translation, metres
	s          float64 // scale, ppm
	rx, ry, rz float64 // rotation, arc seconds
}

var osgb36ToWGS84 = helmert{
	tx: 446.448, ty: -125.157, tz: 542.060,
	s:  -20.4894,
	rx: 0.1502, ry: 0.2470, rz: 0.8421,
}

func (h helmert) inverse() helmert {
	return helmert{tx: -h.tx, ty: -h.ty, tz: -h.tz, s: -h.s, rx: -h.rx, ry: -h.ry, rz: -h.rz}
}

func (h helmert) apply(x, y, z float64) (float64, float64, float64) {
	const arcSecond = math.Pi / (180 * 3600)

	s1 := 1 + h.s*1e-6
	rx, ry, rz := h.rx*arcSecond, h.ry*arcSecond, h.rz*arcSecond

	return h.tx + x*s1 - y*rz + z*ry,
		h.ty + x*rz + y*s1 - z*rx,
		h.tz - x*ry + y*rx + z*s1
}

// ToWGS84 converts a National Grid easting/northing to WGS84 latitude/longitude.
func ToWGS84(easting, northing float64) (models.Coordinates, error) {
	if !isFinite(easting) || !isFinite(northing) {
		return models.Coordinates{}, fmt.Errorf("%w: non-finite grid reference (%v, %v)", ErrInvalidCoordinate, easting, northing)
	}
	if easting < 0 || easting > MaxEasting || northing < 0 || northing > MaxNorthing {
		return models.Coordinates{}, fmt.Errorf("%w: grid reference (%.1f, %.1f) outside the National Grid",
			ErrInvalidCoordinate, easting, northing)
	}

	lat, lon := gridToOSGB36(easting, northing)
	x, y, z := toCartesian(lat, lon, airy1830)
	x, y, z = osgb36ToWGS84.apply(x, y, z)
	lat, lon = toGeodetic(x, y, z, wgs84)

	return models.Coordinates{Latitude: degrees(lat), Longitude: degrees(lon)}, nil
}

// ToGrid converts WGS84 coordinates to a National Grid easting/northing.
func ToGrid(coords models.Coordinates) (float64, float64, error) {
	if !isFinite(coords.Latitude) || !isFinite(coords.Longitude) || !coords.Valid() {
		return 0, 0, fmt.Errorf("%w: latitude %v, longitude %v", ErrInvalidCoordinate, coords.Latitude, coords.Longitude)
	}

	x, y, z := toCartesian(radians(coords.Latitude), radians(coords.Longitude), wgs84)
	x, y, z = osgb36ToWGS84.inverse().apply(x, y, z)
	lat, lon := toGeodetic(x, y, z, airy1830)
	easting, northing := osgb36ToGrid(lat, lon)

	return easting, northing, nil
}

// meridionalArc is the developed arc of the meridian from the true origin to lat.
func meridionalArc(lat float64) float64 {
	n := (airy1830.a - airy1830.b) / (airy1830.a + airy1830.b)
	n2, n3 := n*n, n*n*n
	dLat, sLat := lat-originLat, lat+originLat

	ma := (1 + n + 5.0/4*n2 + 5.0/4*n3) * dLat
	mb := (3*n + 3*n2 + 21.0/8*n3) * math.Sin(dLat) * math.Cos(sLat)
	mc := (15.0/8*n2 + 15.0/8*n3) * math.Sin(2*dLat) * math.Cos(2*sLat)
	md := 35.0 / 24 * n3 * math.Sin(3*dLat) * math.Cos(3*sLat)

	return airy1830.b * scaleFactor * (ma - mb + mc - md)
}

// radii returns the transverse (nu) and meridional (rho) radii of curvature and eta².
func radii(lat float64) (float64, float64, float64) {
	e2 := airy1830.e2()
	sin := math.Sin(lat)
	denom := 1 - e2*sin*sin

	nu := airy1830.a * scaleFactor / math.Sqrt(denom)
	rho := airy1830.a * scaleFactor * (1 - e2) / math.Pow(denom, 1.5)

	return nu, rho, nu/rho - 1
}

func gridToOSGB36(easting, northing float64) (float64, float64) {
	lat, arc := originLat, 0.0
	for {
		lat += (northing - falseNorthing - arc) / (airy1830.a * scaleFactor)
		arc = meridionalArc(lat)
		if math.Abs(northing-falseNorthing-arc) < arcTolerance {
			break
		}
	}

	nu, rho, eta2 := radii(lat)
	tan, sec := math.Tan(lat), 1/math.Cos(lat)
	tan2, tan4, tan6 := tan*tan, math.Pow(tan, 4), math.Pow(tan, 6)

	vii := tan / (2 * rho * nu)
	viii := tan / (24 * rho * math.Pow(nu, 3)) * (5 + 3*tan2 + eta2 - 9*tan2*eta2)
	ix := tan / (720 * rho * math.Pow(nu, 5)) * (61 + 90*tan2 + 45*tan4)
	x := sec / nu
	xi := sec / (6 * math.Pow(nu, 3)) * (nu/rho + 2*tan2)
	xii := sec / (120 * math.Pow(nu, 5)) * (5 + 28*tan2 + 24*tan4)
	xiia := sec / (5040 * math.Pow(nu, 7)) * (61 + 662*tan2 + 1320*tan4 + 720*tan6)

	de := easting - falseEasting
	lat = lat - vii*de*de + viii*math.Pow(de, 4) - ix*math.Pow(de, 6)
	lon := originLon + x*de - xi*math.Pow(de, 3) + xii*math.Pow(de, 5) - xiia*math.Pow(de, 7)

	return lat, lon
}

func osgb36ToGrid(lat, lon float64) (float64, float64) {
	nu, rho, eta2 := radii(lat)
	sin, cos, tan := math.Sin(lat), math.Cos(lat), math.Tan(lat)
	tan2, tan4 := tan*tan, math.Pow(tan, 4)

	i := meridionalArc(lat) + falseNorthing
	ii := nu / 2 * sin * cos
	iii := nu / 24 * sin * math.Pow(cos, 3) * (5 - tan2 + 9*eta2)
	iiia := nu / 720 * sin * math.Pow(cos, 5) * (61 - 58*tan2 + tan4)
	iv := nu * cos
	v := nu / 6 * math.Pow(cos, 3) * (nu/rho - tan2)
	vi := nu / 120 * math.Pow(cos, 5) * (5 - 18*tan2 + tan4 + 14*eta2 - 58*tan2*eta2)

	dl := lon - originLon
	northing := i + ii*dl*dl + iii*math.Pow(dl, 4) + iiia*math.Pow(dl, 6)
	easting := falseEasting + iv*dl + v*math.Pow(dl, 3) + vi*math.Pow(dl, 5)

	return easting, northing
}

func toCartesian(lat, lon float64, ell ellipsoid) (float64, float64, float64) {
	e2 := ell.e2()
	sin := math.Sin(lat)
	nu := ell.a / math.Sqrt(1-e2*sin*sin)

	return nu * math.Cos(lat) * math.Cos(lon),
		nu * math.Cos(lat) * math.Sin(lon),
		(1 - e2) * nu * sin
}

func toGeodetic(x, y, z float64, ell ellipsoid) (float64, float64) {
	e2 := ell.e2()
	p := math.Hypot(x, y)

	lat := math.Atan2(z, p*(1-e2))
	for range 100 {
		sin := math.Sin(lat)
		nu := ell.a / math.Sqrt(1-e2*sin*sin)
		next := math.Atan2(z+e2*nu*sin, p)
		if math.Abs(next-lat) < latTolerance {
			lat = next
			break
		}
		lat = next
	}

	return lat, math.Atan2(y, x)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
