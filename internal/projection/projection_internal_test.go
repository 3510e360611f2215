package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Worked example from the Ordnance Survey guide to coordinate systems in Great Britain.
func TestGridToOSGB36_WorkedExample(t *testing.T) {
	lat, lon := gridToOSGB36(651409.903, 313177.270)

	assert.InDelta(t, 52.65757030, degrees(lat), 1e-7)
	assert.InDelta(t, 1.71792158, degrees(lon), 1e-7)

	easting, northing := osgb36ToGrid(lat, lon)
	assert.InDelta(t, 651409.903, easting, 0.001)
	assert.InDelta(t, 313177.270, northing, 0.001)
}

func TestHelmert_InverseUndoesShift(t *testing.T) {
	x, y, z := toCartesian(radians(52.6575703), radians(1.7179216), airy1830)

	sx, sy, sz := osgb36ToWGS84.apply(x, y, z)
	bx, by, bz := osgb36ToWGS84.inverse().apply(sx, sy, sz)

	assert.InDelta(t, x, bx, 0.01)
	assert.InDelta(t, y, by, 0.01)
	assert.InDelta(t, z, bz, 0.01)
}
