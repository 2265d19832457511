package circuit

import (
	"strings"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/points"
)

// TopThreeSizesProduct multiplies the three largest circuit sizes.
// Missing circuits count as size 0, so fewer than three circuits yields 0.
func TopThreeSizesProduct(t Tracker) int {
	return TopSizesProduct(t, 3)
}

// TopSizesProduct multiplies the k largest circuit sizes, treating missing
// circuits as size 0. It returns 1 for k <= 0.
func TopSizesProduct(t Tracker, k int) int {
	sizes := t.Sizes()
	product := 1
	for i := range max(k, 0) {
		if i >= len(sizes) {
			return 0
		}
		product *= sizes[i]
	}
	return product
}

// FinalConnectionResult runs d to a single circuit and returns the two
// points joined by the completing pair.
func FinalConnectionResult(d *Driver) (points.Point, points.Point, error) {
	j, err := d.FinalConnection()
	if err != nil {
		return points.Point{}, points.Point{}, err
	}
	return j.P, j.Q, nil
}

// Axis selects one coordinate of a point.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// ParseAxis accepts x, y or z in any case.
func ParseAxis(s string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case AxisX, AxisY, AxisZ:
		return a, nil
	}
	return "", cerrors.New(cerrors.ErrCodeInvalidConfig, "invalid axis %q (must be one of: x, y, z)", s)
}

// Of returns p's coordinate on the axis. Unknown axes select X.
func (a Axis) Of(p points.Point) uint64 {
	switch a {
	case AxisY:
		return p.Y
	case AxisZ:
		return p.Z
	default:
		return p.X
	}
}

// Combine multiplies the selected coordinate of a and b.
// Coordinates are below 2^31, so the product always fits.
func Combine(a, b points.Point, axis Axis) uint64 {
	return axis.Of(a) * axis.Of(b)
}
