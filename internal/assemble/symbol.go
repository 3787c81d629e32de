package assemble

import (
	"fmt"
	"math"
)

const (
	scaleCycle = 32
	scaleUnit  = 800
)

// Round1 rounds to one decimal.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DepthSymbol names the chart symbol for a corrected depth in meters:
// "depth_{m}-{dm}" at or below datum, "dry_{m}-{dm}" above it, where m is
// the whole meters and dm the first decimal of |depth|.
func DepthSymbol(depth float64) string {
	depth = Round1(depth)
	name := "depth"
	if depth < 0 {
		name = "dry"
	}
	tenths := int(math.Round(math.Abs(depth) * 10))
	return fmt.Sprintf("%s_%d-%d", name, tenths/10, tenths%10)
}

// ScaleMin returns the minimum display scale for the i-th waypoint. It
// swings like a pendulum over a cycle of 32: the lowest set bit of
// i mod 32 (32 for 0), times 800. Neighbouring waypoints get different
// scales so that zooming out thins the layer evenly.
func ScaleMin(i int) int {
	a := i % scaleCycle
	if a < 0 {
		a += scaleCycle
	}
	if a == 0 {
		return scaleCycle * scaleUnit
	}
	return (a & -a) * scaleUnit
}
