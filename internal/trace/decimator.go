package trace

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/nmea_depth/internal/geo"
)

// DefaultJumpMeters is the displacement treated as a stream discontinuity.
const DefaultJumpMeters = 10000.0

// ErrThresholds is returned when the jump threshold does not exceed the
// emission interval.
var ErrThresholds = errors.New("trace: jump threshold must be larger than interval")

// Decimator emits a point only when it lies more than interval meters from
// the last emitted point. Displacements above jump meters re-anchor the
// filter without emitting.
type Decimator struct {
	interval float64
	jump     float64

	last   geo.Point
	primed bool
}

// NewDecimator builds a decimator for the given thresholds in meters.
func NewDecimator(intervalM, jumpM float64) (*Decimator, error) {
	if intervalM < 0 {
		return nil, fmt.Errorf("trace: interval must be >= 0, got %v", intervalM)
	}
	if jumpM <= intervalM {
		return nil, fmt.Errorf("%w (interval=%v, jump=%v)", ErrThresholds, intervalM, jumpM)
	}
	return &Decimator{interval: intervalM, jump: jumpM}, nil
}

// Offer feeds a candidate point and reports whether it should be emitted.
func (d *Decimator) Offer(p geo.Point) bool {
	if !d.primed {
		d.last = p
		d.primed = true
		return false
	}

	dist := geo.Meters(p, d.last)
	switch {
	case dist > d.jump:
		d.last = p
		return false
	case dist > d.interval:
		d.last = p
		return true
	default:
		return false
	}
}

// Last returns the anchor point and whether the decimator has one yet.
func (d *Decimator) Last() (geo.Point, bool) {
	return d.last, d.primed
}

// Reset returns the decimator to its initial, unanchored state.
func (d *Decimator) Reset() {
	d.last = geo.Point{}
	d.primed = false
}
