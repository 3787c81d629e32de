package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/nmea_depth/internal/geo"
)

// northOf returns a point m meters due north of origin.
func northOf(origin geo.Point, m float64) geo.Point {
	return geo.Point{Lat: origin.Lat + m/geo.MetersPerNauticalMile/60.0, Lon: origin.Lon}
}

var origin = geo.Point{Lat: 53.2, Lon: 5.4}

func TestNewDecimator_Thresholds(t *testing.T) {
	_, err := NewDecimator(10, 10)
	assert.ErrorIs(t, err, ErrThresholds)
	_, err = NewDecimator(100, 50)
	assert.ErrorIs(t, err, ErrThresholds)
	_, err = NewDecimator(-1, 50)
	assert.Error(t, err)
	_, err = NewDecimator(10, DefaultJumpMeters)
	assert.NoError(t, err)
}

func TestDecimator_CumulativeDistance(t *testing.T) {
	d, err := NewDecimator(10, DefaultJumpMeters)
	require.NoError(t, err)

	var emitted []float64
	for _, m := range []float64{0, 5, 12, 40} {
		if d.Offer(northOf(origin, m)) {
			emitted = append(emitted, m)
		}
	}
	assert.Equal(t, []float64{12, 40}, emitted)
}

func TestDecimator_NotConsecutiveDistance(t *testing.T) {
	d, err := NewDecimator(10, DefaultJumpMeters)
	require.NoError(t, err)

	// Steps of 4 m never exceed 10 m between neighbours, but do so
	// cumulatively since the last emission.
	var emitted []float64
	for m := 0.0; m <= 24; m += 4 {
		if d.Offer(northOf(origin, m)) {
			emitted = append(emitted, m)
		}
	}
	assert.Equal(t, []float64{12, 24}, emitted)
}

func TestDecimator_FirstPointAnchorsOnly(t *testing.T) {
	d, err := NewDecimator(10, DefaultJumpMeters)
	require.NoError(t, err)

	_, ok := d.Last()
	assert.False(t, ok)
	assert.False(t, d.Offer(origin))
	last, ok := d.Last()
	assert.True(t, ok)
	assert.Equal(t, origin, last)
}

func TestDecimator_JumpResetsWithoutEmitting(t *testing.T) {
	d, err := NewDecimator(10, 1000)
	require.NoError(t, err)

	assert.False(t, d.Offer(origin))
	far := northOf(origin, 5000)
	assert.False(t, d.Offer(far), "jump must not emit")
	last, _ := d.Last()
	assert.Equal(t, far, last)

	assert.True(t, d.Offer(northOf(far, 20)))
}

func TestDecimator_Reset(t *testing.T) {
	d, err := NewDecimator(10, 1000)
	require.NoError(t, err)
	d.Offer(origin)
	d.Reset()
	_, ok := d.Last()
	assert.False(t, ok)
	assert.False(t, d.Offer(northOf(origin, 50)))
}
