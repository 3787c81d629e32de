package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepthSymbol(t *testing.T) {
	tests := []struct {
		depth float64
		want  string
	}{
		{2.3, "depth_2-3"},
		{2.0, "depth_2-0"},
		{0.0, "depth_0-0"},
		{12.96, "depth_13-0"},
		{-0.5, "dry_0-5"},
		{-1.24, "dry_1-2"},
		{-0.04, "depth_0-0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DepthSymbol(tt.depth), "depth %v", tt.depth)
	}
}

func TestScaleMin(t *testing.T) {
	tests := map[int]int{
		0:  32 * 800,
		1:  800,
		2:  1600,
		3:  800,
		4:  3200,
		6:  1600,
		8:  6400,
		12: 3200,
		16: 12800,
		31: 800,
		32: 32 * 800,
		48: 12800,
	}
	for i, want := range tests {
		assert.Equal(t, want, ScaleMin(i), "index %d", i)
	}
}

func TestRound1(t *testing.T) {
	assert.InDelta(t, 2.3, Round1(2.3-1e-12), 1e-12)
	assert.InDelta(t, -0.5, Round1(-0.45-1e-9), 1e-12)
}
