package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRadialBinnerCoverage(t *testing.T) {
	binner := NewRadialBinner(250, 0.05, 100000.0, true)

	radii := []float64{0.001, 0.05, 0.1, 1, 10, 100, 1000, 10000, 99999.9}
	for _, r := range radii {
		bin := binner.Index(r)
		require.GreaterOrEqual(t, bin, 0, "r=%g", r)
		require.Less(t, bin, binner.NumBins, "r=%g", r)

		rInner, rOuter := binner.Bounds(bin)
		if r < binner.MinRadius {
			assert.Equal(t, 0, bin)
		} else {
			assert.LessOrEqual(t, rInner, r, "r=%g bin=%d", r, bin)
			assert.Greater(t, rOuter, r, "r=%g bin=%d", r, bin)
		}
	}
}

func TestRadialBinnerEdgeCases(t *testing.T) {
	binner := NewRadialBinner(250, 0.05, 100000.0, true)

	assert.Equal(t, -1, binner.Index(0))
	assert.Equal(t, -1, binner.Index(-5))
	assert.Equal(t, 0, binner.Index(0.01))
	assert.Equal(t, binner.NumBins-1, binner.Index(100000.0))
	assert.Equal(t, binner.NumBins-1, binner.Index(1e9))
}

func TestRadialBinnerMonotonicCenters(t *testing.T) {
	check := func(t *testing.T, binner RadialBinner) {
		t.Helper()
		for i := 0; i < binner.NumBins-1; i++ {
			assert.Less(t, binner.Center(i), binner.Center(i+1), "bin %d", i)
		}
	}

	t.Run("Logarithmic", func(t *testing.T) {
		check(t, NewRadialBinner(250, 0.05, 100000.0, true))
	})
	t.Run("Linear", func(t *testing.T) {
		check(t, NewRadialBinner(250, 0.05, 100000.0, false))
	})
}

func TestRadialBinnerFourBinScenario(t *testing.T) {
	binner := NewRadialBinner(4, 1.0, 100000.0, true)

	assert.Equal(t, 0, binner.Index(0.5))
	assert.Equal(t, 3, binner.Index(50000.0))

	assert.Less(t, binner.Center(0), binner.Center(1))
	assert.Less(t, binner.Center(1), binner.Center(2))
	assert.Less(t, binner.Center(2), binner.Center(3))
}

func TestRadialBinnerBoundsPartition(t *testing.T) {
	binner := NewRadialBinner(100, 0.05, 100000.0, true)

	rInner, _ := binner.Bounds(0)
	assert.Equal(t, 0.0, rInner)

	for i := 0; i < binner.NumBins-1; i++ {
		_, outer := binner.Bounds(i)
		nextInner, _ := binner.Bounds(i + 1)
		assert.InEpsilon(t, outer, nextInner, 1e-12, "bin %d", i)
	}

	_, last := binner.Bounds(binner.NumBins - 1)
	assert.InEpsilon(t, binner.MaxRadius, last, 1e-12)
}

func TestRadialBinnerAnnularArea(t *testing.T) {
	binner := NewRadialBinner(10, 1.0, 1000.0, true)
	for i := 0; i < binner.NumBins; i++ {
		rInner, rOuter := binner.Bounds(i)
		assert.InEpsilon(t, math.Pi*(rOuter*rOuter-rInner*rInner), binner.Area(i), 1e-12)
	}
}

func TestLinearBinner(t *testing.T) {
	binner := NewRadialBinner(10, 0.05, 100.0, false)

	assert.Equal(t, 0, binner.Index(5.0))
	assert.Equal(t, 5, binner.Index(55.0))
	assert.Equal(t, 9, binner.Index(99.0))
	assert.Equal(t, 9, binner.Index(500.0))
	assert.Equal(t, 15.0, binner.Center(1))
}

func TestDepthBinnerClampsToEdges(t *testing.T) {
	binner := NewDepthBinner(100, -50000.0, 150.0)

	assert.Equal(t, 0, binner.Index(-80000.0))
	assert.Equal(t, 99, binner.Index(1000.0))

	bin := binner.Index(0.0)
	assert.GreaterOrEqual(t, bin, 0)
	assert.Less(t, bin, 100)

	center := binner.Center(bin)
	halfWidth := (150.0 - (-50000.0)) / 100.0 / 2.0
	assert.InDelta(t, 0.0, center, halfWidth+1e-9)
}
