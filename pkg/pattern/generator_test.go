package pattern

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreece2304/EBeamSim-sub000/errors"
)

func TestCalculateDwellTime(t *testing.T) {
	t.Run("UnclampedFrequency", func(t *testing.T) {
		p := DefaultParameters()
		p.BeamCurrent = 2.0
		p.Dose = 400.0
		p.EOSMode = EOSMode3
		p.ShotPitch = 4 // exposure grid 4 nm

		g := NewGenerator(p)
		require.NoError(t, g.Generate())

		// 2000 pA * 100 / (400 * 16) = 31.25 MHz
		assert.Equal(t, 31.25, g.ClockFrequency)
		assert.InDelta(t, 0.032, g.BaseDwellTime, 1e-12)
		assert.False(t, g.Clamped)
		assert.Equal(t, 400.0, g.AchievedDose)
	})

	t.Run("ClampedAtHardwareLimit", func(t *testing.T) {
		p := DefaultParameters()
		p.BeamCurrent = 20.0
		p.Dose = 100.0
		p.ShotPitch = 2 // exposure grid 2 nm

		g := NewGenerator(p)
		require.NoError(t, g.Generate())

		// unclamped frequency would be 20000 * 100 / (100 * 4) = 5000 MHz
		assert.True(t, g.Clamped)
		assert.Equal(t, MaxClockFrequency, g.ClockFrequency)
		assert.Equal(t, 10000.0, g.AchievedDose)
		assert.InDelta(t, 0.02, g.BaseDwellTime, 1e-12)
	})
}

func TestDwellTimeScalesWithModulation(t *testing.T) {
	p := DefaultParameters()
	require.NoError(t, p.SetModulation(1, 0.5))
	require.NoError(t, p.SetModulation(2, 1.5))

	g := NewGenerator(p)
	require.NoError(t, g.Generate())

	assert.Equal(t, g.BaseDwellTime, g.DwellTime(0))
	assert.Equal(t, g.BaseDwellTime*0.5, g.DwellTime(1))
	assert.Equal(t, g.BaseDwellTime*1.5, g.DwellTime(2))
}

func TestElectronsPerPoint(t *testing.T) {
	p := DefaultParameters()
	g := NewGenerator(p)
	require.NoError(t, g.Generate())

	// 2 nA * 0.032 us / e = 399.46 electrons
	assert.Equal(t, 399, g.ElectronsPerPoint())
}

func TestGenerateRejectsInvalidConfiguration(t *testing.T) {
	p := DefaultParameters()
	p.ShotPitch = 3

	g := NewGenerator(p)
	err := g.Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shot pitch")

	_, err = g.CurrentShot()
	assert.ErrorIs(t, err, errors.ErrPatternNotGenerated)
}

func TestSquareShotCount(t *testing.T) {
	g := NewGenerator(DefaultParameters())
	require.NoError(t, g.Generate())

	// 1 um square on a 4 nm grid
	assert.Equal(t, 250*250, g.TotalShots())
	assert.Equal(t, 1, g.TotalFields())
	for _, s := range g.Shots() {
		assert.Equal(t, 0, s.FieldID)
	}
}

func TestScanOrdersVisitSamePoints(t *testing.T) {
	points := func(order ScanOrder) [][2]float64 {
		p := DefaultParameters()
		p.Size = 40.0
		p.ScanOrder = order
		g := NewGenerator(p)
		require.NoError(t, g.Generate())

		pts := make([][2]float64, 0, g.TotalShots())
		for _, s := range g.Shots() {
			pts = append(pts, [2]float64{s.X, s.Y})
		}
		sort.Slice(pts, func(a, b int) bool {
			if pts[a][1] != pts[b][1] {
				return pts[a][1] < pts[b][1]
			}
			return pts[a][0] < pts[b][0]
		})
		return pts
	}

	raster := points(Raster)
	assert.Equal(t, raster, points(Serpentine))
	assert.Equal(t, raster, points(Spiral))
	assert.Len(t, raster, 100)
}

func TestSquareRankClassification(t *testing.T) {
	p := DefaultParameters()
	p.Size = 16.0
	g := NewGenerator(p)
	require.NoError(t, g.Generate())

	rankAt := func(x, y float64) uint8 {
		for _, s := range g.Shots() {
			if s.X == x && s.Y == y {
				return s.Rank
			}
		}
		t.Fatalf("no shot at (%g, %g)", x, y)
		return 0
	}

	assert.Equal(t, uint8(2), rankAt(-8, -8), "corner")
	assert.Equal(t, uint8(1), rankAt(-8, 0), "edge")
	assert.Equal(t, uint8(0), rankAt(0, 0), "interior")
}

func TestLineAndCrossShots(t *testing.T) {
	t.Run("Line", func(t *testing.T) {
		p := DefaultParameters()
		p.Type = Line
		p.Size = 20.0
		g := NewGenerator(p)
		require.NoError(t, g.Generate())

		require.Equal(t, 5, g.TotalShots())
		shots := g.Shots()
		assert.Equal(t, uint8(1), shots[0].Rank)
		assert.Equal(t, uint8(1), shots[4].Rank)
		assert.Equal(t, uint8(0), shots[2].Rank)
		for _, s := range shots {
			assert.Equal(t, 0.0, s.Y)
		}
	})

	t.Run("Cross", func(t *testing.T) {
		p := DefaultParameters()
		p.Type = Cross
		p.Size = 20.0
		g := NewGenerator(p)
		require.NoError(t, g.Generate())

		// 5 horizontal + 4 vertical, center point emitted once
		assert.Equal(t, 9, g.TotalShots())
	})

	t.Run("CrossEvenPointCount", func(t *testing.T) {
		p := DefaultParameters()
		p.Type = Cross
		p.Size = 16.0
		g := NewGenerator(p)
		require.NoError(t, g.Generate())

		// an even arm straddles the center, so no point is shared
		// between the two arms
		require.Equal(t, 8, g.TotalShots())
		seen := map[[2]float64]bool{}
		for _, s := range g.Shots() {
			seen[[2]float64{s.X, s.Y}] = true
		}
		assert.Len(t, seen, 8)
	})
}

func TestArrayTiling(t *testing.T) {
	p := DefaultParameters()
	p.Type = SingleSpot
	p.ArrayNx = 3
	p.ArrayNy = 2
	p.ArrayPitch = 1000.0

	g := NewGenerator(p)
	require.NoError(t, g.Generate())

	assert.Equal(t, 6, g.TotalShots())
	assert.Equal(t, 1, g.TotalFields())
}

func TestFieldAssignment(t *testing.T) {
	p := DefaultParameters()
	p.Type = SingleSpot
	p.EOSMode = EOSMode6
	p.ArrayNx = 2
	p.ArrayNy = 2
	p.ArrayPitch = FieldSizeMode6

	g := NewGenerator(p)
	require.NoError(t, g.Generate())

	require.Equal(t, 4, g.TotalShots())
	assert.Equal(t, 4, g.TotalFields())

	fields := g.Fields()
	for _, s := range g.Shots() {
		require.GreaterOrEqual(t, s.FieldID, 0)
		f := fields[s.FieldID]
		assert.LessOrEqual(t, absFloat(s.X-f.CenterX), f.Size/2.0)
		assert.LessOrEqual(t, absFloat(s.Y-f.CenterY), f.Size/2.0)
	}

	// numbering follows row-major field position, not shot order
	for id, f := range fields {
		assert.Equal(t, id, f.ID)
		assert.Len(t, f.Shots, 1)
	}
}

func TestTraversal(t *testing.T) {
	p := DefaultParameters()
	p.Type = Line
	p.Size = 20.0
	g := NewGenerator(p)
	require.NoError(t, g.Generate())

	visited := 0
	for g.HasNext() {
		_, err := g.CurrentShot()
		require.NoError(t, err)
		g.Advance()
		visited++
	}
	assert.Equal(t, g.TotalShots(), visited)

	_, err := g.CurrentShot()
	assert.ErrorIs(t, err, errors.ErrNotFound)

	g.Reset()
	require.True(t, g.HasNext())
	first, err := g.CurrentShot()
	require.NoError(t, err)
	assert.Equal(t, g.Shots()[0], first)
}

func TestEstimatedExposureTime(t *testing.T) {
	p := DefaultParameters()
	p.Type = Line
	p.Size = 20.0
	g := NewGenerator(p)
	require.NoError(t, g.Generate())

	assert.InDelta(t, 5.0*g.BaseDwellTime, g.EstimatedExposureTime(), 1e-9)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
