package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreece2304/EBeamSim-sub000/pkg/geometry"
)

func TestDoseGridSingleCellDoubling(t *testing.T) {
	grid, err := NewDoseGrid(1, 1, 1, 0, 10, 0, 10, 0, 10)
	require.NoError(t, err)

	p := geometry.Point{X: 5, Y: 5, Z: 5}
	grid.AddDeposit(p, 100.0)
	grid.AddDeposit(p, 100.0)

	assert.Equal(t, 200.0, grid.EnergyAt(0, 0, 0))
	assert.Equal(t, 200.0, grid.TotalEnergy())
}

func TestDoseGridIndexingRoundTrip(t *testing.T) {
	grid, err := NewDoseGrid(10, 10, 4, -100, 100, -100, 100, -20, 20)
	require.NoError(t, err)

	p := geometry.Point{X: 37.0, Y: -55.0, Z: 3.0}
	ix1, iy1, iz1, ok1 := grid.CellIndex(p)
	ix2, iy2, iz2, ok2 := grid.CellIndex(p)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, [3]int{ix1, iy1, iz1}, [3]int{ix2, iy2, iz2})

	grid.AddDeposit(p, 50.0)
	grid.AddDeposit(p, 50.0)
	assert.Equal(t, 100.0, grid.EnergyAt(ix1, iy1, iz1))
}

func TestDoseGridDropsOutOfBox(t *testing.T) {
	grid, err := NewDoseGrid(2, 2, 2, 0, 10, 0, 10, 0, 10)
	require.NoError(t, err)

	grid.AddDeposit(geometry.Point{X: -1, Y: 5, Z: 5}, 10.0)
	grid.AddDeposit(geometry.Point{X: 5, Y: 11, Z: 5}, 10.0)
	grid.AddDeposit(geometry.Point{X: 5, Y: 5, Z: 100}, 10.0)

	assert.Equal(t, 0.0, grid.TotalEnergy())
}

func TestDoseGridRejectsDegenerateGeometry(t *testing.T) {
	_, err := NewDoseGrid(0, 1, 1, 0, 10, 0, 10, 0, 10)
	assert.Error(t, err)

	_, err = NewDoseGrid(1, 1, 1, 10, 10, 0, 10, 0, 10)
	assert.Error(t, err)
}

func TestDoseGridMerge(t *testing.T) {
	a, err := NewDoseGrid(2, 2, 1, 0, 20, 0, 20, 0, 10)
	require.NoError(t, err)
	b, err := NewDoseGrid(2, 2, 1, 0, 20, 0, 20, 0, 10)
	require.NoError(t, err)

	a.AddDeposit(geometry.Point{X: 5, Y: 5, Z: 5}, 30.0)
	b.AddDeposit(geometry.Point{X: 5, Y: 5, Z: 5}, 12.0)
	b.AddDeposit(geometry.Point{X: 15, Y: 15, Z: 5}, 8.0)

	require.NoError(t, a.Merge(b))
	assert.Equal(t, 42.0, a.EnergyAt(0, 0, 0))
	assert.Equal(t, 8.0, a.EnergyAt(1, 1, 0))

	mismatched, err := NewDoseGrid(3, 2, 1, 0, 20, 0, 20, 0, 10)
	require.NoError(t, err)
	assert.Error(t, a.Merge(mismatched))
}

func TestDoseConverterScalesWithElectrons(t *testing.T) {
	grid, err := NewDoseGrid(1, 1, 1, 0, 10, 0, 10, 0, 10)
	require.NoError(t, err)

	one := NewDoseConverter(grid, 1)
	thousand := NewDoseConverter(grid, 1000)

	dose1 := one.Dose(100.0)
	dose1000 := thousand.Dose(100.0)

	assert.Greater(t, dose1, 0.0)
	assert.InEpsilon(t, dose1/1000.0, dose1000, 1e-12)

	// minimum of one electron
	clamped := NewDoseConverter(grid, 0)
	assert.Equal(t, 1, clamped.ElectronsPerPoint)
}
