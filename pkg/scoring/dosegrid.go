package scoring

import (
	"math"

	"github.com/dreece2304/EBeamSim-sub000/errors"
	"github.com/dreece2304/EBeamSim-sub000/pkg/geometry"
)

// elementaryCharge in Coulombs.
const elementaryCharge = 1.602176634e-19

// keVUnit is the keV constant of the instrument calibration's unit system
// (energies expressed in MeV base), kept so the dose conversion matches
// the tool calibration exactly.
const keVUnit = 1e-3

// nmToCm converts nm to cm.
const nmToCm = 1e-7

// DoseGrid is a 3D regular grid accumulating deposited energy over the
// pattern footprint. Deposits outside the box are silently dropped: the
// grid is expected to cover the pattern plus margin, and an undersized
// grid therefore loses energy without warning. Each worker accumulates
// into its own grid; grids are merged once at run end.
type DoseGrid struct {
	Nx, Ny, Nz int
	XMin, XMax float64 // nm
	YMin, YMax float64
	ZMin, ZMax float64
	Dx, Dy, Dz float64 // nm, derived cell size

	buf []float64 // flat: (ix*Ny+iy)*Nz+iz, eV
}

// NewDoseGrid allocates the grid and derives cell sizes. Calling it again
// for the same run simply replaces the previous grid.
func NewDoseGrid(nx, ny, nz int, xMin, xMax, yMin, yMax, zMin, zMax float64) (*DoseGrid, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, errors.DoseGridError("cell counts must be positive, got %dx%dx%d", nx, ny, nz)
	}
	if xMax <= xMin || yMax <= yMin || zMax <= zMin {
		return nil, errors.DoseGridError("grid box is empty: x[%g,%g] y[%g,%g] z[%g,%g]",
			xMin, xMax, yMin, yMax, zMin, zMax)
	}
	g := &DoseGrid{
		Nx: nx, Ny: ny, Nz: nz,
		XMin: xMin, XMax: xMax,
		YMin: yMin, YMax: yMax,
		ZMin: zMin, ZMax: zMax,
		Dx:  (xMax - xMin) / float64(nx),
		Dy:  (yMax - yMin) / float64(ny),
		Dz:  (zMax - zMin) / float64(nz),
		buf: make([]float64, nx*ny*nz),
	}
	log.Infof("initialized dose grid: %dx%dx%d cells, spacing %gx%gx%g nm",
		nx, ny, nz, g.Dx, g.Dy, g.Dz)
	return g, nil
}

func (g *DoseGrid) idx(ix, iy, iz int) int {
	return (ix*g.Ny+iy)*g.Nz + iz
}

// CellIndex maps a position to cell indices by floor division.
func (g *DoseGrid) CellIndex(p geometry.Point) (ix, iy, iz int, ok bool) {
	ix = int(math.Floor((p.X - g.XMin) / g.Dx))
	iy = int(math.Floor((p.Y - g.YMin) / g.Dy))
	iz = int(math.Floor((p.Z - g.ZMin) / g.Dz))
	ok = ix >= 0 && ix < g.Nx && iy >= 0 && iy < g.Ny && iz >= 0 && iz < g.Nz
	return ix, iy, iz, ok
}

// AddDeposit accumulates one energy deposit (eV) into its cell. Deposits
// outside the box and invalid values are dropped.
func (g *DoseGrid) AddDeposit(p geometry.Point, energy float64) {
	if energy <= 0 || math.IsNaN(energy) || math.IsInf(energy, 0) || !p.Finite() {
		return
	}
	if ix, iy, iz, ok := g.CellIndex(p); ok {
		g.buf[g.idx(ix, iy, iz)] += energy
	}
}

// EnergyAt returns the accumulated energy of one cell, eV.
func (g *DoseGrid) EnergyAt(ix, iy, iz int) float64 {
	return g.buf[g.idx(ix, iy, iz)]
}

// TotalEnergy returns the energy captured by the grid, eV.
func (g *DoseGrid) TotalEnergy() float64 {
	total := 0.0
	for _, e := range g.buf {
		total += e
	}
	return total
}

// Merge sums a worker grid into this one. Grids must share geometry.
func (g *DoseGrid) Merge(other *DoseGrid) error {
	if other.Nx != g.Nx || other.Ny != g.Ny || other.Nz != g.Nz {
		return errors.ErrSizeMismatch
	}
	for i, e := range other.buf {
		g.buf[i] += e
	}
	return nil
}

// CellCenter returns the center position of a cell in nm.
func (g *DoseGrid) CellCenter(ix, iy, iz int) geometry.Point {
	return geometry.Point{
		X: g.XMin + (float64(ix)+0.5)*g.Dx,
		Y: g.YMin + (float64(iy)+0.5)*g.Dy,
		Z: g.ZMin + (float64(iz)+0.5)*g.Dz,
	}
}

// DoseConverter converts accumulated cell energy to surface dose assuming
// a fixed number of incident electrons per exposure point. This is a
// simplification versus tracking the actual electron count per cell; the
// discrepancy is part of the instrument calibration.
type DoseConverter struct {
	ElectronsPerPoint int
	cellAreaCm2       float64
}

// NewDoseConverter constructor. Cell area is the XY footprint of one cell.
func NewDoseConverter(g *DoseGrid, electronsPerPoint int) DoseConverter {
	if electronsPerPoint < 1 {
		electronsPerPoint = 1
	}
	return DoseConverter{
		ElectronsPerPoint: electronsPerPoint,
		cellAreaCm2:       (g.Dx * nmToCm) * (g.Dy * nmToCm),
	}
}

// Dose converts a cell energy in keV to uC/cm^2.
func (c DoseConverter) Dose(energyKeV float64) float64 {
	return (energyKeV * elementaryCharge * 1e6) /
		(c.cellAreaCm2 * float64(c.ElectronsPerPoint) * 100.0 * keVUnit)
}
