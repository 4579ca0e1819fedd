package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	conf "github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/pkg/scoring"
)

// eVToKeV converts accumulated cell energy to the keV export unit.
const eVToKeV = 1e-3

// DoseMeta carries the exposure context printed in dose file headers.
type DoseMeta struct {
	BeamCurrent       float64 // nA
	ElectronsPerPoint int
}

// WriteDoseCSV writes the 3D dose distribution: grid and exposure comment
// header, then one row per non-zero cell.
func WriteDoseCSV(w io.Writer, grid *scoring.DoseGrid, conv scoring.DoseConverter, meta DoseMeta) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Pattern Dose Distribution")
	fmt.Fprintf(bw, "# Grid: %dx%dx%d\n", grid.Nx, grid.Ny, grid.Nz)
	fmt.Fprintf(bw, "# Bounds: X[%g,%g] Y[%g,%g] Z[%g,%g] nm\n",
		grid.XMin, grid.XMax, grid.YMin, grid.YMax, grid.ZMin, grid.ZMax)
	fmt.Fprintf(bw, "# Beam current: %g nA\n", meta.BeamCurrent)
	fmt.Fprintf(bw, "# Electrons per point: %d\n", meta.ElectronsPerPoint)
	fmt.Fprintln(bw, "X[nm],Y[nm],Z[nm],Energy[keV],Dose[uC/cm^2]")

	for ix := 0; ix < grid.Nx; ix++ {
		for iy := 0; iy < grid.Ny; iy++ {
			for iz := 0; iz < grid.Nz; iz++ {
				energy := grid.EnergyAt(ix, iy, iz)
				if energy <= 0 {
					continue
				}
				c := grid.CellCenter(ix, iy, iz)
				energyKeV := energy * eVToKeV
				fmt.Fprintf(bw, "%g,%g,%g,%.6e,%.6e\n",
					c.X, c.Y, c.Z, energyKeV, conv.Dose(energyKeV))
			}
		}
	}

	return bw.Flush()
}

// WriteDose2DCSV writes the XY dose projection, integrated through Z.
func WriteDose2DCSV(w io.Writer, grid *scoring.DoseGrid, conv scoring.DoseConverter) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# 2D Dose Distribution (XY projection)")
	fmt.Fprintln(bw, "# Integrated through Z-direction")
	fmt.Fprintln(bw, "X[nm],Y[nm],Energy[keV],Dose[uC/cm^2]")

	for ix := 0; ix < grid.Nx; ix++ {
		for iy := 0; iy < grid.Ny; iy++ {
			column := 0.0
			for iz := 0; iz < grid.Nz; iz++ {
				column += grid.EnergyAt(ix, iy, iz)
			}
			if column <= 0 {
				continue
			}
			c := grid.CellCenter(ix, iy, 0)
			energyKeV := column * eVToKeV
			fmt.Fprintf(bw, "%g,%g,%.6e,%.6e\n", c.X, c.Y, energyKeV, conv.Dose(energyKeV))
		}
	}

	return bw.Flush()
}

// WriteDoseFiles writes the 3D dose CSV and its 2D projection into dir.
func WriteDoseFiles(dir string, grid *scoring.DoseGrid, conv scoring.DoseConverter, meta DoseMeta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	path3d := filepath.Join(dir, conf.DoseGridFilename)
	if err := writeFile(path3d, func(w io.Writer) error {
		return WriteDoseCSV(w, grid, conv, meta)
	}); err != nil {
		return err
	}
	log.Infof("saved %s", path3d)

	path2d := filepath.Join(dir, conf.DoseGrid2DFilename)
	if err := writeFile(path2d, func(w io.Writer) error {
		return WriteDose2DCSV(w, grid, conv)
	}); err != nil {
		return err
	}
	log.Infof("saved %s", path2d)
	return nil
}
