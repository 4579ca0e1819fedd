// Package export writes the accumulated results in the formats consumed
// downstream: CSV profiles for analysis, BEAMER .dat for proximity-effect
// correction and a human-readable run summary.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	conf "github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/pkg/scoring"
)

var log = conf.NamedLogger("export")

// Meta carries the beam and resist context printed in file headers.
type Meta struct {
	BeamEnergy      float64 // keV
	ResistThickness float64 // nm
	ResistMaterial  string
}

// WritePSFCSV writes the radial profile: one row per bin with center,
// energy density, bin boundaries and the event count.
func WritePSFCSV(w io.Writer, acc *scoring.PSFAccumulator) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Radius(nm),EnergyDeposition(eV/nm^2),BinLower(nm),BinUpper(nm),Events")

	profile := acc.Profile()
	for i, density := range profile {
		inner, outer := acc.Radial.Bounds(i)
		fmt.Fprintf(bw, "%.3f,%.6e,%.3f,%.3f,%d\n",
			acc.Radial.Center(i), density, inner, outer, acc.NumEvents())
	}

	return bw.Flush()
}

// WriteDepthRadialCSV writes the depth-resolved profile: a header row of
// radial bin centers, then one row per depth bin with the depth center
// followed by the energy densities.
func WriteDepthRadialCSV(w io.Writer, acc *scoring.PSFAccumulator) error {
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, "Depth(nm)")
	for i := 0; i < acc.Radial.NumBins; i++ {
		fmt.Fprintf(bw, ",%.3f", acc.Radial.Center(i))
	}
	fmt.Fprintln(bw)

	grid := acc.DepthRadial()
	events := float64(acc.NumEvents())
	for d := 0; d < acc.Depth.NumBins; d++ {
		fmt.Fprintf(bw, "%.3f", acc.Depth.Center(d))
		for i := 0; i < acc.Radial.NumBins; i++ {
			density := 0.0
			if events > 0 {
				area := acc.Radial.Area(i)
				if area > 0 {
					density = grid.At(d, i) / (area * events)
				}
			}
			fmt.Fprintf(bw, ",%.6e", density)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

// WriteBeamer writes the PSF in BEAMER .dat format: radius in um, PSF in
// 1/um^2, normalized so the integral over all space equals one. A lead-in
// point at half the minimum radius anchors the interpolation near the
// beam axis; zero bins are skipped.
func WriteBeamer(w io.Writer, acc *scoring.PSFAccumulator, meta Meta) error {
	bw := bufio.NewWriter(w)

	psf, _ := acc.BeamerProfile()

	fmt.Fprintln(bw, "# EBL PSF for BEAMER")
	fmt.Fprintf(bw, "# Beam energy: %g keV\n", meta.BeamEnergy)
	fmt.Fprintf(bw, "# Resist: %g nm %s\n", meta.ResistThickness, resistClass(meta.ResistMaterial))
	fmt.Fprintln(bw, "# Format: radius(um) PSF(1/um^2)")
	fmt.Fprintf(bw, "# Total events: %d\n", acc.NumEvents())

	// nm -> um for radii, 1/nm^2 -> 1/um^2 for densities
	const nmToUm = 1e-3
	const perNm2ToPerUm2 = 1e6

	if psf[0] > 0 {
		fmt.Fprintf(bw, "%.6e %.6e\n", acc.Radial.MinRadius/2.0*nmToUm, psf[0]*perNm2ToPerUm2)
	}
	for i, v := range psf {
		if v > 0 {
			fmt.Fprintf(bw, "%.6e %.6e\n", acc.Radial.Center(i)*nmToUm, v*perNm2ToPerUm2)
		}
	}

	return bw.Flush()
}

// WriteSummary writes the human-readable run summary.
func WriteSummary(w io.Writer, acc *scoring.PSFAccumulator, meta Meta) error {
	bw := bufio.NewWriter(w)

	resist, substrate, above := acc.RegionEnergy()
	r50, r90, r99 := acc.PercentileRadii()
	_, params := acc.BeamerProfile()

	fmt.Fprintln(bw, "EBL Simulation Summary")
	fmt.Fprintln(bw, "=====================")
	fmt.Fprintf(bw, "Events simulated: %d\n", acc.NumEvents())
	fmt.Fprintf(bw, "Total energy deposited: %g eV\n", acc.TotalEnergy())
	fmt.Fprintf(bw, "Energy in resist: %g eV\n", resist)
	fmt.Fprintf(bw, "Energy in substrate: %g eV\n", substrate)
	fmt.Fprintf(bw, "Energy above resist: %g eV\n", above)
	if acc.InvalidDeposits() > 0 {
		fmt.Fprintf(bw, "Rejected non-finite deposits: %d\n", acc.InvalidDeposits())
	}
	if acc.OverflowDeposits() > 0 {
		fmt.Fprintf(bw, "Deposits clamped into last bin: %d\n", acc.OverflowDeposits())
	}

	fmt.Fprintln(bw, "\nEnergy distribution:")
	fmt.Fprintf(bw, "50%% of energy within: %g nm\n", r50)
	fmt.Fprintf(bw, "90%% of energy within: %g nm\n", r90)
	fmt.Fprintf(bw, "99%% of energy within: %g nm\n", r99)

	fmt.Fprintln(bw, "\nPSF parameters:")
	fmt.Fprintf(bw, "Forward scatter fraction (alpha): %g\n", params.Alpha)
	fmt.Fprintf(bw, "Backscatter fraction (beta): %g\n", params.Beta)
	fmt.Fprintf(bw, "Backscatter range (eta): %g um\n", params.Eta/1000.0)

	fmt.Fprintln(bw, "\nBeam parameters:")
	fmt.Fprintf(bw, "Energy: %g keV\n", meta.BeamEnergy)

	fmt.Fprintln(bw, "\nResist parameters:")
	fmt.Fprintf(bw, "Material: %s\n", meta.ResistMaterial)
	fmt.Fprintf(bw, "Thickness: %g nm\n", meta.ResistThickness)

	return bw.Flush()
}

// resistClass maps a resist material name onto the coarse material class
// BEAMER distinguishes: metal-organic (Alucone), silicon-based (HSQ) or
// generic organic.
func resistClass(material string) string {
	m := strings.ToLower(material)
	switch {
	case strings.Contains(m, "alucone") || strings.Contains(m, "al2o3") || strings.Contains(m, "alumina"):
		return "Alucone"
	case strings.Contains(m, "hsq") || strings.Contains(m, "si"):
		return "HSQ"
	default:
		return "Organic"
	}
}

// WritePSFFiles writes the full PSF result set into dir: radial CSV,
// depth-radial CSV, BEAMER .dat and the summary. File names are fixed by
// the config package.
func WritePSFFiles(dir string, acc *scoring.PSFAccumulator, meta Meta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{conf.PSFDataFilename, func(w io.Writer) error { return WritePSFCSV(w, acc) }},
		{conf.DepthRadialFilename, func(w io.Writer) error { return WriteDepthRadialCSV(w, acc) }},
		{conf.BeamerFilename, func(w io.Writer) error { return WriteBeamer(w, acc, meta) }},
		{conf.SummaryFilename, func(w io.Writer) error { return WriteSummary(w, acc, meta) }},
	}

	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
		log.Infof("saved %s", filepath.Join(dir, f.name))
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
