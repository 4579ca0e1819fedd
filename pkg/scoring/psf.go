package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	conf "github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/errors"
	"github.com/dreece2304/EBeamSim-sub000/pkg/geometry"
)

var log = conf.NamedLogger("scoring")

const invalidWarnLimit = 10

// PSFAccumulator accumulates per-step energy deposits into the radial and
// depth-resolved PSF histograms. Each transport worker owns its own
// instance; results are combined with Merge on the coordinating goroutine
// after all workers finish.
type PSFAccumulator struct {
	Radial          RadialBinner
	Depth           DepthBinner
	ResistThickness float64 // nm

	// per-event scratch, zeroed by BeginEvent
	eventRadial      []float64
	eventDepthRadial *mat.Dense
	eventResist      float64
	eventSubstrate   float64
	eventAbove       float64

	// run-level accumulators
	radialProfile []float64
	depthRadial   *mat.Dense

	resistEnergy    float64
	substrateEnergy float64
	aboveEnergy     float64
	totalEnergy     float64

	numEvents        int
	invalidDeposits  int64
	overflowDeposits int64
}

// NewPSFAccumulator constructor.
func NewPSFAccumulator(radial RadialBinner, depth DepthBinner, resistThickness float64) *PSFAccumulator {
	return &PSFAccumulator{
		Radial:           radial,
		Depth:            depth,
		ResistThickness:  resistThickness,
		eventRadial:      make([]float64, radial.NumBins),
		eventDepthRadial: mat.NewDense(depth.NumBins, radial.NumBins, nil),
		radialProfile:    make([]float64, radial.NumBins),
		depthRadial:      mat.NewDense(depth.NumBins, radial.NumBins, nil),
	}
}

// BeginEvent zeroes the per-event scratch histograms.
func (a *PSFAccumulator) BeginEvent() {
	for i := range a.eventRadial {
		a.eventRadial[i] = 0
	}
	a.eventDepthRadial.Zero()
	a.eventResist = 0
	a.eventSubstrate = 0
	a.eventAbove = 0
}

// AddDeposit bins one energy deposit (eV, nm). Invalid deposits are
// rejected and counted; radii beyond twice the tracked maximum are clamped
// into the last bin so no energy is lost from the profile.
func (a *PSFAccumulator) AddDeposit(energy, x, y, z float64) {
	if energy <= 0 {
		return
	}
	p := geometry.Point{X: x, Y: y, Z: z}
	if math.IsNaN(energy) || math.IsInf(energy, 0) || !p.Finite() {
		a.invalidDeposits++
		if a.invalidDeposits <= invalidWarnLimit {
			log.Warnf("rejecting non-finite deposit (%d so far)", a.invalidDeposits)
		}
		return
	}

	r := p.Radius()

	overflowGuard := 2.0 * a.Radial.MaxRadius
	if r > overflowGuard {
		a.overflowDeposits++
		if a.overflowDeposits <= invalidWarnLimit {
			log.Warnf("deposit beyond tracking radius: %g nm > %g nm, clamping into last bin", r, overflowGuard)
		}
	}

	// Index clamps r >= MaxRadius into the last bin
	radialBin := a.Radial.Index(r)
	if radialBin < 0 {
		// r == 0 lands on the beam axis; the first bin absorbs it.
		radialBin = 0
	}
	depthBin := a.Depth.Index(z)

	a.eventRadial[radialBin] += energy
	a.eventDepthRadial.Set(depthBin, radialBin, a.eventDepthRadial.At(depthBin, radialBin)+energy)

	switch {
	case z >= 0 && z <= a.ResistThickness:
		a.eventResist += energy
	case z < 0:
		a.eventSubstrate += energy
	default:
		a.eventAbove += energy
	}
}

// EndEvent folds the event scratch into the run-level accumulators and
// increments the event counter. A size mismatch means a programming
// defect; the event is discarded and the error returned.
func (a *PSFAccumulator) EndEvent() error {
	if len(a.eventRadial) != len(a.radialProfile) {
		return errors.ErrSizeMismatch
	}

	eventTotal := 0.0
	for i, e := range a.eventRadial {
		a.radialProfile[i] += e
		eventTotal += e
	}
	a.depthRadial.Add(a.depthRadial, a.eventDepthRadial)

	a.resistEnergy += a.eventResist
	a.substrateEnergy += a.eventSubstrate
	a.aboveEnergy += a.eventAbove
	a.totalEnergy += eventTotal

	a.numEvents++
	return nil
}

// Merge sums another worker's accumulators into this one. Addition is
// commutative, so the merge order across workers does not matter.
func (a *PSFAccumulator) Merge(other *PSFAccumulator) error {
	// equal bin counts are not enough; histograms over different
	// windows must never be summed
	if a.Radial != other.Radial || a.Depth != other.Depth || a.ResistThickness != other.ResistThickness {
		return errors.ErrSizeMismatch
	}

	floats.Add(a.radialProfile, other.radialProfile)
	a.depthRadial.Add(a.depthRadial, other.depthRadial)

	a.resistEnergy += other.resistEnergy
	a.substrateEnergy += other.substrateEnergy
	a.aboveEnergy += other.aboveEnergy
	a.totalEnergy += other.totalEnergy
	a.numEvents += other.numEvents
	a.invalidDeposits += other.invalidDeposits
	a.overflowDeposits += other.overflowDeposits
	return nil
}

// NumEvents returns the number of completed events.
func (a *PSFAccumulator) NumEvents() int { return a.numEvents }

// TotalEnergy returns the total energy accumulated in the radial profile, eV.
func (a *PSFAccumulator) TotalEnergy() float64 { return a.totalEnergy }

// RegionEnergy returns the per-region energy totals in eV.
func (a *PSFAccumulator) RegionEnergy() (resist, substrate, above float64) {
	return a.resistEnergy, a.substrateEnergy, a.aboveEnergy
}

// InvalidDeposits returns the count of rejected deposits.
func (a *PSFAccumulator) InvalidDeposits() int64 { return a.invalidDeposits }

// OverflowDeposits returns the count of deposits clamped into the last bin.
func (a *PSFAccumulator) OverflowDeposits() int64 { return a.overflowDeposits }

// RawProfile returns the accumulated radial energy per bin, eV.
func (a *PSFAccumulator) RawProfile() []float64 {
	out := make([]float64, len(a.radialProfile))
	copy(out, a.radialProfile)
	return out
}

// DepthRadial returns the accumulated depth-by-radius energy grid, eV.
func (a *PSFAccumulator) DepthRadial() *mat.Dense {
	out := mat.NewDense(a.Depth.NumBins, a.Radial.NumBins, nil)
	out.Copy(a.depthRadial)
	return out
}

// Profile returns the normalized PSF: energy density per unit area per
// incident primary, eV/nm^2.
func (a *PSFAccumulator) Profile() []float64 {
	out := make([]float64, len(a.radialProfile))
	if a.numEvents == 0 {
		return out
	}
	for i, e := range a.radialProfile {
		area := a.Radial.Area(i)
		if area > 0 {
			out[i] = e / (area * float64(a.numEvents))
		}
	}
	return out
}

// PSFParameters are the diagnostic summary statistics reported alongside
// the proximity-correction export.
type PSFParameters struct {
	Alpha float64 // forward-scatter fraction (within 1 um)
	Beta  float64 // backscatter fraction
	Eta   float64 // radius containing 90% of backscattered energy, nm
}

// forwardScatterRadius separates the forward-scatter core from the
// backscatter tail, 1 um.
const forwardScatterRadius = 1000.0

// BeamerProfile returns the PSF normalized so its integral over all space
// equals one, together with the alpha/beta/eta diagnostics.
func (a *PSFAccumulator) BeamerProfile() ([]float64, PSFParameters) {
	psf := a.Profile()

	totalIntegral := 0.0
	for i, v := range psf {
		totalIntegral += v * a.Radial.Area(i)
	}
	if totalIntegral > 0 {
		for i := range psf {
			psf[i] /= totalIntegral
		}
	}

	params := PSFParameters{}
	for i, v := range psf {
		if a.Radial.Center(i) < forwardScatterRadius {
			params.Alpha += v * a.Radial.Area(i)
		}
	}
	params.Beta = 1.0 - params.Alpha

	backscatter := 0.0
	for i := a.Radial.NumBins - 1; i >= 0; i-- {
		if a.Radial.Center(i) <= forwardScatterRadius {
			continue
		}
		backscatter += psf[i] * a.Radial.Area(i)
		if backscatter > 0.9*params.Beta {
			params.Eta = a.Radial.Center(i)
			break
		}
	}
	return psf, params
}

// PercentileRadii returns the radii containing 50, 90 and 99 percent of
// the deposited energy.
func (a *PSFAccumulator) PercentileRadii() (r50, r90, r99 float64) {
	if a.totalEnergy <= 0 {
		return 0, 0, 0
	}
	cumulative := 0.0
	for i, e := range a.radialProfile {
		cumulative += e
		fraction := cumulative / a.totalEnergy
		if fraction >= 0.5 && r50 == 0 {
			r50 = a.Radial.Center(i)
		}
		if fraction >= 0.9 && r90 == 0 {
			r90 = a.Radial.Center(i)
		}
		if fraction >= 0.99 && r99 == 0 {
			r99 = a.Radial.Center(i)
		}
	}
	return r50, r90, r99
}
