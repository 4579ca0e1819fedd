package simulation

import (
	"math/rand"

	"github.com/dreece2304/EBeamSim-sub000/model"
)

// DoubleGaussianName is the registry name of the built-in engine.
const DoubleGaussianName = "double-gaussian"

// DoubleGaussian is an analytic stand-in for the external transport
// kernel. It draws deposits from the classic two-Gaussian proximity
// model: a narrow forward-scatter core in the resist and wide
// backscatter wings reaching into the substrate, with an exponential
// depth profile. Not a physics simulation; it produces PSF profiles with
// realistic shape and energy split so the rest of the pipeline can be
// exercised end to end.
type DoubleGaussian struct {
	ForwardSigma        float64 // nm at the reference energy
	BackscatterSigma    float64 // nm at the reference energy
	BackscatterFraction float64
	DepositFraction     float64 // fraction of beam energy deposited locally
	DepthLambda         float64 // nm, substrate attenuation length
	StepsPerEvent       int
}

// referenceEnergy is the beam energy the sigmas are quoted at, keV.
const referenceEnergy = 100.0

// NewDoubleGaussian returns the engine with parameters typical for a
// 100 keV exposure of a thin resist on silicon.
func NewDoubleGaussian() *DoubleGaussian {
	return &DoubleGaussian{
		ForwardSigma:        20.0,
		BackscatterSigma:    2500.0,
		BackscatterFraction: 0.45,
		DepositFraction:     0.3,
		DepthLambda:         5000.0,
		StepsPerEvent:       64,
	}
}

// Name implements Engine.
func (e *DoubleGaussian) Name() string { return DoubleGaussianName }

// IsWorking implements Engine. The analytic engine is always available.
func (e *DoubleGaussian) IsWorking() bool { return true }

// Event implements Engine. The forward core narrows and the backscatter
// wings widen as beam energy grows, following the usual first-order
// energy scaling.
func (e *DoubleGaussian) Event(rng *rand.Rand, beam Beam, emit func(model.Deposit)) {
	energyScale := beam.Energy / referenceEnergy
	if energyScale <= 0 {
		energyScale = 1.0
	}
	forwardSigma := e.ForwardSigma / energyScale
	backscatterSigma := e.BackscatterSigma * energyScale

	// beam energy keV -> deposited eV, split across steps
	stepEnergy := beam.Energy * 1000.0 * e.DepositFraction / float64(e.StepsPerEvent)

	for i := 0; i < e.StepsPerEvent; i++ {
		var dx, dy, z float64
		if rng.Float64() < e.BackscatterFraction {
			dx = rng.NormFloat64() * backscatterSigma
			dy = rng.NormFloat64() * backscatterSigma
			// backscatter emerges from the substrate below the resist
			z = -rng.ExpFloat64() * e.DepthLambda
		} else {
			dx = rng.NormFloat64() * forwardSigma
			dy = rng.NormFloat64() * forwardSigma
			z = rng.Float64() * beam.ResistThickness
		}

		emit(model.Deposit{
			Energy: stepEnergy,
			X:      beam.X + dx,
			Y:      beam.Y + dy,
			Z:      z,
		})
	}
}
