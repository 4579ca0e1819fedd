package runner

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/dreece2304/EBeamSim-sub000/errors"
	"github.com/dreece2304/EBeamSim-sub000/model"
	"github.com/dreece2304/EBeamSim-sub000/pkg/scoring"
	"github.com/dreece2304/EBeamSim-sub000/simulation"
)

// PSFRunner fires Events primaries at the origin and accumulates the
// point spread function. Each worker owns an accumulator and an rng
// seeded from Seed plus the worker index, so a run is reproducible for a
// fixed seed and worker count.
type PSFRunner struct {
	Engine simulation.Engine
	Beam   simulation.Beam
	Radial scoring.RadialBinner
	Depth  scoring.DepthBinner

	Events  int
	Workers int // <1 means GOMAXPROCS
	Seed    int64

	RunID    int64
	Progress ProgressFunc
	ShowBar  bool
}

// Run executes the full event loop and returns the merged accumulator.
// Cancelling the context aborts the run; no partial results come back.
func (r *PSFRunner) Run(ctx context.Context) (*scoring.PSFAccumulator, error) {
	if r.Events <= 0 {
		return nil, errors.ErrInvalidConfiguration
	}
	workers := r.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunks := splitRange(r.Events, workers)
	accs := make([]*scoring.PSFAccumulator, len(chunks))
	errs := make([]error, len(chunks))

	log.Infof("psf run: %d events over %d workers, engine %s", r.Events, len(chunks), r.Engine.Name())
	progress := newTracker(r.RunID, r.Events, r.Progress, r.ShowBar)

	var wg sync.WaitGroup
	for w, chunk := range chunks {
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()

			acc := scoring.NewPSFAccumulator(r.Radial, r.Depth, r.Beam.ResistThickness)
			rng := rand.New(rand.NewSource(r.Seed + int64(w)))

			for i := lo; i < hi; i++ {
				if ctx.Err() != nil {
					errs[w] = errors.ErrRunAborted
					return
				}
				acc.BeginEvent()
				r.Engine.Event(rng, r.Beam, func(d model.Deposit) {
					acc.AddDeposit(d.Energy, d.X, d.Y, d.Z)
				})
				if err := acc.EndEvent(); err != nil {
					errs[w] = err
					return
				}
				progress.increment(1)
			}
			accs[w] = acc
		}(w, chunk[0], chunk[1])
	}
	wg.Wait()
	progress.finish()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// merge in worker order; addition is commutative but a fixed order
	// keeps runs bit-for-bit reproducible
	merged := accs[0]
	for _, acc := range accs[1:] {
		if err := merged.Merge(acc); err != nil {
			return nil, err
		}
	}

	log.Infof("psf run finished: %d events, %g eV deposited", merged.NumEvents(), merged.TotalEnergy())
	return merged, nil
}

// PSFSummary builds the archive record for a finished PSF run.
func PSFSummary(acc *scoring.PSFAccumulator, engine string, beam simulation.Beam, started, ended time.Time) model.RunSummary {
	resist, substrate, above := acc.RegionEnergy()
	r50, r90, r99 := acc.PercentileRadii()
	_, params := acc.BeamerProfile()

	return model.RunSummary{
		Kind:            model.RunKindPSF,
		Status:          model.RunStatusSuccess,
		Engine:          engine,
		StartedAt:       started,
		EndedAt:         ended,
		Events:          acc.NumEvents(),
		BeamEnergy:      beam.Energy,
		ResistThickness: beam.ResistThickness,
		TotalEnergy:     acc.TotalEnergy(),
		ResistEnergy:    resist,
		SubstrateEnergy: substrate,
		AboveEnergy:     above,
		R50:             r50,
		R90:             r90,
		R99:             r99,
		Alpha:           params.Alpha,
		Beta:            params.Beta,
		Eta:             params.Eta,
	}
}
