package runner

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/dreece2304/EBeamSim-sub000/errors"
	"github.com/dreece2304/EBeamSim-sub000/model"
	"github.com/dreece2304/EBeamSim-sub000/pkg/geometry"
	"github.com/dreece2304/EBeamSim-sub000/pkg/pattern"
	"github.com/dreece2304/EBeamSim-sub000/pkg/scoring"
	"github.com/dreece2304/EBeamSim-sub000/simulation"
)

// PatternRunner exposes a generated shot pattern: each shot fires a
// number of primaries proportional to its dwell time, and deposits
// accumulate into a 3D dose grid. Shots are partitioned across workers;
// each worker owns a grid with the target's geometry.
type PatternRunner struct {
	Engine    simulation.Engine
	Generator *pattern.Generator
	Grid      *scoring.DoseGrid // merge target, defines the geometry

	BeamEnergy      float64 // keV
	ResistThickness float64 // nm

	// primaries per full-dose shot; 0 means the physical electron count
	// from the generator's dwell time
	ElectronsPerShot int

	Workers int
	Seed    int64

	RunID    int64
	Progress ProgressFunc
	ShowBar  bool
}

// shotElectrons returns the primary count for one shot: the base count
// scaled by the shot rank's dose modulation, at least one.
func (r *PatternRunner) shotElectrons(base int, s pattern.ShotPoint) int {
	n := int(math.Round(float64(base) * r.Generator.Params.Modulation(int(s.Rank))))
	if n < 1 {
		n = 1
	}
	return n
}

// Run exposes every shot and returns the merged dose grid (the Grid
// field, filled in). Cancelling the context aborts without merging.
func (r *PatternRunner) Run(ctx context.Context) (*scoring.DoseGrid, error) {
	shots := r.Generator.Shots()
	if len(shots) == 0 {
		return nil, errors.ErrPatternNotGenerated
	}
	if r.Grid == nil {
		return nil, errors.ErrGridNotInitialized
	}

	base := r.ElectronsPerShot
	if base < 1 {
		base = r.Generator.ElectronsPerPoint()
	}
	totalPrimaries := 0
	for _, s := range shots {
		totalPrimaries += r.shotElectrons(base, s)
	}

	workers := r.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunks := splitRange(len(shots), workers)
	grids := make([]*scoring.DoseGrid, len(chunks))
	errs := make([]error, len(chunks))

	log.Infof("pattern run: %d shots, %d primaries over %d workers, engine %s",
		len(shots), totalPrimaries, len(chunks), r.Engine.Name())
	progress := newTracker(r.RunID, totalPrimaries, r.Progress, r.ShowBar)

	var wg sync.WaitGroup
	for w, chunk := range chunks {
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()

			grid, err := scoring.NewDoseGrid(
				r.Grid.Nx, r.Grid.Ny, r.Grid.Nz,
				r.Grid.XMin, r.Grid.XMax,
				r.Grid.YMin, r.Grid.YMax,
				r.Grid.ZMin, r.Grid.ZMax,
			)
			if err != nil {
				errs[w] = err
				return
			}
			rng := rand.New(rand.NewSource(r.Seed + int64(w)))

			for i := lo; i < hi; i++ {
				s := shots[i]
				beam := simulation.Beam{
					Energy:          r.BeamEnergy,
					X:               s.X,
					Y:               s.Y,
					ResistThickness: r.ResistThickness,
				}
				for e := 0; e < r.shotElectrons(base, s); e++ {
					if ctx.Err() != nil {
						errs[w] = errors.ErrRunAborted
						return
					}
					r.Engine.Event(rng, beam, func(d model.Deposit) {
						grid.AddDeposit(geometry.Point{X: d.X, Y: d.Y, Z: d.Z}, d.Energy)
					})
					progress.increment(1)
				}
			}
			grids[w] = grid
		}(w, chunk[0], chunk[1])
	}
	wg.Wait()
	progress.finish()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for _, grid := range grids {
		if err := r.Grid.Merge(grid); err != nil {
			return nil, err
		}
	}

	log.Infof("pattern run finished: %g eV captured by the grid", r.Grid.TotalEnergy())
	return r.Grid, nil
}

// PatternSummary builds the archive record for a finished pattern run.
func PatternSummary(grid *scoring.DoseGrid, gen *pattern.Generator, engine string, events int, beamEnergy, resistThickness float64, started, ended time.Time) model.RunSummary {
	return model.RunSummary{
		Kind:            model.RunKindPattern,
		Status:          model.RunStatusSuccess,
		Engine:          engine,
		StartedAt:       started,
		EndedAt:         ended,
		Events:          events,
		BeamEnergy:      beamEnergy,
		ResistThickness: resistThickness,
		TotalEnergy:     grid.TotalEnergy(),
		TotalShots:      gen.TotalShots(),
	}
}
