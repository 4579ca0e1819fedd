package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreece2304/EBeamSim-sub000/errors"
	"github.com/dreece2304/EBeamSim-sub000/model"
	"github.com/dreece2304/EBeamSim-sub000/pkg/scoring"
	"github.com/dreece2304/EBeamSim-sub000/simulation"
)

func testPSFRunner(events, workers int) *PSFRunner {
	return &PSFRunner{
		Engine:  simulation.NewDoubleGaussian(),
		Beam:    simulation.Beam{Energy: 100.0, ResistThickness: 30.0},
		Radial:  scoring.NewRadialBinner(32, 0.05, 100000.0, true),
		Depth:   scoring.NewDepthBinner(20, -50000.0, 150.0),
		Events:  events,
		Workers: workers,
		Seed:    1,
	}
}

func TestPSFRunAccumulatesAllEvents(t *testing.T) {
	r := testPSFRunner(50, 4)

	acc, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50, acc.NumEvents())

	// the analytic engine deposits a fixed energy per event
	engine := simulation.NewDoubleGaussian()
	perEvent := 100.0 * 1000.0 * engine.DepositFraction
	assert.InDelta(t, 50.0*perEvent, acc.TotalEnergy(), 1e-3)
}

func TestPSFRunReproducible(t *testing.T) {
	first, err := testPSFRunner(20, 3).Run(context.Background())
	require.NoError(t, err)
	second, err := testPSFRunner(20, 3).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.RawProfile(), second.RawProfile())
	assert.Equal(t, first.TotalEnergy(), second.TotalEnergy())
}

func TestPSFRunWorkerCountPreservesTotals(t *testing.T) {
	single, err := testPSFRunner(30, 1).Run(context.Background())
	require.NoError(t, err)
	parallel, err := testPSFRunner(30, 3).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, single.NumEvents(), parallel.NumEvents())
	assert.InDelta(t, single.TotalEnergy(), parallel.TotalEnergy(), 1e-6)
}

func TestPSFRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	acc, err := testPSFRunner(1000, 2).Run(ctx)
	assert.ErrorIs(t, err, errors.ErrRunAborted)
	assert.Nil(t, acc)
}

func TestPSFRunRejectsZeroEvents(t *testing.T) {
	_, err := testPSFRunner(0, 1).Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrInvalidConfiguration)
}

func TestPSFRunFinalProgress(t *testing.T) {
	var mu sync.Mutex
	var last model.Progress

	r := testPSFRunner(25, 2)
	r.RunID = 7
	r.Progress = func(p model.Progress) {
		mu.Lock()
		last = p
		mu.Unlock()
	}

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(7), last.RunID)
	assert.Equal(t, 25, last.Done)
	assert.Equal(t, 25, last.Total)
	assert.Equal(t, 1.0, last.Fraction)
}

func TestSplitRange(t *testing.T) {
	cases := []struct {
		n, parts int
		expected [][2]int
	}{
		{10, 3, [][2]int{{0, 4}, {4, 7}, {7, 10}}},
		{2, 4, [][2]int{{0, 1}, {1, 2}}},
		{5, 1, [][2]int{{0, 5}}},
		{6, 2, [][2]int{{0, 3}, {3, 6}}},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, splitRange(c.n, c.parts), "splitRange(%d, %d)", c.n, c.parts)
	}
}

func TestPSFSummary(t *testing.T) {
	r := testPSFRunner(10, 2)
	acc, err := r.Run(context.Background())
	require.NoError(t, err)

	started := time.Now().Add(-time.Second)
	ended := time.Now()
	summary := PSFSummary(acc, r.Engine.Name(), r.Beam, started, ended)

	assert.Equal(t, model.RunKindPSF, summary.Kind)
	assert.Equal(t, model.RunStatusSuccess, summary.Status)
	assert.Equal(t, 10, summary.Events)
	assert.Equal(t, 100.0, summary.BeamEnergy)
	assert.Equal(t, acc.TotalEnergy(), summary.TotalEnergy)
	assert.Greater(t, summary.R50, 0.0)
	assert.Greater(t, summary.Alpha, 0.0)
}
