// Package runner drives simulation runs: it partitions work across
// parallel workers, owns progress reporting and merges per-worker
// results once all workers finish. Workers never share mutable state
// mid-run; merging happens on the calling goroutine.
package runner

import (
	"sync"
	"sync/atomic"
	"time"

	pb "gopkg.in/cheggaaa/pb.v1"

	conf "github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/model"
)

var log = conf.NamedLogger("runner")

// ProgressFunc receives point-in-time progress snapshots during a run.
// Called from a single reporting goroutine.
type ProgressFunc func(model.Progress)

const progressInterval = 200 * time.Millisecond

// tracker counts finished work units and fans progress out to the
// optional callback and terminal bar. increment is safe from any worker.
type tracker struct {
	runID    int64
	total    int
	started  time.Time
	done     atomic.Int64
	callback ProgressFunc
	bar      *pb.ProgressBar
	stop     chan struct{}
	wg       sync.WaitGroup
}

func newTracker(runID int64, total int, callback ProgressFunc, showBar bool) *tracker {
	t := &tracker{
		runID:    runID,
		total:    total,
		started:  time.Now(),
		callback: callback,
		stop:     make(chan struct{}),
	}
	if showBar {
		t.bar = pb.New(total)
		t.bar.Start()
	}
	if callback != nil {
		t.wg.Add(1)
		go t.report()
	}
	return t
}

func (t *tracker) increment(n int) {
	t.done.Add(int64(n))
	if t.bar != nil {
		t.bar.Add(n)
	}
}

func (t *tracker) snapshot() model.Progress {
	done := int(t.done.Load())
	fraction := 0.0
	if t.total > 0 {
		fraction = float64(done) / float64(t.total)
	}
	return model.Progress{
		RunID:     t.runID,
		Done:      done,
		Total:     t.total,
		Fraction:  fraction,
		ElapsedMs: time.Since(t.started).Milliseconds(),
	}
}

func (t *tracker) report() {
	defer t.wg.Done()
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.callback(t.snapshot())
		case <-t.stop:
			return
		}
	}
}

// finish stops the reporter and delivers one final snapshot.
func (t *tracker) finish() {
	close(t.stop)
	t.wg.Wait()
	if t.bar != nil {
		t.bar.Finish()
	}
	if t.callback != nil {
		t.callback(t.snapshot())
	}
}

// splitRange splits n work units into at most parts contiguous [lo, hi)
// chunks. Fewer chunks come back when n < parts.
func splitRange(n, parts int) [][2]int {
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}

	chunks := make([][2]int, 0, parts)
	chunkSize := n / parts
	remainder := n % parts

	lo := 0
	for i := 0; i < parts; i++ {
		hi := lo + chunkSize
		if i < remainder {
			hi++
		}
		chunks = append(chunks, [2]int{lo, hi})
		lo = hi
	}
	return chunks
}
