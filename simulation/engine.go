// Package simulation defines the Monte Carlo transport engine interface
// and the registry of available engines. The transport kernel itself is
// an external collaborator; a built-in analytic engine ships as the
// default so runs work without one.
package simulation

import (
	"errors"
	"math/rand"
	"sort"
	"sync"

	"github.com/dreece2304/EBeamSim-sub000/model"
)

// ErrEngineNotFound reported when no working engine is registered under
// the requested name.
var ErrEngineNotFound = errors.New("simulation engine not found")

// Beam describes one primary electron: its energy, entry position on the
// resist surface and the resist it enters.
type Beam struct {
	Energy          float64 // keV
	X, Y            float64 // nm, entry position
	ResistThickness float64 // nm
}

// Engine fires single primary electrons. Event calls emit once per
// interaction step with the deposited energy and position; it must be
// safe to call concurrently from multiple goroutines, each with its own
// rng.
type Engine interface {
	Name() string

	IsWorking() bool

	Event(rng *rand.Rand, beam Beam, emit func(model.Deposit))
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Engine{}
)

// Register makes an engine available for lookup under its name. External
// kernels register themselves on startup; the analytic engine is
// registered by this package.
func Register(engine Engine) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[engine.Name()] = engine
}

// Lookup returns the working engine registered under name.
func Lookup(name string) (Engine, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	engine, ok := registry[name]
	if !ok || !engine.IsWorking() {
		return nil, ErrEngineNotFound
	}
	return engine, nil
}

// AvailableEngineNames returns the names of all working engines, sorted.
func AvailableEngineNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := []string{}
	for name, engine := range registry {
		if engine.IsWorking() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(NewDoubleGaussian())
}
