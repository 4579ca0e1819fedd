// Package errors error module.
package errors

import (
	"fmt"
)

var (
	// ErrSizeMismatch histogram size mismatch between event and run accumulators.
	ErrSizeMismatch = fmt.Errorf("sizemismatch")
	// ErrGridNotInitialized dose grid used before initialization.
	ErrGridNotInitialized = fmt.Errorf("gridnotinitialized")
	// ErrPatternNotGenerated pattern traversed before generation.
	ErrPatternNotGenerated = fmt.Errorf("patternnotgenerated")
	// ErrInvalidConfiguration configuration rejected before the run.
	ErrInvalidConfiguration = fmt.Errorf("invalidconfiguration")
	// ErrRunAborted run cancelled before completion.
	ErrRunAborted = fmt.Errorf("runaborted")
	// ErrNotFound error not found.
	ErrNotFound = fmt.Errorf("notfound")
)

type makeNewScorerErrorFuncType = func(message string, formatedValues ...interface{}) error

// PSFScorerError ...
var PSFScorerError = makeNewScorerErrorFunc("psf")

// DoseGridError ...
var DoseGridError = makeNewScorerErrorFunc("dosegrid")

// PatternError ...
var PatternError = makeNewScorerErrorFunc("pattern")

func makeNewScorerErrorFunc(scorerName string) makeNewScorerErrorFuncType {
	return func(message string, formatedValues ...interface{}) error {
		return fmt.Errorf("[scorer] "+scorerName+": "+message, formatedValues...)
	}
}
