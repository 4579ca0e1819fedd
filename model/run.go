// Package model contains types shared between the run controller, the
// archive and the web API.
package model

import "time"

// Deposit is a single energy deposition step handed over by the transport
// engine. Energy is in eV, coordinates in nm. Deposits are consumed
// immediately by a scorer and never stored.
type Deposit struct {
	Energy float64
	X      float64
	Y      float64
	Z      float64
}

// RunKind distinguishes the two accumulation modes.
type RunKind string

// Run kinds.
const (
	RunKindPSF     RunKind = "psf"
	RunKindPattern RunKind = "pattern"
)

// RunStatus represents run lifecycle state.
type RunStatus int

// Run statuses.
const (
	RunStatusNew RunStatus = iota
	RunStatusRunning
	RunStatusSuccess
	RunStatusFailure
	RunStatusCanceled
)

func (s RunStatus) String() string {
	switch s {
	case RunStatusNew:
		return "new"
	case RunStatusRunning:
		return "running"
	case RunStatusSuccess:
		return "success"
	case RunStatusFailure:
		return "failure"
	case RunStatusCanceled:
		return "canceled"
	}
	return "unknown"
}

// RunSummary is the archived record of one finished run.
type RunSummary struct {
	ID        int64     `json:"id"`
	Kind      RunKind   `json:"kind"`
	Status    RunStatus `json:"status"`
	Engine    string    `json:"engine"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`

	Events          int     `json:"events"`
	BeamEnergy      float64 `json:"beamEnergy"`      // keV
	ResistThickness float64 `json:"resistThickness"` // nm

	TotalEnergy     float64 `json:"totalEnergy"`     // eV
	ResistEnergy    float64 `json:"resistEnergy"`    // eV
	SubstrateEnergy float64 `json:"substrateEnergy"` // eV
	AboveEnergy     float64 `json:"aboveEnergy"`     // eV

	R50 float64 `json:"r50"` // nm
	R90 float64 `json:"r90"` // nm
	R99 float64 `json:"r99"` // nm

	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Eta   float64 `json:"eta"` // nm

	TotalShots int `json:"totalShots,omitempty"`
}

// Progress is a point-in-time snapshot of a running simulation, pushed to
// live listeners.
type Progress struct {
	RunID     int64   `json:"runId"`
	Done      int     `json:"done"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
	ElapsedMs int64   `json:"elapsedMs"`
}
