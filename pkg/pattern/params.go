// Package pattern generates exposure shot sequences for vector-scan
// pattern writing: shot placement on the machine grid, stitching-field
// assignment and dwell-time dose physics.
package pattern

import (
	"fmt"
	"math"
)

// JEOL JBX-6300FS machine constants.
const (
	// EOS mode 3, 4th lens
	FieldSizeMode3   = 500000.0 // nm (500 um)
	MachineGridMode3 = 1.0      // nm

	// EOS mode 6, 5th lens
	FieldSizeMode6   = 62500.0 // nm (62.5 um)
	MachineGridMode6 = 0.125   // nm

	// exposure clock limits
	MaxClockFrequency = 50.0  // MHz
	MinClockFrequency = 0.001 // MHz

	// usable dose range
	MinDose = 1.0     // uC/cm^2
	MaxDose = 10000.0 // uC/cm^2

	// dose modulation ranks
	NumShotRanks = 256
)

// elementaryCharge in Coulombs.
const elementaryCharge = 1.602176634e-19

// PatternType selects the point-emission geometry.
type PatternType int

// Pattern types.
const (
	SingleSpot PatternType = iota
	Square
	Line
	Cross
)

func (t PatternType) String() string {
	switch t {
	case SingleSpot:
		return "spot"
	case Square:
		return "square"
	case Line:
		return "line"
	case Cross:
		return "cross"
	}
	return "unknown"
}

// ScanOrder selects shot traversal order. All orders visit the same point
// set; serpentine minimizes beam-settling overhead versus raster.
type ScanOrder int

// Scan orders.
const (
	Raster ScanOrder = iota
	Serpentine
	Spiral
)

// EOSMode is the electron-optical lens configuration; it fixes field size
// and machine grid.
type EOSMode int

// EOS modes.
const (
	EOSMode3 EOSMode = 3
	EOSMode6 EOSMode = 6
)

// MachineGrid returns the finest addressable beam step for the mode, nm.
func (m EOSMode) MachineGrid() float64 {
	if m == EOSMode6 {
		return MachineGridMode6
	}
	return MachineGridMode3
}

// FieldSize returns the deflection field size for the mode, nm.
func (m EOSMode) FieldSize() float64 {
	if m == EOSMode6 {
		return FieldSizeMode6
	}
	return FieldSizeMode3
}

// IsValidShotPitch reports whether a shot pitch is addressable: the pitch
// must be 1 or a positive even number.
func IsValidShotPitch(pitch int) bool {
	return pitch == 1 || (pitch > 0 && pitch%2 == 0)
}

// Parameters configures one pattern generation. Immutable once a pattern
// has been generated from it.
type Parameters struct {
	Type    PatternType
	Size    float64 // nm
	CenterX float64 // nm
	CenterY float64 // nm

	EOSMode     EOSMode
	ShotPitch   int
	BeamCurrent float64 // nA
	Dose        float64 // uC/cm^2
	ScanOrder   ScanOrder

	// Array tiling: the base pattern is replicated on an ArrayNx x ArrayNy
	// lattice with ArrayPitch spacing. 1x1 means no tiling.
	ArrayNx    int
	ArrayNy    int
	ArrayPitch float64 // nm

	modulation [NumShotRanks]float64
}

// DefaultParameters returns a 1 um square at 2 nA, usable as-is.
func DefaultParameters() Parameters {
	p := Parameters{
		Type:        Square,
		Size:        1000.0,
		EOSMode:     EOSMode3,
		ShotPitch:   4,
		BeamCurrent: 2.0,
		Dose:        400.0,
		ScanOrder:   Serpentine,
		ArrayNx:     1,
		ArrayNy:     1,
	}
	for i := range p.modulation {
		p.modulation[i] = 1.0
	}
	return p
}

// SetModulation sets the dose multiplier for one shot rank. Rank 0 is the
// interior (full dose) by convention.
func (p *Parameters) SetModulation(rank int, value float64) error {
	if rank < 0 || rank >= NumShotRanks {
		return fmt.Errorf("shot rank %d outside [0,%d)", rank, NumShotRanks)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("modulation for rank %d must be a finite non-negative number, got %g", rank, value)
	}
	p.modulation[rank] = value
	return nil
}

// Modulation returns the dose multiplier for a shot rank.
func (p *Parameters) Modulation(rank int) float64 {
	if rank < 0 || rank >= NumShotRanks {
		return 1.0
	}
	return p.modulation[rank]
}

// ExposureGrid returns the shot spacing: machine grid times shot pitch, nm.
func (p *Parameters) ExposureGrid() float64 {
	return p.EOSMode.MachineGrid() * float64(p.ShotPitch)
}

// Validate reports configuration problems as human-readable strings,
// before any expensive computation begins. The caller decides whether to
// proceed.
func (p *Parameters) Validate() []string {
	errors := []string{}

	if !IsValidShotPitch(p.ShotPitch) {
		errors = append(errors, fmt.Sprintf("shot pitch must be 1 or an even number, got %d", p.ShotPitch))
	}
	if p.Size <= 0 && p.Type != SingleSpot {
		errors = append(errors, fmt.Sprintf("pattern size must be positive, got %g nm", p.Size))
	}
	if p.BeamCurrent <= 0 {
		errors = append(errors, fmt.Sprintf("beam current must be positive, got %g nA", p.BeamCurrent))
	}
	if p.Dose < MinDose || p.Dose > MaxDose {
		errors = append(errors, fmt.Sprintf("dose %g uC/cm^2 outside usable range [%g, %g]", p.Dose, MinDose, MaxDose))
	}
	if p.EOSMode != EOSMode3 && p.EOSMode != EOSMode6 {
		errors = append(errors, fmt.Sprintf("unknown EOS mode %d", p.EOSMode))
	}
	if !p.fitsInField() {
		errors = append(errors, fmt.Sprintf(
			"pattern exceeds field boundaries: pattern size %g um at (%g, %g) um, field size %g um",
			p.Size/1000.0, p.CenterX/1000.0, p.CenterY/1000.0, p.EOSMode.FieldSize()/1000.0))
	}
	if p.ArrayNx < 1 || p.ArrayNy < 1 {
		errors = append(errors, fmt.Sprintf("array tiling must be at least 1x1, got %dx%d", p.ArrayNx, p.ArrayNy))
	}
	if (p.ArrayNx > 1 || p.ArrayNy > 1) && p.ArrayPitch <= 0 {
		errors = append(errors, fmt.Sprintf("array pitch must be positive for tiled patterns, got %g nm", p.ArrayPitch))
	}

	return errors
}

// fitsInField checks that the base pattern fits within a single
// deflection field. Stitched multi-field patterns are a future extension.
func (p *Parameters) fitsInField() bool {
	halfPattern := p.Size / 2.0
	maxCoord := math.Max(
		math.Abs(p.CenterX)+halfPattern,
		math.Abs(p.CenterY)+halfPattern,
	)
	return maxCoord <= p.EOSMode.FieldSize()/2.0
}
