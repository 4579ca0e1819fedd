package pattern

import (
	"math"
	"sort"
	"strings"

	conf "github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/errors"
)

var log = conf.NamedLogger("pattern")

// ShotPoint is a single beam-dwell exposure at one grid position.
// Immutable after generation.
type ShotPoint struct {
	X         float64 `json:"x"`         // nm
	Y         float64 `json:"y"`         // nm
	Rank      uint8   `json:"rank"`      // dose-modulation rank
	FieldID   int     `json:"fieldId"`   // assigned stitching field
	DwellTime float64 `json:"dwellTime"` // us
}

// FieldInfo is one stitching field and the shots inside it.
type FieldInfo struct {
	ID      int     `json:"id"`
	CenterX float64 `json:"centerX"` // nm
	CenterY float64 `json:"centerY"` // nm
	Size    float64 `json:"size"`    // nm
	Shots   []int   `json:"shots"`   // indices into the shot list
}

// Generator produces the shot sequence for one pattern and exposes it to
// the primary-particle source through sequential traversal.
type Generator struct {
	Params Parameters

	// derived exposure physics, filled by Generate
	ClockFrequency float64 // MHz
	BaseDwellTime  float64 // us
	AchievedDose   float64 // uC/cm^2; differs from Params.Dose when clamped
	Clamped        bool

	shots     []ShotPoint
	fields    []FieldInfo
	cursor    int
	generated bool
}

// NewGenerator constructor.
func NewGenerator(params Parameters) *Generator {
	return &Generator{Params: params}
}

// Generate validates the configuration, computes the exposure physics and
// emits the shot list grouped into fields.
func (g *Generator) Generate() error {
	if problems := g.Params.Validate(); len(problems) > 0 {
		return errors.PatternError("invalid configuration: %s", strings.Join(problems, "; "))
	}

	g.calculateDwellTime()

	g.shots = g.shots[:0]
	g.cursor = 0

	offsets := g.arrayOffsets()
	for _, off := range offsets {
		g.emit(off[0], off[1])
	}

	g.assignShotsToFields()
	g.generated = true

	log.Infof("generated %s pattern: %d shots in %d fields, clock %g MHz, base dwell %g us, %d electrons/point",
		g.Params.Type, len(g.shots), len(g.fields), g.ClockFrequency, g.BaseDwellTime, g.ElectronsPerPoint())
	return nil
}

// calculateDwellTime derives clock frequency and base dwell time from the
// dose equation. Frequencies above the hardware ceiling are clamped and
// the actually-achieved dose recomputed.
func (g *Generator) calculateDwellTime() {
	grid := g.Params.ExposureGrid() // nm

	// dose[uC/cm^2] = current[pA] * 100 / (freq[MHz] * grid[nm]^2)
	currentPA := g.Params.BeamCurrent * 1000.0
	g.ClockFrequency = (currentPA * 100.0) / (g.Params.Dose * grid * grid)
	g.AchievedDose = g.Params.Dose
	g.Clamped = false

	if g.ClockFrequency > MaxClockFrequency {
		g.Clamped = true
		g.AchievedDose = (currentPA * 100.0) / (MaxClockFrequency * grid * grid)
		log.Warnf("clock frequency %g MHz exceeds %g MHz limit; clamping, achieved dose %g instead of %g uC/cm^2",
			g.ClockFrequency, MaxClockFrequency, g.AchievedDose, g.Params.Dose)
		g.ClockFrequency = MaxClockFrequency
	}

	g.BaseDwellTime = 1.0 / g.ClockFrequency
}

// DwellTime returns the dwell time for a shot rank: base dwell scaled by
// the rank's dose-modulation multiplier.
func (g *Generator) DwellTime(rank uint8) float64 {
	return g.BaseDwellTime * g.Params.Modulation(int(rank))
}

// ElectronsPerPoint returns the number of primaries fired per shot to
// deliver the base dose, minimum 1.
func (g *Generator) ElectronsPerPoint() int {
	currentA := g.Params.BeamCurrent * 1e-9
	dwellS := g.BaseDwellTime * 1e-6
	n := int(math.Round(currentA * dwellS / elementaryCharge))
	if n < 1 {
		n = 1
	}
	return n
}

// arrayOffsets returns the tiling lattice offsets, centered on the origin.
func (g *Generator) arrayOffsets() [][2]float64 {
	nx, ny := g.Params.ArrayNx, g.Params.ArrayNy
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	pitch := g.Params.ArrayPitch

	offsets := make([][2]float64, 0, nx*ny)
	x0 := -float64(nx-1) * pitch / 2.0
	y0 := -float64(ny-1) * pitch / 2.0
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			offsets = append(offsets, [2]float64{x0 + float64(ix)*pitch, y0 + float64(iy)*pitch})
		}
	}
	return offsets
}

// emit appends the base pattern's shots translated by (dx, dy).
func (g *Generator) emit(dx, dy float64) {
	cx := g.Params.CenterX + dx
	cy := g.Params.CenterY + dy

	switch g.Params.Type {
	case SingleSpot:
		g.addShot(cx, cy, 0)
	case Square:
		g.emitSquare(cx, cy)
	case Line:
		g.emitLine(cx, cy)
	case Cross:
		g.emitCross(cx, cy)
	}
}

func (g *Generator) addShot(x, y float64, rank uint8) {
	g.shots = append(g.shots, ShotPoint{
		X:         x,
		Y:         y,
		Rank:      rank,
		FieldID:   -1,
		DwellTime: g.DwellTime(rank),
	})
}

// assignShotsToFields tiles the shot bounding box with fields of the EOS
// mode's size, aligned to the pattern center, and assigns each shot to
// the field containing it.
func (g *Generator) assignShotsToFields() {
	g.fields = g.fields[:0]
	if len(g.shots) == 0 {
		return
	}

	fieldSize := g.Params.EOSMode.FieldSize()
	cx, cy := g.Params.CenterX, g.Params.CenterY

	type fieldKey struct{ ix, iy int }
	byKey := map[fieldKey]*FieldInfo{}
	keys := []fieldKey{}

	for i := range g.shots {
		s := &g.shots[i]
		key := fieldKey{
			ix: int(math.Round((s.X - cx) / fieldSize)),
			iy: int(math.Round((s.Y - cy) / fieldSize)),
		}
		f, ok := byKey[key]
		if !ok {
			f = &FieldInfo{
				CenterX: cx + float64(key.ix)*fieldSize,
				CenterY: cy + float64(key.iy)*fieldSize,
				Size:    fieldSize,
			}
			byKey[key] = f
			keys = append(keys, key)
		}
		f.Shots = append(f.Shots, i)
	}

	// deterministic field numbering regardless of scan order
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].iy != keys[b].iy {
			return keys[a].iy < keys[b].iy
		}
		return keys[a].ix < keys[b].ix
	})
	for id, key := range keys {
		f := byKey[key]
		f.ID = id
		for _, shotIdx := range f.Shots {
			g.shots[shotIdx].FieldID = id
		}
		g.fields = append(g.fields, *f)
	}
}

// TotalShots returns the number of generated shots.
func (g *Generator) TotalShots() int { return len(g.shots) }

// TotalFields returns the number of stitching fields in use.
func (g *Generator) TotalFields() int { return len(g.fields) }

// Shots returns the generated shot list.
func (g *Generator) Shots() []ShotPoint { return g.shots }

// Fields returns the stitching fields.
func (g *Generator) Fields() []FieldInfo { return g.fields }

// EstimatedExposureTime returns the summed dwell time over all shots, us.
func (g *Generator) EstimatedExposureTime() float64 {
	total := 0.0
	for _, s := range g.shots {
		total += s.DwellTime
	}
	return total
}

// CurrentShot returns the shot at the traversal cursor.
func (g *Generator) CurrentShot() (ShotPoint, error) {
	if !g.generated {
		return ShotPoint{}, errors.ErrPatternNotGenerated
	}
	if g.cursor >= len(g.shots) {
		return ShotPoint{}, errors.ErrNotFound
	}
	return g.shots[g.cursor], nil
}

// HasNext reports whether shots remain at or after the cursor.
func (g *Generator) HasNext() bool {
	return g.generated && g.cursor < len(g.shots)
}

// Advance moves the traversal cursor to the next shot.
func (g *Generator) Advance() { g.cursor++ }

// Reset rewinds the traversal cursor.
func (g *Generator) Reset() { g.cursor = 0 }
