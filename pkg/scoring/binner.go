// Package scoring implements the statistical accumulation engine: radial
// and depth-resolved PSF histogramming plus the 3D dose grid used for
// pattern exposures.
package scoring

import (
	"math"
)

// RadialBinner maps radii from the beam axis to histogram bins.
// Logarithmic spacing by default; the first bin is widened to absorb the
// origin, the last bin absorbs everything at or beyond MaxRadius.
type RadialBinner struct {
	NumBins    int
	MinRadius  float64 // nm
	MaxRadius  float64 // nm
	LogBinning bool
}

// NewRadialBinner constructor.
func NewRadialBinner(numBins int, minRadius, maxRadius float64, logBinning bool) RadialBinner {
	return RadialBinner{
		NumBins:    numBins,
		MinRadius:  minRadius,
		MaxRadius:  maxRadius,
		LogBinning: logBinning,
	}
}

// Index returns the bin for a radius, or -1 for r <= 0 in log mode.
func (b RadialBinner) Index(radius float64) int {
	if !b.LogBinning {
		binWidth := b.MaxRadius / float64(b.NumBins)
		bin := int(radius / binWidth)
		if bin < 0 {
			bin = 0
		}
		if bin >= b.NumBins {
			bin = b.NumBins - 1
		}
		return bin
	}

	if radius <= 0 {
		return -1
	}
	if radius < b.MinRadius {
		return 0
	}
	if radius >= b.MaxRadius {
		return b.NumBins - 1
	}

	// Same log step as Bounds, so Bounds(Index(r)) always brackets r.
	logRatio := math.Log(radius/b.MinRadius) / math.Log(b.MaxRadius/b.MinRadius)
	bin := int(logRatio * float64(b.NumBins))

	if bin < 0 {
		bin = 0
	}
	if bin >= b.NumBins {
		bin = b.NumBins - 1
	}
	return bin
}

// Center returns the radius at the center of a bin (geometric center in
// log mode).
func (b RadialBinner) Center(bin int) float64 {
	if bin < 0 {
		return 0.0
	}
	if bin >= b.NumBins {
		return b.MaxRadius
	}

	if !b.LogBinning {
		binWidth := b.MaxRadius / float64(b.NumBins)
		return (float64(bin) + 0.5) * binWidth
	}

	logMin := math.Log(b.MinRadius)
	logMax := math.Log(b.MaxRadius)
	logStep := (logMax - logMin) / float64(b.NumBins)

	logLower := logMin + float64(bin)*logStep
	logUpper := logMin + float64(bin+1)*logStep
	return math.Exp((logLower + logUpper) / 2.0)
}

// Bounds returns the inner and outer radius of a bin. The first bin's
// inner edge is 0 so together the bins partition [0, MaxRadius).
func (b RadialBinner) Bounds(bin int) (rInner, rOuter float64) {
	if !b.LogBinning {
		binWidth := b.MaxRadius / float64(b.NumBins)
		return float64(bin) * binWidth, float64(bin+1) * binWidth
	}

	logMin := math.Log(b.MinRadius)
	logMax := math.Log(b.MaxRadius)
	logStep := (logMax - logMin) / float64(b.NumBins)

	if bin == 0 {
		return 0.0, math.Exp(logMin + logStep)
	}
	if bin >= b.NumBins {
		return b.MaxRadius, b.MaxRadius
	}
	return math.Exp(logMin + float64(bin)*logStep),
		math.Exp(logMin + float64(bin+1)*logStep)
}

// Area returns the annular area of a bin in nm^2, used for energy density
// normalization.
func (b RadialBinner) Area(bin int) float64 {
	rInner, rOuter := b.Bounds(bin)
	return math.Pi * (rOuter*rOuter - rInner*rInner)
}

// DepthBinner maps z coordinates to linear depth bins. Out-of-window
// depths clamp to the nearest edge bin, so depth energy is never dropped.
type DepthBinner struct {
	NumBins  int
	MinDepth float64 // nm
	MaxDepth float64 // nm
}

// NewDepthBinner constructor.
func NewDepthBinner(numBins int, minDepth, maxDepth float64) DepthBinner {
	return DepthBinner{NumBins: numBins, MinDepth: minDepth, MaxDepth: maxDepth}
}

// Index returns the depth bin for z, clamped to [0, NumBins-1].
func (b DepthBinner) Index(z float64) int {
	if z < b.MinDepth {
		return 0
	}
	if z > b.MaxDepth {
		return b.NumBins - 1
	}

	depthRange := b.MaxDepth - b.MinDepth
	bin := int((z - b.MinDepth) / depthRange * float64(b.NumBins))
	if bin < 0 {
		bin = 0
	}
	if bin >= b.NumBins {
		bin = b.NumBins - 1
	}
	return bin
}

// Center returns the z coordinate at the center of a depth bin.
func (b DepthBinner) Center(bin int) float64 {
	binWidth := (b.MaxDepth - b.MinDepth) / float64(b.NumBins)
	return b.MinDepth + (float64(bin)+0.5)*binWidth
}
