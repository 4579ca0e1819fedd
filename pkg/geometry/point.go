// Package geometry implement basic geometry model used by the scoring and
// pattern packages.
package geometry

import "math"

// Point point in 3D space. Coordinates are in nm; the beam enters along
// the z axis, z=0 is the resist/substrate interface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Radius returns the distance from the beam axis.
func (p Point) Radius() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y)
}

// Finite reports whether all coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}
