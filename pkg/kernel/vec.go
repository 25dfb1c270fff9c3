package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FallbackNormal is used wherever a normal cannot be derived, such as
// degenerate triangles or empty regions.
var FallbackNormal = r3.Vec{X: 0, Y: 0, Z: 1}

// degenerateNorm is the length below which a vector is treated as zero.
const degenerateNorm = 1e-10

// UnitOrFallback returns v scaled to unit length, or FallbackNormal when v
// is too short (or not finite) to normalize.
func UnitOrFallback(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if !(n > degenerateNorm) || math.IsInf(n, 0) {
		return FallbackNormal
	}
	return r3.Scale(1/n, v)
}

// IsFinite reports whether every coordinate of v is finite.
func IsFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}

func vecAt(flat []float32, i int) r3.Vec {
	return r3.Vec{X: float64(flat[i*3]), Y: float64(flat[i*3+1]), Z: float64(flat[i*3+2])}
}

func appendVec(flat []float32, v r3.Vec) []float32 {
	return append(flat, float32(v.X), float32(v.Y), float32(v.Z))
}
