package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// PointCloud is an unorganized point set with optional per-point normals
// and colors, stored as flat arrays parallel to Points.
type PointCloud struct {
	Points  []float32 `json:"points"`            // [x0,y0,z0, ...]
	Normals []float32 `json:"normals,omitempty"` // [nx0,ny0,nz0, ...]
	Colors  []float32 `json:"colors,omitempty"`  // [r0,g0,b0, ...] in [0,1]
}

// NewPointCloud builds a point cloud from positions and optional normals.
// Pass nil normals to leave them unset.
func NewPointCloud(points []r3.Vec, normals []r3.Vec) *PointCloud {
	pc := &PointCloud{Points: make([]float32, 0, len(points)*3)}
	for _, p := range points {
		pc.Points = appendVec(pc.Points, p)
	}
	if normals != nil {
		pc.SetNormals(normals)
	}
	return pc
}

// Len returns the number of points.
func (pc *PointCloud) Len() int {
	return len(pc.Points) / 3
}

// IsEmpty returns true if the cloud has no points.
func (pc *PointCloud) IsEmpty() bool {
	return len(pc.Points) == 0
}

// HasNormals reports whether a normal is stored for every point.
func (pc *PointCloud) HasNormals() bool {
	return len(pc.Normals) != 0 && len(pc.Normals) == len(pc.Points)
}

// HasColors reports whether a color is stored for every point.
func (pc *PointCloud) HasColors() bool {
	return len(pc.Colors) != 0 && len(pc.Colors) == len(pc.Points)
}

// Point returns the position of point i.
func (pc *PointCloud) Point(i int) r3.Vec {
	return vecAt(pc.Points, i)
}

// Normal returns the unit normal of point i, or FallbackNormal when the
// cloud has no normals.
func (pc *PointCloud) Normal(i int) r3.Vec {
	if !pc.HasNormals() {
		return FallbackNormal
	}
	return UnitOrFallback(vecAt(pc.Normals, i))
}

// Positions returns every point position.
func (pc *PointCloud) Positions() []r3.Vec {
	out := make([]r3.Vec, pc.Len())
	for i := range out {
		out[i] = pc.Point(i)
	}
	return out
}

// UnitNormals returns every point normal scaled to unit length, or nil
// when the cloud has no normals.
func (pc *PointCloud) UnitNormals() []r3.Vec {
	if !pc.HasNormals() {
		return nil
	}
	out := make([]r3.Vec, pc.Len())
	for i := range out {
		out[i] = pc.Normal(i)
	}
	return out
}

// SetNormals replaces the normals of the cloud.
func (pc *PointCloud) SetNormals(normals []r3.Vec) {
	pc.Normals = make([]float32, 0, len(normals)*3)
	for _, n := range normals {
		pc.Normals = appendVec(pc.Normals, n)
	}
}

// Select returns a new cloud holding the given points in the given order.
// Normals and colors are carried along when present.
func (pc *PointCloud) Select(indices []int) *PointCloud {
	out := &PointCloud{Points: make([]float32, 0, len(indices)*3)}
	hasN, hasC := pc.HasNormals(), pc.HasColors()
	for _, i := range indices {
		out.Points = append(out.Points, pc.Points[i*3:i*3+3]...)
		if hasN {
			out.Normals = append(out.Normals, pc.Normals[i*3:i*3+3]...)
		}
		if hasC {
			out.Colors = append(out.Colors, pc.Colors[i*3:i*3+3]...)
		}
	}
	return out
}

// Validate checks that the cloud is non-empty and internally consistent.
// It returns an error wrapping ErrEmptyInput or ErrMalformed.
func (pc *PointCloud) Validate() error {
	if pc == nil || pc.IsEmpty() {
		return fmt.Errorf("point cloud: %w", ErrEmptyInput)
	}
	if len(pc.Points)%3 != 0 {
		return fmt.Errorf("point cloud: point array length %d is not a multiple of 3: %w", len(pc.Points), ErrMalformed)
	}
	if len(pc.Normals) != 0 && len(pc.Normals) != len(pc.Points) {
		return fmt.Errorf("point cloud: normals length %d != points length %d: %w", len(pc.Normals), len(pc.Points), ErrMalformed)
	}
	if len(pc.Colors) != 0 && len(pc.Colors) != len(pc.Points) {
		return fmt.Errorf("point cloud: colors length %d != points length %d: %w", len(pc.Colors), len(pc.Points), ErrMalformed)
	}
	for i := 0; i < pc.Len(); i++ {
		if !IsFinite(pc.Point(i)) {
			return fmt.Errorf("point cloud: point %d has non-finite coordinates: %w", i, ErrMalformed)
		}
	}
	return nil
}
