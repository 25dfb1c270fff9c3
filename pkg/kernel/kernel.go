// Package kernel defines the geometry consumed by the segmentation core:
// triangle meshes and point clouds stored as flat float arrays, plus the
// abstract geometry kernel interface used to produce them. Implementations
// (sdfx) build solids and convert them into meshes or sampled point clouds
// behind this interface, so the core never depends on a specific backend.
package kernel

import "errors"

// ErrEmptyInput is returned when a mesh or point cloud has no geometry.
var ErrEmptyInput = errors.New("kernel: empty input")

// ErrMalformed is returned when array lengths, indices or coordinates
// do not describe valid geometry.
var ErrMalformed = errors.New("kernel: malformed input")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Output
	ToMesh(s Solid) (*Mesh, error)
	ToPointCloud(s Solid) (*PointCloud, error)
}
