// Package tessellate walks a shape tree and produces the geometry the
// segmentation core consumes, using a geometry kernel: a welded triangle
// mesh for face region growing or a sampled point cloud for clustering.
package tessellate

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/kernel"
)

// ErrInvalidShape is returned for shapes with missing children or
// non-positive dimensions.
var ErrInvalidShape = errors.New("tessellate: invalid shape")

// Kind identifies a shape node.
type Kind int

const (
	KindBox Kind = iota
	KindCylinder
	KindUnion
	KindDifference
	KindIntersection
	KindTranslate
	KindRotate
)

var kindNames = [...]string{"box", "cylinder", "union", "difference", "intersection", "translate", "rotate"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Shape is a node of a constructive solid geometry tree.
type Shape struct {
	Kind Kind
	// Size holds box extents, or height (X) and radius (Y) of a cylinder.
	Size     r3.Vec
	Segments int
	// Offset is the translation, or Euler angles in degrees for rotations.
	Offset   r3.Vec
	Children []*Shape
}

// Box is an axis-aligned box with its minimum corner at the origin.
func Box(x, y, z float64) *Shape {
	return &Shape{Kind: KindBox, Size: r3.Vec{X: x, Y: y, Z: z}}
}

// Cylinder is a Z-aligned cylinder centred on the origin.
func Cylinder(height, radius float64, segments int) *Shape {
	return &Shape{Kind: KindCylinder, Size: r3.Vec{X: height, Y: radius}, Segments: segments}
}

// Union combines a with every shape in rest.
func Union(a *Shape, rest ...*Shape) *Shape {
	return &Shape{Kind: KindUnion, Children: append([]*Shape{a}, rest...)}
}

// Difference subtracts every shape in rest from a.
func Difference(a *Shape, rest ...*Shape) *Shape {
	return &Shape{Kind: KindDifference, Children: append([]*Shape{a}, rest...)}
}

// Intersection keeps the volume common to a and every shape in rest.
func Intersection(a *Shape, rest ...*Shape) *Shape {
	return &Shape{Kind: KindIntersection, Children: append([]*Shape{a}, rest...)}
}

// Translate moves s by v.
func Translate(s *Shape, v r3.Vec) *Shape {
	return &Shape{Kind: KindTranslate, Offset: v, Children: []*Shape{s}}
}

// Rotate turns s by Euler angles in degrees, applied X then Y then Z.
func Rotate(s *Shape, degrees r3.Vec) *Shape {
	return &Shape{Kind: KindRotate, Offset: degrees, Children: []*Shape{s}}
}

// String renders the tree as a parameter script expression.
func (s *Shape) String() string {
	if s == nil {
		return "()"
	}
	var b strings.Builder
	b.WriteString("(" + s.Kind.String())
	switch s.Kind {
	case KindBox:
		fmt.Fprintf(&b, " %g %g %g", s.Size.X, s.Size.Y, s.Size.Z)
	case KindCylinder:
		fmt.Fprintf(&b, " %g %g", s.Size.X, s.Size.Y)
	}
	for _, c := range s.Children {
		b.WriteString(" " + c.String())
	}
	if s.Kind == KindTranslate || s.Kind == KindRotate {
		fmt.Fprintf(&b, " %g %g %g", s.Offset.X, s.Offset.Y, s.Offset.Z)
	}
	b.WriteString(")")
	return b.String()
}

// Validate checks the whole tree without building geometry.
func (s *Shape) Validate() error {
	return s.validate("shape")
}

func (s *Shape) validate(path string) error {
	if s == nil {
		return fmt.Errorf("%s: missing: %w", path, ErrInvalidShape)
	}
	path += "/" + s.Kind.String()

	switch s.Kind {
	case KindBox:
		if !positive(s.Size.X) || !positive(s.Size.Y) || !positive(s.Size.Z) {
			return fmt.Errorf("%s: dimensions %v must be positive: %w", path, s.Size, ErrInvalidShape)
		}
		return nil
	case KindCylinder:
		if !positive(s.Size.X) || !positive(s.Size.Y) {
			return fmt.Errorf("%s: height %v and radius %v must be positive: %w", path, s.Size.X, s.Size.Y, ErrInvalidShape)
		}
		return nil
	case KindUnion, KindDifference, KindIntersection:
		if len(s.Children) < 2 {
			return fmt.Errorf("%s: needs at least 2 operands, got %d: %w", path, len(s.Children), ErrInvalidShape)
		}
	case KindTranslate, KindRotate:
		if len(s.Children) != 1 {
			return fmt.Errorf("%s: needs exactly 1 operand, got %d: %w", path, len(s.Children), ErrInvalidShape)
		}
		if !kernel.IsFinite(s.Offset) {
			return fmt.Errorf("%s: offset %v is not finite: %w", path, s.Offset, ErrInvalidShape)
		}
	default:
		return fmt.Errorf("%s: unknown kind: %w", path, ErrInvalidShape)
	}

	for i, c := range s.Children {
		if err := c.validate(fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// Solid builds the kernel solid for s. The tree is validated first so the
// kernel only ever sees well-formed operands.
func Solid(s *Shape, k kernel.Kernel) (solid kernel.Solid, err error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			solid, err = nil, fmt.Errorf("tessellate: kernel: %v", r)
		}
	}()
	return build(s, k), nil
}

func build(s *Shape, k kernel.Kernel) kernel.Solid {
	switch s.Kind {
	case KindBox:
		return k.Box(s.Size.X, s.Size.Y, s.Size.Z)
	case KindCylinder:
		return k.Cylinder(s.Size.X, s.Size.Y, s.Segments)
	case KindTranslate:
		return k.Translate(build(s.Children[0], k), s.Offset.X, s.Offset.Y, s.Offset.Z)
	case KindRotate:
		return k.Rotate(build(s.Children[0], k), s.Offset.X, s.Offset.Y, s.Offset.Z)
	}

	acc := build(s.Children[0], k)
	for _, c := range s.Children[1:] {
		next := build(c, k)
		switch s.Kind {
		case KindUnion:
			acc = k.Union(acc, next)
		case KindDifference:
			acc = k.Difference(acc, next)
		case KindIntersection:
			acc = k.Intersection(acc, next)
		}
	}
	return acc
}

// Tessellate produces the triangle mesh of s, named after the tree.
func Tessellate(s *Shape, k kernel.Kernel) (*kernel.Mesh, error) {
	solid, err := Solid(s, k)
	if err != nil {
		return nil, err
	}
	m, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", s.Kind, err)
	}
	m.PartName = s.String()
	return m, nil
}

// Sample produces a point cloud with normals on the surface of s.
func Sample(s *Shape, k kernel.Kernel) (*kernel.PointCloud, error) {
	solid, err := Solid(s, k)
	if err != nil {
		return nil, err
	}
	pc, err := k.ToPointCloud(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToPointCloud failed for %s: %w", s.Kind, err)
	}
	return pc, nil
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}
