package tessellate_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/kernel"
	"github.com/chazu/fracture/pkg/kernel/sdfx"
	"github.com/chazu/fracture/pkg/tessellate"
)

// ---------------------------------------------------------------------------
// Recording kernel
// ---------------------------------------------------------------------------

// expr is a solid that remembers how it was built.
type expr string

func (e expr) BoundingBox() (min, max [3]float64) { return }

// recorder builds expr solids instead of geometry.
type recorder struct{}

func (recorder) Box(x, y, z float64) kernel.Solid {
	return expr(fmt.Sprintf("box(%g,%g,%g)", x, y, z))
}
func (recorder) Cylinder(h, r float64, n int) kernel.Solid {
	return expr(fmt.Sprintf("cyl(%g,%g)", h, r))
}
func (recorder) Union(a, b kernel.Solid) kernel.Solid {
	return expr(fmt.Sprintf("U(%s,%s)", a, b))
}
func (recorder) Difference(a, b kernel.Solid) kernel.Solid {
	return expr(fmt.Sprintf("D(%s,%s)", a, b))
}
func (recorder) Intersection(a, b kernel.Solid) kernel.Solid {
	return expr(fmt.Sprintf("I(%s,%s)", a, b))
}
func (recorder) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return expr(fmt.Sprintf("T(%s,%g,%g,%g)", s, x, y, z))
}
func (recorder) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return expr(fmt.Sprintf("R(%s,%g,%g,%g)", s, x, y, z))
}
func (recorder) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	return nil, kernel.ErrEmptyInput
}
func (recorder) ToPointCloud(s kernel.Solid) (*kernel.PointCloud, error) {
	return nil, kernel.ErrEmptyInput
}

// panicky fails every box the way sdfx does for bad input.
type panicky struct{ recorder }

func (panicky) Box(x, y, z float64) kernel.Solid { panic("box3d: bad size") }

// ---------------------------------------------------------------------------
// Tree construction
// ---------------------------------------------------------------------------

func TestSolidBuildOrder(t *testing.T) {
	tests := []struct {
		name  string
		shape *tessellate.Shape
		want  string
	}{
		{"box", tessellate.Box(1, 2, 3), "box(1,2,3)"},
		{"union folds left", tessellate.Union(tessellate.Box(1, 1, 1), tessellate.Box(2, 2, 2), tessellate.Box(3, 3, 3)),
			"U(U(box(1,1,1),box(2,2,2)),box(3,3,3))"},
		{"difference", tessellate.Difference(tessellate.Box(4, 4, 4), tessellate.Cylinder(10, 1, 16)),
			"D(box(4,4,4),cyl(10,1))"},
		{"intersection", tessellate.Intersection(tessellate.Box(1, 1, 1), tessellate.Box(2, 2, 2)),
			"I(box(1,1,1),box(2,2,2))"},
		{"nested transforms",
			tessellate.Translate(tessellate.Rotate(tessellate.Box(1, 1, 1), r3.Vec{Z: 90}), r3.Vec{X: 5}),
			"T(R(box(1,1,1),0,0,90),5,0,0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tessellate.Solid(tt.shape, recorder{})
			if err != nil {
				t.Fatalf("Solid() error = %v", err)
			}
			if string(got.(expr)) != tt.want {
				t.Errorf("Solid() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestShapeString(t *testing.T) {
	s := tessellate.Difference(
		tessellate.Box(10, 10, 10),
		tessellate.Translate(tessellate.Cylinder(20, 2, 0), r3.Vec{X: 5, Y: 5, Z: 5}),
	)
	want := "(difference (box 10 10 10) (translate (cylinder 20 2) 5 5 5))"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	var nilShape *tessellate.Shape
	if got := nilShape.String(); got != "()" {
		t.Errorf("nil String() = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		shape   *tessellate.Shape
		wantErr bool
		path    string
	}{
		{"valid", tessellate.Union(tessellate.Box(1, 1, 1), tessellate.Cylinder(1, 1, 8)), false, ""},
		{"nil", nil, true, "shape"},
		{"zero box", tessellate.Box(0, 1, 1), true, "shape/box"},
		{"infinite box", tessellate.Box(math.Inf(1), 1, 1), true, "shape/box"},
		{"negative radius", tessellate.Cylinder(1, -1, 8), true, "shape/cylinder"},
		{"single operand", tessellate.Union(tessellate.Box(1, 1, 1)), true, "shape/union"},
		{"nil operand", tessellate.Difference(tessellate.Box(1, 1, 1), nil), true, "shape/difference[1]"},
		{"bad nested", tessellate.Translate(tessellate.Box(1, -1, 1), r3.Vec{}), true, "shape/translate[0]/box"},
		{"nan offset", tessellate.Rotate(tessellate.Box(1, 1, 1), r3.Vec{X: math.NaN()}), true, "shape/rotate"},
		{"unknown kind", &tessellate.Shape{Kind: tessellate.Kind(42)}, true, "Kind(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, tessellate.ErrInvalidShape) {
				t.Errorf("error %v is not ErrInvalidShape", err)
			}
			if !strings.Contains(err.Error(), tt.path) {
				t.Errorf("error %q does not name %q", err, tt.path)
			}
		})
	}
}

func TestSolidRecoversKernelPanic(t *testing.T) {
	_, err := tessellate.Solid(tessellate.Box(1, 1, 1), panicky{})
	if err == nil || !strings.Contains(err.Error(), "bad size") {
		t.Errorf("Solid() error = %v, want kernel panic message", err)
	}
}

func TestTessellateKernelError(t *testing.T) {
	if _, err := tessellate.Tessellate(tessellate.Box(1, 1, 1), recorder{}); !errors.Is(err, kernel.ErrEmptyInput) {
		t.Errorf("Tessellate() error = %v, want ErrEmptyInput", err)
	}
	if _, err := tessellate.Sample(tessellate.Box(1, 1, 1), recorder{}); !errors.Is(err, kernel.ErrEmptyInput) {
		t.Errorf("Sample() error = %v, want ErrEmptyInput", err)
	}
}

// ---------------------------------------------------------------------------
// sdfx geometry
// ---------------------------------------------------------------------------

func TestTessellateBoxWithHole(t *testing.T) {
	k := sdfx.NewWithCells(40)
	shape := tessellate.Difference(
		tessellate.Box(40, 40, 10),
		tessellate.Translate(tessellate.Cylinder(30, 8, 0), r3.Vec{X: 20, Y: 20, Z: 5}),
	)

	m, err := tessellate.Tessellate(shape, k)
	if err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("mesh invalid: %v", err)
	}
	if m.PartName != shape.String() {
		t.Errorf("PartName = %q, want %q", m.PartName, shape.String())
	}

	plain, err := tessellate.Tessellate(tessellate.Box(40, 40, 10), k)
	if err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	// A through bore adds its wall and removes two discs.
	want := plain.SurfaceArea() + 2*math.Pi*8*10 - 2*math.Pi*8*8
	if got := m.SurfaceArea(); math.Abs(got-want) > 0.1*want {
		t.Errorf("area = %v, want about %v", got, want)
	}
}

func TestSolidTranslateBoundingBox(t *testing.T) {
	solid, err := tessellate.Solid(tessellate.Translate(tessellate.Box(10, 20, 30), r3.Vec{X: 5, Y: -5}), sdfx.New())
	if err != nil {
		t.Fatalf("Solid() error = %v", err)
	}
	min, max := solid.BoundingBox()
	wantMin := [3]float64{5, -5, 0}
	wantMax := [3]float64{15, 15, 30}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > 1e-6 || math.Abs(max[i]-wantMax[i]) > 1e-6 {
			t.Fatalf("bounding box = %v..%v, want %v..%v", min, max, wantMin, wantMax)
		}
	}
}

func TestSample(t *testing.T) {
	pc, err := tessellate.Sample(tessellate.Box(10, 10, 10), sdfx.NewWithCells(24))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if pc.IsEmpty() || !pc.HasNormals() {
		t.Fatalf("got %d points, normals %v", pc.Len(), pc.HasNormals())
	}
}
