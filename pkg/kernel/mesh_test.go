package kernel

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// unitCube returns a closed unit cube with outward winding, two triangles
// per face and shared corner vertices.
func unitCube() *Mesh {
	return NewMesh(
		[][3]float64{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		[][3]int{
			{0, 2, 1}, {0, 3, 2}, // bottom
			{4, 5, 6}, {4, 6, 7}, // top
			{0, 1, 5}, {0, 5, 4}, // front
			{3, 7, 6}, {3, 6, 2}, // back
			{0, 4, 7}, {0, 7, 3}, // left
			{1, 2, 6}, {1, 6, 5}, // right
		},
	)
}

func vecNear(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestNewMesh(t *testing.T) {
	m := unitCube()
	if got := m.VertexCount(); got != 8 {
		t.Errorf("VertexCount() = %d, want 8", got)
	}
	if got := m.TriangleCount(); got != 12 {
		t.Errorf("TriangleCount() = %d, want 12", got)
	}
	if got := m.Face(3); got != [3]uint32{4, 6, 7} {
		t.Errorf("Face(3) = %v, want [4 6 7]", got)
	}
	if got := m.Vertex(6); got != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Vertex(6) = %v, want {1 1 1}", got)
	}
}

func TestMeshFaceNormals(t *testing.T) {
	m := unitCube()
	want := []r3.Vec{
		{Z: -1}, {Z: -1},
		{Z: 1}, {Z: 1},
		{Y: -1}, {Y: -1},
		{Y: 1}, {Y: 1},
		{X: -1}, {X: -1},
		{X: 1}, {X: 1},
	}
	for f, n := range m.FaceNormals() {
		if !vecNear(n, want[f], 1e-9) {
			t.Errorf("FaceNormal(%d) = %v, want %v", f, n, want[f])
		}
	}
}

func TestMeshFaceNormalDegenerate(t *testing.T) {
	m := NewMesh([][3]float64{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}}, [][3]int{{0, 1, 2}})
	if got := m.FaceNormal(0); got != FallbackNormal {
		t.Errorf("FaceNormal() on collinear triangle = %v, want %v", got, FallbackNormal)
	}
	if got := m.FaceArea(0); got != 0 {
		t.Errorf("FaceArea() on collinear triangle = %v, want 0", got)
	}
}

func TestMeshAreas(t *testing.T) {
	m := unitCube()
	for f, a := range m.FaceAreas() {
		if math.Abs(a-0.5) > 1e-9 {
			t.Errorf("FaceArea(%d) = %v, want 0.5", f, a)
		}
	}
	if got := m.SurfaceArea(); math.Abs(got-6) > 1e-9 {
		t.Errorf("SurfaceArea() = %v, want 6", got)
	}
}

func TestMeshComputeVertexNormals(t *testing.T) {
	m := unitCube()
	m.ComputeVertexNormals()
	if len(m.Normals) != len(m.Vertices) {
		t.Fatalf("len(Normals) = %d, want %d", len(m.Normals), len(m.Vertices))
	}
	// Corner 6 sits at (1,1,1); its normal points out along the diagonal.
	n := vecAt(m.Normals, 6)
	if r3.Dot(n, r3.Vec{X: 1, Y: 1, Z: 1}) <= 0 {
		t.Errorf("vertex normal at (1,1,1) = %v, want outward", n)
	}
	if math.Abs(r3.Norm(n)-1) > 1e-6 {
		t.Errorf("vertex normal length = %v, want 1", r3.Norm(n))
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() after ComputeVertexNormals() = %v", err)
	}
}

func TestMeshValidate(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name string
		mesh *Mesh
		want error
	}{
		{"nil", nil, ErrEmptyInput},
		{"empty", &Mesh{}, ErrEmptyInput},
		{"no triangles", &Mesh{Vertices: []float32{0, 0, 0}}, ErrEmptyInput},
		{"ragged vertices", &Mesh{Vertices: []float32{0, 0, 0, 1}, Indices: []uint32{0, 0, 0}}, ErrMalformed},
		{"ragged indices", &Mesh{Vertices: []float32{0, 0, 0}, Indices: []uint32{0, 0}}, ErrMalformed},
		{"index out of range", &Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0}, Indices: []uint32{0, 1, 2}}, ErrMalformed},
		{"normals mismatch", &Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Normals: []float32{0, 0, 1}, Indices: []uint32{0, 1, 2}}, ErrMalformed},
		{"non-finite vertex", &Mesh{Vertices: []float32{0, 0, 0, 1, nan, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}}, ErrMalformed},
		{"cube", unitCube(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnitOrFallback(t *testing.T) {
	tests := []struct {
		name string
		in   r3.Vec
		want r3.Vec
	}{
		{"zero", r3.Vec{}, FallbackNormal},
		{"tiny", r3.Vec{X: 1e-12}, FallbackNormal},
		{"nan", r3.Vec{X: math.NaN()}, FallbackNormal},
		{"inf", r3.Vec{Y: math.Inf(1)}, FallbackNormal},
		{"axis", r3.Vec{Y: 3}, r3.Vec{Y: 1}},
		{"diagonal", r3.Vec{X: 3, Y: 4}, r3.Vec{X: 0.6, Y: 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnitOrFallback(tt.in); !vecNear(got, tt.want, 1e-12) {
				t.Errorf("UnitOrFallback(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
