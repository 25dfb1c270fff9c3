package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex (optional), indices has 3 uint32s per triangle.
// Faces that share an edge must reference the same vertex indices for the
// adjacency graph to see them as neighbours.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which input this came from
}

// NewMesh builds a mesh from vertex positions and triangle index triples.
func NewMesh(vertices [][3]float64, faces [][3]int) *Mesh {
	m := &Mesh{
		Vertices: make([]float32, 0, len(vertices)*3),
		Indices:  make([]uint32, 0, len(faces)*3),
	}
	for _, v := range vertices {
		m.Vertices = append(m.Vertices, float32(v[0]), float32(v[1]), float32(v[2]))
	}
	for _, f := range faces {
		m.Indices = append(m.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	return m
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) r3.Vec {
	return vecAt(m.Vertices, i)
}

// Face returns the three vertex indices of triangle f.
func (m *Mesh) Face(f int) [3]uint32 {
	return [3]uint32{m.Indices[f*3], m.Indices[f*3+1], m.Indices[f*3+2]}
}

// Triangle returns the corner positions of triangle f.
func (m *Mesh) Triangle(f int) r3.Triangle {
	idx := m.Face(f)
	return r3.Triangle{m.Vertex(int(idx[0])), m.Vertex(int(idx[1])), m.Vertex(int(idx[2]))}
}

// FaceNormal returns the unit normal of triangle f following the winding
// order. Degenerate triangles get FallbackNormal.
func (m *Mesh) FaceNormal(f int) r3.Vec {
	return UnitOrFallback(m.Triangle(f).Normal())
}

// FaceArea returns the area of triangle f.
func (m *Mesh) FaceArea(f int) float64 {
	return 0.5 * r3.Norm(m.Triangle(f).Normal())
}

// FaceNormals returns the unit normal of every triangle.
func (m *Mesh) FaceNormals() []r3.Vec {
	normals := make([]r3.Vec, m.TriangleCount())
	for f := range normals {
		normals[f] = m.FaceNormal(f)
	}
	return normals
}

// FaceAreas returns the area of every triangle.
func (m *Mesh) FaceAreas() []float64 {
	areas := make([]float64, m.TriangleCount())
	for f := range areas {
		areas[f] = m.FaceArea(f)
	}
	return areas
}

// SurfaceArea returns the total area of all triangles.
func (m *Mesh) SurfaceArea() float64 {
	var total float64
	for f := 0; f < m.TriangleCount(); f++ {
		total += m.FaceArea(f)
	}
	return total
}

// ComputeVertexNormals fills Normals with area-weighted averages of the
// incident face normals.
func (m *Mesh) ComputeVertexNormals() {
	sums := make([]r3.Vec, m.VertexCount())
	for f := 0; f < m.TriangleCount(); f++ {
		n := m.Triangle(f).Normal() // length is twice the area
		for _, vi := range m.Face(f) {
			sums[vi] = r3.Add(sums[vi], n)
		}
	}
	m.Normals = make([]float32, 0, len(sums)*3)
	for _, s := range sums {
		m.Normals = appendVec(m.Normals, UnitOrFallback(s))
	}
}

// Validate checks that the mesh is non-empty and internally consistent.
// It returns an error wrapping ErrEmptyInput or ErrMalformed.
func (m *Mesh) Validate() error {
	if m == nil || m.IsEmpty() {
		return fmt.Errorf("mesh: %w", ErrEmptyInput)
	}
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("mesh: vertex array length %d is not a multiple of 3: %w", len(m.Vertices), ErrMalformed)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh: index array length %d is not a multiple of 3: %w", len(m.Indices), ErrMalformed)
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("mesh: normals length %d != vertices length %d: %w", len(m.Normals), len(m.Vertices), ErrMalformed)
	}
	nv := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= nv {
			return fmt.Errorf("mesh: triangle %d references vertex %d of %d: %w", i/3, idx, nv, ErrMalformed)
		}
	}
	for i := 0; i < m.VertexCount(); i++ {
		if !IsFinite(m.Vertex(i)) {
			return fmt.Errorf("mesh: vertex %d has non-finite coordinates: %w", i, ErrMalformed)
		}
	}
	return nil
}
