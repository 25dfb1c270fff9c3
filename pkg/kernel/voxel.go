package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type voxelKey [3]int64

type voxelCell struct {
	count  int
	point  r3.Vec
	normal r3.Vec
	color  r3.Vec
}

// VoxelDownsample returns a new cloud with one point per occupied voxel of
// edge length size. Points, normals and colors falling in a voxel are
// averaged; normals are re-normalized. Output order follows the first point
// seen in each voxel, so the result is deterministic.
func (pc *PointCloud) VoxelDownsample(size float64) (*PointCloud, error) {
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	if !(size > 0) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("voxel downsample: size %v must be positive and finite: %w", size, ErrMalformed)
	}

	minB := pc.Point(0)
	for i := 1; i < pc.Len(); i++ {
		p := pc.Point(i)
		minB = r3.Vec{X: math.Min(minB.X, p.X), Y: math.Min(minB.Y, p.Y), Z: math.Min(minB.Z, p.Z)}
	}
	origin := r3.Sub(minB, r3.Vec{X: size / 2, Y: size / 2, Z: size / 2})

	hasN, hasC := pc.HasNormals(), pc.HasColors()
	cells := make(map[voxelKey]*voxelCell)
	var order []voxelKey
	for i := 0; i < pc.Len(); i++ {
		p := pc.Point(i)
		d := r3.Scale(1/size, r3.Sub(p, origin))
		key := voxelKey{int64(math.Floor(d.X)), int64(math.Floor(d.Y)), int64(math.Floor(d.Z))}
		c, ok := cells[key]
		if !ok {
			c = &voxelCell{}
			cells[key] = c
			order = append(order, key)
		}
		c.count++
		c.point = r3.Add(c.point, p)
		if hasN {
			c.normal = r3.Add(c.normal, vecAt(pc.Normals, i))
		}
		if hasC {
			c.color = r3.Add(c.color, vecAt(pc.Colors, i))
		}
	}

	out := &PointCloud{Points: make([]float32, 0, len(order)*3)}
	for _, key := range order {
		c := cells[key]
		inv := 1 / float64(c.count)
		out.Points = appendVec(out.Points, r3.Scale(inv, c.point))
		if hasN {
			out.Normals = appendVec(out.Normals, UnitOrFallback(c.normal))
		}
		if hasC {
			out.Colors = appendVec(out.Colors, r3.Scale(inv, c.color))
		}
	}
	return out, nil
}
