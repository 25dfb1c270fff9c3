package curvature

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/kernel"
	"github.com/chazu/fracture/pkg/spatial"
)

// minNormalNeighbors is the smallest neighborhood a plane is fitted to.
const minNormalNeighbors = 3

// EstimateNormals fits a plane to the hybrid neighborhood (at most maxNN
// points within radius) of every indexed point and returns its unit normal.
//
// When orient holds one vector per point each normal is flipped to agree
// with it; otherwise normals are flipped to point away from the centroid
// of the whole set, falling back to a positive largest component where
// the centroid gives no direction. Points with fewer than three
// neighbors, or whose neighbors coincide, get kernel.FallbackNormal.
func EstimateNormals(index *spatial.Index, radius float64, maxNN int, orient []r3.Vec) []r3.Vec {
	n := index.Len()
	normals := make([]r3.Vec, n)
	if n == 0 {
		return normals
	}
	useOrient := len(orient) == n

	var centroid r3.Vec
	if !useOrient {
		for i := 0; i < n; i++ {
			centroid = r3.Add(centroid, index.Point(i))
		}
		centroid = r3.Scale(1/float64(n), centroid)
	}

	pts := make([]r3.Vec, 0, maxNN)
	for i := 0; i < n; i++ {
		p := index.Point(i)
		ids := index.Hybrid(p, radius, maxNN)
		if len(ids) < minNormalNeighbors {
			normals[i] = kernel.FallbackNormal
			continue
		}
		pts = pts[:0]
		for _, id := range ids {
			pts = append(pts, index.Point(id))
		}
		est, err := fit(pts)
		if err != nil {
			normals[i] = kernel.FallbackNormal
			continue
		}

		ref := r3.Sub(p, centroid)
		if useOrient {
			ref = orient[i]
		}
		normals[i] = orientTo(est.Normal, ref)
	}
	return normals
}

// orientTo flips n to agree with ref. When ref gives no direction (it is
// zero or perpendicular to n) the largest component of n is made positive,
// so that coplanar neighbourhoods agree with each other.
func orientTo(n, ref r3.Vec) r3.Vec {
	d := r3.Dot(n, ref)
	if math.Abs(d) <= 1e-9*r3.Norm(ref) {
		c := n.X
		if math.Abs(n.Y) > math.Abs(c) {
			c = n.Y
		}
		if math.Abs(n.Z) > math.Abs(c) {
			c = n.Z
		}
		d = c
	}
	if d < 0 {
		return r3.Scale(-1, n)
	}
	return n
}
