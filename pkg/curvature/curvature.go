// Package curvature estimates local surface variation from point
// neighborhoods by principal component analysis.
//
// For a neighborhood with covariance eigenvalues λ0 ≤ λ1 ≤ λ2 the surface
// variation is λ0/(λ0+λ1+λ2): zero on a plane, rising towards 1/3 for an
// isotropic blob. The eigenvector of λ0 is the least-squares plane normal.
package curvature

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/chazu/fracture/pkg/spatial"
)

// MinNeighbors is the smallest neighborhood, query point included, that is
// estimated at all.
const MinNeighbors = 5

// DefaultThreshold is the surface variation above which a point is
// treated as lying on a boundary.
const DefaultThreshold = 0.01

// degenerateSpread is the spread, relative to the largest coordinate
// magnitude of a neighborhood, below which its points are taken as
// coincident.
const degenerateSpread = 1e-12

var (
	// ErrTooFewNeighbors is returned for neighborhoods smaller than MinNeighbors.
	ErrTooFewNeighbors = errors.New("curvature: too few neighbors")
	// ErrDegenerate is returned when all neighborhood points coincide.
	ErrDegenerate = errors.New("curvature: degenerate neighborhood")
)

// Estimate is the result of a neighborhood analysis.
type Estimate struct {
	Curvature   float64
	Normal      r3.Vec // unit; sign is arbitrary
	Eigenvalues [3]float64
	Centroid    r3.Vec
	Count       int
}

// FromNeighborhood estimates surface variation and normal for pts.
func FromNeighborhood(pts []r3.Vec) (Estimate, error) {
	if len(pts) < MinNeighbors {
		return Estimate{}, fmt.Errorf("curvature: %d points, need %d: %w", len(pts), MinNeighbors, ErrTooFewNeighbors)
	}
	return fit(pts)
}

// fit performs the eigen analysis without a size check.
func fit(pts []r3.Vec) (Estimate, error) {
	est := Estimate{Count: len(pts)}
	if len(pts) < 2 {
		return est, fmt.Errorf("curvature: single point: %w", ErrDegenerate)
	}

	data := mat.NewDense(len(pts), 3, nil)
	var magnitude float64
	for i, p := range pts {
		data.SetRow(i, []float64{p.X, p.Y, p.Z})
		est.Centroid = r3.Add(est.Centroid, p)
		magnitude = math.Max(magnitude, r3.Norm(p))
	}
	est.Centroid = r3.Scale(1/float64(len(pts)), est.Centroid)

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return est, fmt.Errorf("curvature: eigen decomposition failed: %w", ErrDegenerate)
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	l0 := math.Max(vals[0], 0)
	est.Eigenvalues = [3]float64{l0, vals[1], vals[2]}
	sum := l0 + vals[1] + vals[2]
	floor := degenerateSpread * magnitude
	if !(sum > floor*floor) {
		return est, fmt.Errorf("curvature: eigenvalue sum %g: %w", sum, ErrDegenerate)
	}
	est.Curvature = l0 / sum
	est.Normal = r3.Unit(r3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)})
	return est, nil
}

// Estimator classifies points of an indexed set by the surface variation
// of their radius neighborhoods.
type Estimator struct {
	Index     *spatial.Index
	Radius    float64
	Threshold float64
}

// At estimates the neighborhood of point i. The neighborhood includes i.
func (e Estimator) At(i int) (Estimate, error) {
	ids := e.Index.Radius(e.Index.Point(i), e.Radius)
	pts := make([]r3.Vec, len(ids))
	for j, id := range ids {
		pts[j] = e.Index.Point(id)
	}
	est, err := FromNeighborhood(pts)
	if err != nil {
		return est, fmt.Errorf("point %d: %w", i, err)
	}
	return est, nil
}

// IsBoundary reports whether est exceeds the estimator's threshold.
func (e Estimator) IsBoundary(est Estimate) bool {
	return est.Curvature > e.Threshold
}

// BoundaryPoints returns, in ascending order, every indexed point whose
// neighborhood is a boundary. Points whose neighborhood cannot be
// estimated are counted in skipped and never reported as boundary.
func (e Estimator) BoundaryPoints() (boundary []int, skipped int) {
	for i := 0; i < e.Index.Len(); i++ {
		est, err := e.At(i)
		if err != nil {
			skipped++
			continue
		}
		if e.IsBoundary(est) {
			boundary = append(boundary, i)
		}
	}
	return boundary, skipped
}
