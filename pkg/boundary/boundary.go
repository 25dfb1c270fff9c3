// Package boundary extracts ordered boundary curves from point clusters.
//
// Within each cluster, points whose neighborhood surface variation exceeds
// a threshold are taken as boundary points. Those are then linked into
// polylines by greedy nearest-neighbor walks.
package boundary

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/config"
	"github.com/chazu/fracture/pkg/curvature"
	"github.com/chazu/fracture/pkg/kernel"
	"github.com/chazu/fracture/pkg/segment"
	"github.com/chazu/fracture/pkg/spatial"
)

// ErrTooFewBoundaryPoints is recorded for clusters with fewer than two
// boundary points.
var ErrTooFewBoundaryPoints = errors.New("boundary: too few boundary points")

// errTooSmall is recorded for clusters below the minimum point count.
var errTooSmall = errors.New("boundary: cluster too small")

// Polyline is the boundary of one cluster.
type Polyline struct {
	Cluster int `json:"cluster"`
	// Indices are the boundary points as indices into the input cloud.
	Indices []int `json:"indices"`
	// Points and Normals are the boundary point positions and estimated
	// normals, parallel to Indices.
	Points  []r3.Vec `json:"points"`
	Normals []r3.Vec `json:"normals"`
	// Chains are ordered walks over Points; every point is in exactly one.
	Chains [][]int `json:"chains"`
	// Lines are the consecutive pairs of every chain.
	Lines [][2]int `json:"lines"`
}

// Skip records a cluster that produced no polyline.
type Skip struct {
	Cluster int    `json:"cluster"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

// Result is the output of Extractor.Extract.
type Result struct {
	Polylines []Polyline `json:"polylines"`
	Skipped   []Skip     `json:"skipped"`
}

// Extractor finds and chains boundary points.
type Extractor struct {
	cfg     config.Boundary
	normals config.Normals
	logger  *zap.Logger
}

// NewExtractor returns an extractor using cfg and normals. A nil logger
// discards output.
func NewExtractor(cfg config.Boundary, normals config.Normals, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, normals: normals, logger: logger.Named("boundary")}
}

// Extract processes every cluster of pc in order. A cluster that cannot
// be processed is recorded in Result.Skipped and the rest continue; only
// invalid configuration or input aborts.
func (e *Extractor) Extract(pc *kernel.PointCloud, clusters []segment.Cluster) (*Result, error) {
	if err := e.cfg.Validate(e.normals); err != nil {
		return nil, fmt.Errorf("boundary: %w", err)
	}
	if err := pc.Validate(); err != nil {
		return nil, fmt.Errorf("boundary: %w", err)
	}

	res := &Result{}
	for ci, c := range clusters {
		pl, err := e.cluster(pc, ci, c.Points)
		if err != nil {
			level := e.logger.Debug
			if !errors.Is(err, errTooSmall) && !errors.Is(err, ErrTooFewBoundaryPoints) {
				level = e.logger.Warn
			}
			level("skipped cluster", zap.Int("cluster", ci), zap.Int("points", len(c.Points)), zap.Error(err))
			res.Skipped = append(res.Skipped, Skip{Cluster: ci, Reason: err.Error(), Err: err})
			continue
		}
		res.Polylines = append(res.Polylines, *pl)
	}

	e.logger.Info("extracted boundaries",
		zap.Int("clusters", len(clusters)),
		zap.Int("polylines", len(res.Polylines)),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// cluster extracts the polyline of one cluster. A panic is returned as an
// error.
func (e *Extractor) cluster(pc *kernel.PointCloud, ci int, members []int) (pl *Polyline, err error) {
	defer func() {
		if r := recover(); r != nil {
			pl, err = nil, fmt.Errorf("boundary: cluster %d: panic: %v", ci, r)
		}
	}()

	if len(members) < e.cfg.MinClusterPoints {
		return nil, fmt.Errorf("cluster %d: %d points, need %d: %w", ci, len(members), e.cfg.MinClusterPoints, errTooSmall)
	}
	for _, m := range members {
		if m < 0 || m >= pc.Len() {
			return nil, fmt.Errorf("boundary: cluster %d: point %d out of range: %w", ci, m, kernel.ErrMalformed)
		}
	}

	sub := pc.Select(members)
	index := spatial.Build(sub.Positions())
	normals := curvature.EstimateNormals(index, e.normals.Radius, e.normals.MaxNeighbors, sub.UnitNormals())

	est := curvature.Estimator{Index: index, Radius: e.cfg.NeighborRadius, Threshold: e.cfg.CurvatureThreshold}
	local, skipped := est.BoundaryPoints()
	if len(local) < 2 {
		return nil, fmt.Errorf("cluster %d: %d boundary points (%d neighborhoods too sparse): %w",
			ci, len(local), skipped, ErrTooFewBoundaryPoints)
	}

	pl = &Polyline{
		Cluster: ci,
		Indices: make([]int, len(local)),
		Points:  make([]r3.Vec, len(local)),
		Normals: make([]r3.Vec, len(local)),
	}
	for j, l := range local {
		pl.Indices[j] = members[l]
		pl.Points[j] = index.Point(l)
		pl.Normals[j] = normals[l]
	}
	pl.Chains = Chain(pl.Points, e.cfg.ChainNeighbors)
	pl.Lines = Lines(pl.Chains)

	e.logger.Debug("chained boundary",
		zap.Int("cluster", ci),
		zap.Int("boundaryPoints", len(local)),
		zap.Int("chains", len(pl.Chains)),
	)
	return pl, nil
}
