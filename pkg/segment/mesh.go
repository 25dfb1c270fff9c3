package segment

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/config"
	"github.com/chazu/fracture/pkg/graph"
	"github.com/chazu/fracture/pkg/kernel"
)

// MeshGrower segments triangle meshes into near-planar face regions.
type MeshGrower struct {
	cfg    config.Segmentation
	logger *zap.Logger
}

// NewMeshGrower returns a grower using cfg. A nil logger discards output.
func NewMeshGrower(cfg config.Segmentation, logger *zap.Logger) *MeshGrower {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeshGrower{cfg: cfg, logger: logger.Named("segment")}
}

// Segment partitions the faces of m. The mesh is not modified.
//
// Every face ends up in exactly one region and region areas sum to the
// mesh surface area. Regions are ordered by descending area, significant
// regions before orphans.
func (g *MeshGrower) Segment(m *kernel.Mesh) (*MeshSegmentation, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	normals := m.FaceNormals()
	areas := m.FaceAreas()
	adj := graph.NewAdjacency(m.Indices)
	g.logger.Debug("built face adjacency",
		zap.Int("faces", adj.Len()),
		zap.Int("edges", adj.Edges),
		zap.Int("boundaryEdges", adj.BoundaryEdges),
		zap.Int("nonManifoldEdges", adj.NonManifoldEdges),
		zap.Int("degenerateEdges", adj.DegenerateEdges),
	)

	fg := &faceGrower{
		normals: normals,
		areas:   areas,
		floor:   g.cfg.NormalFloor(),
		labels:  make([]int, len(normals)),
	}
	graph.FloodFill(adj, fg)
	g.logger.Debug("grew regions", zap.Int("regions", len(fg.regions)))

	seg := &MeshSegmentation{
		Grown:     len(fg.regions),
		TotalArea: lo.Sum(areas),
	}
	final, err := g.merge(seg, fg.regions, fg.labels, adj)
	if err != nil {
		return nil, err
	}

	seg.Regions = make([]Region, len(final))
	seg.Labels = make([]int, len(normals))
	for k, r := range final {
		sort.Ints(r.Faces)
		for _, f := range r.Faces {
			seg.Labels[f] = k
		}
		seg.Regions[k] = *r
	}

	g.logger.Info("segmented mesh",
		zap.Int("faces", len(normals)),
		zap.Int("grown", seg.Grown),
		zap.Int("regions", len(seg.Regions)),
		zap.Int("merged", seg.Merged),
		zap.Int("orphans", seg.Orphans),
	)
	return seg, nil
}

// merge folds regions smaller than the area limit into the adjacent
// significant region with the most similar normal. Small regions are
// taken largest first; a region that has been merged is seen by later
// ones as part of its target.
func (g *MeshGrower) merge(seg *MeshSegmentation, regions []*Region, labels []int, adj *graph.Adjacency) ([]*Region, error) {
	limit := g.cfg.AreaLimitFraction * seg.TotalArea
	significant := lo.Map(regions, func(r *Region, _ int) bool { return r.Area >= limit })

	owner := make([]int, len(regions))
	for i := range owner {
		owner[i] = i
	}
	find := func(i int) int {
		for owner[i] != i {
			i = owner[i]
		}
		return i
	}

	order := make([]int, len(regions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return regions[order[a]].Area > regions[order[b]].Area
	})

	for _, s := range order {
		if significant[s] {
			continue
		}
		small := regions[s]

		var neighbours []int
		for _, f := range small.Faces {
			for _, nb := range adj.Neighbors(f) {
				if t := find(labels[nb]); t != s && significant[t] {
					neighbours = append(neighbours, t)
				}
			}
		}
		neighbours = lo.Uniq(neighbours)
		sort.Ints(neighbours)
		target := mostSimilar(small.Normal, regions, neighbours)

		if target < 0 {
			switch g.cfg.Orphans {
			case config.OrphanFail:
				return nil, fmt.Errorf("segment: region of %d faces with area %g: %w",
					len(small.Faces), small.Area, ErrOrphanRegion)
			case config.OrphanMerge:
				all := lo.Filter(order, func(t int, _ int) bool { return significant[t] })
				sort.Ints(all)
				target = mostSimilar(small.Normal, regions, all)
			}
		}
		if target < 0 {
			small.Orphan = true
			seg.Orphans++
			g.logger.Warn("small region has no significant neighbour",
				zap.Int("faces", len(small.Faces)),
				zap.Float64("area", small.Area),
				zap.String("policy", string(g.cfg.Orphans)),
			)
			continue
		}
		regions[target].absorb(small)
		owner[s] = target
		seg.Merged++
	}

	var live []int
	for i := range regions {
		if owner[i] == i {
			live = append(live, i)
		}
	}
	sort.SliceStable(live, func(a, b int) bool {
		ra, rb := regions[live[a]], regions[live[b]]
		if ra.Orphan != rb.Orphan {
			return !ra.Orphan
		}
		return ra.Area > rb.Area
	})
	return lo.Map(live, func(i int, _ int) *Region { return regions[i] }), nil
}

// mostSimilar returns the candidate whose normal has the largest dot
// product with n, the first in candidate order on ties, or -1 when there
// are no candidates.
func mostSimilar(n r3.Vec, regions []*Region, candidates []int) int {
	best, target := math.Inf(-1), -1
	for _, t := range candidates {
		if d := r3.Dot(n, regions[t].Normal); d > best {
			best, target = d, t
		}
	}
	return target
}

// faceGrower grows one region at a time, comparing candidate faces with
// the region's running normal.
type faceGrower struct {
	normals []r3.Vec
	areas   []float64
	floor   float64

	labels  []int
	regions []*Region
	cur     *Region
}

var _ graph.Grower = (*faceGrower)(nil)

func (g *faceGrower) Begin(int) { g.cur = &Region{} }

func (g *faceGrower) Visit(f int) {
	g.cur.add(f, g.normals[f], g.areas[f])
	g.labels[f] = len(g.regions)
}

func (g *faceGrower) Admit(_, to int) bool {
	return r3.Dot(g.normals[to], g.cur.Normal) >= g.floor
}

func (g *faceGrower) End() { g.regions = append(g.regions, g.cur) }
