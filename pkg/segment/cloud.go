package segment

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/config"
	"github.com/chazu/fracture/pkg/curvature"
	"github.com/chazu/fracture/pkg/graph"
	"github.com/chazu/fracture/pkg/kernel"
	"github.com/chazu/fracture/pkg/spatial"
)

// CloudGrower clusters point clouds by normal similarity.
type CloudGrower struct {
	cfg     config.Clustering
	normals config.Normals
	logger  *zap.Logger
}

// NewCloudGrower returns a grower using cfg. Clouds without normals get
// them estimated with the normals settings. A nil logger discards output.
func NewCloudGrower(cfg config.Clustering, normals config.Normals, logger *zap.Logger) *CloudGrower {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudGrower{cfg: cfg, normals: normals, logger: logger.Named("segment")}
}

// Segment clusters pc. The input cloud is not modified.
//
// Each cluster grows breadth-first from its seed over neighbours within
// the clustering radius, admitting a neighbour when the dot product of its
// normal with the seed normal exceeds the threshold. Clusters smaller than
// the minimum size are dropped; their points stay unlabeled and are not
// reused as seeds.
func (g *CloudGrower) Segment(pc *kernel.PointCloud) (*CloudSegmentation, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	if err := pc.Validate(); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	work := &kernel.PointCloud{Points: pc.Points, Normals: pc.Normals, Colors: pc.Colors}
	if g.cfg.VoxelSize > 0 {
		down, err := pc.VoxelDownsample(g.cfg.VoxelSize)
		if err != nil {
			return nil, fmt.Errorf("segment: %w", err)
		}
		g.logger.Debug("downsampled cloud",
			zap.Int("points", pc.Len()),
			zap.Int("kept", down.Len()),
			zap.Float64("voxelSize", g.cfg.VoxelSize),
		)
		work = down
	}

	index := spatial.Build(work.Positions())
	if !work.HasNormals() {
		if err := g.normals.Validate(); err != nil {
			return nil, fmt.Errorf("segment: %w", err)
		}
		work.SetNormals(curvature.EstimateNormals(index, g.normals.Radius, g.normals.MaxNeighbors, nil))
		g.logger.Debug("estimated normals", zap.Int("points", work.Len()))
	}

	pg := &pointGrower{
		normals:   work.UnitNormals(),
		threshold: g.cfg.NormalThreshold,
		minSize:   g.cfg.MinClusterSize,
		labels:    make([]int, work.Len()),
	}
	for i := range pg.labels {
		pg.labels[i] = Unlabeled
	}
	graph.FloodFill(graph.RadiusSource{Index: index, Radius: g.cfg.Radius}, pg)

	g.logger.Info("clustered point cloud",
		zap.Int("points", work.Len()),
		zap.Int("clusters", len(pg.clusters)),
		zap.Int("rejected", pg.rejected),
	)
	return &CloudSegmentation{
		Labels:   pg.labels,
		Clusters: pg.clusters,
		Rejected: pg.rejected,
		Cloud:    work,
	}, nil
}

// pointGrower grows one cluster at a time, comparing candidates with the
// seed normal.
type pointGrower struct {
	normals   []r3.Vec
	threshold float64
	minSize   int

	labels   []int
	clusters []Cluster
	rejected int
	cur      Cluster
	seedN    r3.Vec
}

var _ graph.Grower = (*pointGrower)(nil)

func (g *pointGrower) Begin(seed int) {
	g.cur = Cluster{Seed: seed}
	g.seedN = g.normals[seed]
}

func (g *pointGrower) Visit(i int) { g.cur.Points = append(g.cur.Points, i) }

func (g *pointGrower) Admit(_, to int) bool {
	return r3.Dot(g.normals[to], g.seedN) > g.threshold
}

func (g *pointGrower) End() {
	if len(g.cur.Points) < g.minSize {
		g.rejected += len(g.cur.Points)
		return
	}
	var sum r3.Vec
	for _, p := range g.cur.Points {
		g.labels[p] = len(g.clusters)
		sum = r3.Add(sum, g.normals[p])
	}
	g.cur.Normal = kernel.UnitOrFallback(sum)
	g.clusters = append(g.clusters, g.cur)
}
