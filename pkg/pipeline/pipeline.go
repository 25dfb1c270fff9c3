// Package pipeline runs the segmentation components end to end and shapes
// their output into JSON-ready results with display colors.
package pipeline

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/boundary"
	"github.com/chazu/fracture/pkg/config"
	"github.com/chazu/fracture/pkg/kernel"
	"github.com/chazu/fracture/pkg/segment"
)

// RegionData summarizes one mesh region.
type RegionData struct {
	Label        int        `json:"label"`
	Faces        []int      `json:"faces"`
	FaceCount    int        `json:"faceCount"`
	Area         float64    `json:"area"`
	AreaFraction float64    `json:"areaFraction"`
	Normal       [3]float64 `json:"normal"`
	Orphan       bool       `json:"orphan,omitempty"`
	Color        string     `json:"color"`
}

// MeshResult is the face segmentation of one mesh.
type MeshResult struct {
	PartName   string       `json:"partName,omitempty"`
	FaceCount  int          `json:"faceCount"`
	FaceLabels []int        `json:"faceLabels"`
	Regions    []RegionData `json:"regions"`
	Grown      int          `json:"grown"`
	Merged     int          `json:"merged"`
	Orphans    int          `json:"orphans"`
	TotalArea  float64      `json:"totalArea"`
}

// ClusterData summarizes one point cluster.
type ClusterData struct {
	Label  int        `json:"label"`
	Seed   int        `json:"seed"`
	Points []int      `json:"points"`
	Size   int        `json:"size"`
	Normal [3]float64 `json:"normal"`
	Color  string     `json:"color"`
}

// PolylineData is the boundary of one cluster, colored like the cluster.
type PolylineData struct {
	Cluster int          `json:"cluster"`
	Indices []int        `json:"indices"`
	Points  [][3]float64 `json:"points"`
	Chains  [][]int      `json:"chains"`
	Lines   [][2]int     `json:"lines"`
	Color   string       `json:"color"`
}

// SkipData records a cluster without a boundary.
type SkipData struct {
	Cluster int    `json:"cluster"`
	Reason  string `json:"reason"`
}

// CloudResult is the clustering and boundary extraction of one cloud.
type CloudResult struct {
	// PointCount is the size of the clustered cloud, after downsampling.
	PointCount int            `json:"pointCount"`
	Labels     []int          `json:"labels"`
	Clusters   []ClusterData  `json:"clusters"`
	Rejected   int            `json:"rejected"`
	Boundaries []PolylineData `json:"boundaries"`
	Skipped    []SkipData     `json:"skipped"`
}

// Processor runs mesh segmentation, cloud clustering and boundary
// extraction with one configuration.
type Processor struct {
	cfg      config.Config
	logger   *zap.Logger
	mesh     *segment.MeshGrower
	cloud    *segment.CloudGrower
	boundary *boundary.Extractor
}

// NewProcessor validates cfg and builds the components. Warnings are
// logged, errors returned as config.ValidationErrors. A nil logger
// discards output.
func NewProcessor(cfg config.Config, logger *zap.Logger) (*Processor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	for _, w := range cfg.Check() {
		logger.Warn("configuration", zap.String("field", w.Field), zap.String("message", w.Message))
	}
	return &Processor{
		cfg:      cfg,
		logger:   logger,
		mesh:     segment.NewMeshGrower(cfg.Segmentation, logger),
		cloud:    segment.NewCloudGrower(cfg.Clustering, cfg.Normals, logger),
		boundary: boundary.NewExtractor(cfg.Boundary, cfg.Normals, logger),
	}, nil
}

// Config returns the configuration the processor was built with.
func (p *Processor) Config() config.Config { return p.cfg }

// SegmentMesh partitions the faces of m into planar regions.
func (p *Processor) SegmentMesh(m *kernel.Mesh) (*MeshResult, error) {
	seg, err := p.mesh.Segment(m)
	if err != nil {
		return nil, err
	}

	res := &MeshResult{
		PartName:   m.PartName,
		FaceCount:  m.TriangleCount(),
		FaceLabels: seg.Labels,
		Grown:      seg.Grown,
		Merged:     seg.Merged,
		Orphans:    seg.Orphans,
		TotalArea:  seg.TotalArea,
	}
	res.Regions = lo.Map(seg.Regions, func(r segment.Region, i int) RegionData {
		frac := 0.0
		if seg.TotalArea > 0 {
			frac = r.Area / seg.TotalArea
		}
		return RegionData{
			Label:        i,
			Faces:        r.Faces,
			FaceCount:    len(r.Faces),
			Area:         r.Area,
			AreaFraction: frac,
			Normal:       array(r.Normal),
			Orphan:       r.Orphan,
			Color:        Color(i),
		}
	})
	return res, nil
}

// ClusterCloud groups the points of pc into planar clusters and extracts
// the boundary of each. Indices in the result refer to the clustered cloud,
// which is pc itself unless voxel downsampling is enabled.
func (p *Processor) ClusterCloud(pc *kernel.PointCloud) (*CloudResult, error) {
	seg, err := p.cloud.Segment(pc)
	if err != nil {
		return nil, err
	}
	bnd, err := p.boundary.Extract(seg.Cloud, seg.Clusters)
	if err != nil {
		return nil, err
	}

	res := &CloudResult{
		PointCount: seg.Cloud.Len(),
		Labels:     seg.Labels,
		Rejected:   seg.Rejected,
	}
	res.Clusters = lo.Map(seg.Clusters, func(c segment.Cluster, i int) ClusterData {
		return ClusterData{
			Label:  i,
			Seed:   c.Seed,
			Points: c.Points,
			Size:   len(c.Points),
			Normal: array(c.Normal),
			Color:  Color(i),
		}
	})
	res.Boundaries = lo.Map(bnd.Polylines, func(pl boundary.Polyline, _ int) PolylineData {
		return PolylineData{
			Cluster: pl.Cluster,
			Indices: pl.Indices,
			Points:  lo.Map(pl.Points, func(v r3.Vec, _ int) [3]float64 { return array(v) }),
			Chains:  pl.Chains,
			Lines:   pl.Lines,
			Color:   Color(pl.Cluster),
		}
	})
	res.Skipped = lo.Map(bnd.Skipped, func(s boundary.Skip, _ int) SkipData {
		return SkipData{Cluster: s.Cluster, Reason: s.Reason}
	})
	return res, nil
}

func array(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
