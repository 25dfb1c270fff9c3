// Package segment partitions triangle meshes and point clouds into
// locally planar pieces by region growing.
//
// MeshGrower grows regions of faces over edge adjacency, comparing each
// candidate face with the running area-weighted normal of its region, then
// folds regions below an area limit into their most similar significant
// neighbour. CloudGrower clusters points over a radius graph, comparing
// each candidate normal with the normal of the cluster seed, and discards
// clusters below a size limit.
//
// Both growers are deterministic: seeds are taken in ascending index order.
package segment

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/kernel"
)

// ErrOrphanRegion is returned under config.OrphanFail when a small region
// has no significant neighbour.
var ErrOrphanRegion = errors.New("segment: orphan region")

// Unlabeled marks a point that belongs to no retained cluster.
const Unlabeled = -1

// Region is a connected set of mesh faces with similar normals.
type Region struct {
	Faces  []int   `json:"faces"`
	Normal r3.Vec  `json:"normal"` // area-weighted, unit
	Area   float64 `json:"area"`
	// Orphan is set on a small region that could not be merged.
	Orphan bool `json:"orphan,omitempty"`

	sum r3.Vec // area-weighted normal sum
}

func (r *Region) add(face int, normal r3.Vec, area float64) {
	r.Faces = append(r.Faces, face)
	r.Area += area
	r.sum = r3.Add(r.sum, r3.Scale(area, normal))
	r.refresh()
}

func (r *Region) absorb(o *Region) {
	r.Faces = append(r.Faces, o.Faces...)
	r.Area += o.Area
	r.sum = r3.Add(r.sum, o.sum)
	r.refresh()
}

// refresh recomputes Normal from the area-weighted mean. A region without
// area gets kernel.FallbackNormal.
func (r *Region) refresh() {
	if !(r.Area > 0) {
		r.Normal = kernel.FallbackNormal
		return
	}
	r.Normal = kernel.UnitOrFallback(r3.Scale(1/r.Area, r.sum))
}

// Cluster is a set of points grown from one seed.
type Cluster struct {
	Seed   int    `json:"seed"`
	Points []int  `json:"points"`
	Normal r3.Vec `json:"normal"` // mean of member normals, unit
}

// MeshSegmentation is the result of MeshGrower.Segment.
type MeshSegmentation struct {
	// Labels maps each face to its index in Regions.
	Labels  []int    `json:"labels"`
	Regions []Region `json:"regions"`
	// Grown is the number of regions before the merge pass.
	Grown     int     `json:"grown"`
	Merged    int     `json:"merged"`
	Orphans   int     `json:"orphans"`
	TotalArea float64 `json:"totalArea"`
}

// CloudSegmentation is the result of CloudGrower.Segment.
type CloudSegmentation struct {
	// Labels maps each point of Cloud to its index in Clusters, or
	// Unlabeled.
	Labels   []int     `json:"labels"`
	Clusters []Cluster `json:"clusters"`
	// Rejected counts points in clusters smaller than the minimum size.
	Rejected int `json:"rejected"`
	// Cloud is the cloud that was clustered: the input, or its voxel
	// downsampling, with normals filled in.
	Cloud *kernel.PointCloud `json:"-"`
}
