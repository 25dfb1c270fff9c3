// Package config holds the tunable parameters of segmentation, clustering
// and boundary extraction.
package config

import "math"

// OrphanPolicy selects what happens to a small mesh region that has no
// adjacent significant region to merge into.
type OrphanPolicy string

const (
	// OrphanKeep leaves the region as its own segment.
	OrphanKeep OrphanPolicy = "keep"
	// OrphanMerge merges it into the most similar significant region
	// anywhere on the mesh.
	OrphanMerge OrphanPolicy = "merge"
	// OrphanFail aborts segmentation with an error.
	OrphanFail OrphanPolicy = "fail"
)

// Valid reports whether p names a known policy.
func (p OrphanPolicy) Valid() bool {
	switch p {
	case OrphanKeep, OrphanMerge, OrphanFail:
		return true
	}
	return false
}

// Segmentation configures mesh region growing.
type Segmentation struct {
	MaxCurvatureDeg   float64      `json:"maxCurvatureDeg"`   // max angle between a face and its region
	AreaLimitFraction float64      `json:"areaLimitFraction"` // of total area; smaller regions get merged
	Orphans           OrphanPolicy `json:"orphans"`
}

// NormalFloor is the cosine of MaxCurvatureDeg: the smallest dot product
// between a face normal and its region normal that still admits the face.
func (s Segmentation) NormalFloor() float64 {
	return math.Cos(s.MaxCurvatureDeg * math.Pi / 180)
}

// Clustering configures point cloud region growing.
type Clustering struct {
	Radius          float64 `json:"radius"`
	NormalThreshold float64 `json:"normalThreshold"` // dot with the seed normal must exceed this
	MinClusterSize  int     `json:"minClusterSize"`
	VoxelSize       float64 `json:"voxelSize"` // 0 disables downsampling
}

// Boundary configures boundary point detection and chaining.
type Boundary struct {
	CurvatureThreshold float64 `json:"curvatureThreshold"`
	NeighborRadius     float64 `json:"neighborRadius"`
	MinClusterPoints   int     `json:"minClusterPoints"`
	ChainNeighbors     int     `json:"chainNeighbors"`
}

// Normals configures PCA normal estimation.
type Normals struct {
	Radius       float64 `json:"radius"`
	MaxNeighbors int     `json:"maxNeighbors"`
}

// Config is the full parameter set.
type Config struct {
	Segmentation Segmentation `json:"segmentation"`
	Clustering   Clustering   `json:"clustering"`
	Boundary     Boundary     `json:"boundary"`
	Normals      Normals      `json:"normals"`
}

// Default returns the stock parameters.
func Default() Config {
	return Config{
		Segmentation: Segmentation{
			MaxCurvatureDeg:   30,
			AreaLimitFraction: 0.02,
			Orphans:           OrphanKeep,
		},
		Clustering: Clustering{
			Radius:          20,
			NormalThreshold: 0.95,
			MinClusterSize:  10,
		},
		Boundary: Boundary{
			CurvatureThreshold: 0.01,
			NeighborRadius:     4,
			MinClusterPoints:   50,
			ChainNeighbors:     10,
		},
		Normals: Normals{
			Radius:       1.0,
			MaxNeighbors: 30,
		},
	}
}
