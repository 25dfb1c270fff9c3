package spatial

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = nodeList(nil)
	_ kdtree.Comparable = node{}
)

// node is an indexed point stored in the tree.
type node struct {
	r3.Vec
	id int
}

func (n node) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(n.Vec, d) - coord(c.(node).Vec, d)
}

func (n node) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (n node) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(n.Vec, c.(node).Vec))
}

type nodeList []node

func (l nodeList) Index(i int) kdtree.Comparable         { return l[i] }
func (l nodeList) Len() int                              { return len(l) }
func (l nodeList) Pivot(d kdtree.Dim) int                { return plane{Dim: d, nodeList: l}.Pivot() }
func (l nodeList) Slice(start, end int) kdtree.Interface { return l[start:end] }

// plane sorts a nodeList along one dimension for median selection.
type plane struct {
	kdtree.Dim
	nodeList
}

const randoms = 100

func (p plane) Less(i, j int) bool {
	return coord(p.nodeList[i].Vec, p.Dim) < coord(p.nodeList[j].Vec, p.Dim)
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfRandoms(p, randoms)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.nodeList = p.nodeList[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.nodeList[i], p.nodeList[j] = p.nodeList[j], p.nodeList[i]
}

func coord(v r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
