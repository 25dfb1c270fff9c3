// Package spatial answers nearest-neighbor queries over a fixed point set.
//
// An Index is built once from a snapshot of positions and is read-only
// afterwards, so any number of goroutines may query it concurrently.
// Results are point indices into the snapshot, ordered by ascending
// distance with ties broken by ascending index.
package spatial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Index is a k-d tree over a point snapshot.
type Index struct {
	tree   *kdtree.Tree
	points []r3.Vec
	valid  bool
}

// Build indexes a copy of points. If any coordinate is NaN or infinite the
// returned index is marked invalid and every query on it returns nothing.
func Build(points []r3.Vec) *Index {
	idx := &Index{points: append([]r3.Vec(nil), points...), valid: true}
	nodes := make(nodeList, len(points))
	for i, p := range points {
		if !finite(p) {
			idx.valid = false
			return idx
		}
		nodes[i] = node{Vec: p, id: i}
	}
	idx.tree = kdtree.New(nodes, false)
	return idx
}

// Len returns the number of indexed points.
func (x *Index) Len() int { return len(x.points) }

// Valid reports whether the snapshot contained only finite coordinates.
func (x *Index) Valid() bool { return x.valid }

// Point returns the position of point i.
func (x *Index) Point(i int) r3.Vec { return x.points[i] }

// Radius returns every point within Euclidean distance r of q, including a
// point that coincides with q.
func (x *Index) Radius(q r3.Vec, r float64) []int {
	if !x.usable(q) || !(r >= 0) || math.IsInf(r, 0) {
		return nil
	}
	keep := kdtree.NewDistKeeper(r * r)
	x.tree.NearestSet(keep, node{Vec: q, id: -1})
	return collect(keep.Heap, -1)
}

// KNearest returns up to k points closest to q. When several points tie
// with the k-th distance the lowest indices win.
func (x *Index) KNearest(q r3.Vec, k int) []int {
	if !x.usable(q) || k <= 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	x.tree.NearestSet(keep, node{Vec: q, id: -1})
	var far float64
	found := 0
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		found++
		far = math.Max(far, c.Dist)
	}
	if found == 0 {
		return nil
	}
	// Requery at the k-th distance so ties on the cut are resolved by index
	// rather than by tree layout.
	all := kdtree.NewDistKeeper(far)
	x.tree.NearestSet(all, node{Vec: q, id: -1})
	return collect(all.Heap, k)
}

// Hybrid returns the points within r of q, truncated to the maxNN closest.
func (x *Index) Hybrid(q r3.Vec, r float64, maxNN int) []int {
	if maxNN <= 0 {
		return nil
	}
	ids := x.Radius(q, r)
	if len(ids) > maxNN {
		ids = ids[:maxNN]
	}
	return ids
}

func (x *Index) usable(q r3.Vec) bool {
	return x != nil && x.valid && x.tree != nil && finite(q)
}

// collect sorts kept results by (distance, index) and returns at most
// limit indices; limit < 0 keeps all.
func collect(h kdtree.Heap, limit int) []int {
	found := make([]kdtree.ComparableDist, 0, len(h))
	for _, c := range h {
		if c.Comparable != nil {
			found = append(found, c)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Dist != found[j].Dist {
			return found[i].Dist < found[j].Dist
		}
		return found[i].Comparable.(node).id < found[j].Comparable.(node).id
	})
	if limit >= 0 && len(found) > limit {
		found = found[:limit]
	}
	ids := make([]int, len(found))
	for i, c := range found {
		ids[i] = c.Comparable.(node).id
	}
	return ids
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
