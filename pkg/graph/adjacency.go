package graph

import "sort"

// edgeKey is an undirected mesh edge with lo < hi.
type edgeKey [2]uint32

func makeEdge(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Adjacency is the face adjacency graph of an indexed triangle mesh: two
// faces are neighbours when they reference the same pair of vertex
// indices. It is built once and must be rebuilt if the topology changes.
type Adjacency struct {
	neighbors [][]int

	// Edges is the number of distinct undirected edges.
	Edges int
	// BoundaryEdges counts edges used by a single face.
	BoundaryEdges int
	// NonManifoldEdges counts edges shared by more than two faces.
	NonManifoldEdges int
	// DegenerateEdges counts triangle sides whose two ends are the same
	// vertex; they connect nothing.
	DegenerateEdges int
}

var _ Source = (*Adjacency)(nil)

// NewAdjacency builds the face adjacency of the triangles in indices
// (three vertex indices per face). Each face's neighbour list is sorted
// ascending and holds no duplicates.
func NewAdjacency(indices []uint32) *Adjacency {
	faces := len(indices) / 3
	a := &Adjacency{neighbors: make([][]int, faces)}

	edges := make(map[edgeKey][]int, faces*3/2)
	for f := 0; f < faces; f++ {
		tri := indices[f*3 : f*3+3]
		for j := 0; j < 3; j++ {
			u, v := tri[j], tri[(j+1)%3]
			if u == v {
				a.DegenerateEdges++
				continue
			}
			k := makeEdge(u, v)
			if fs := edges[k]; len(fs) > 0 && fs[len(fs)-1] == f {
				continue
			}
			edges[k] = append(edges[k], f)
		}
	}

	a.Edges = len(edges)
	for _, fs := range edges {
		switch {
		case len(fs) == 1:
			a.BoundaryEdges++
		case len(fs) > 2:
			a.NonManifoldEdges++
		}
		for _, f := range fs {
			for _, g := range fs {
				if f != g {
					a.neighbors[f] = append(a.neighbors[f], g)
				}
			}
		}
	}

	for f, ns := range a.neighbors {
		if len(ns) < 2 {
			continue
		}
		sort.Ints(ns)
		out := ns[:1]
		for _, g := range ns[1:] {
			if g != out[len(out)-1] {
				out = append(out, g)
			}
		}
		a.neighbors[f] = out
	}
	return a
}

// Len returns the number of faces.
func (a *Adjacency) Len() int { return len(a.neighbors) }

// Neighbors returns the faces sharing an edge with face f, ascending.
// The returned slice must not be modified.
func (a *Adjacency) Neighbors(f int) []int { return a.neighbors[f] }

// Closed reports whether every edge is shared by exactly two faces.
func (a *Adjacency) Closed() bool {
	return a.BoundaryEdges == 0 && a.NonManifoldEdges == 0
}
