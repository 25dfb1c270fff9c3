package graph

import "github.com/chazu/fracture/pkg/spatial"

// Source is an implicit graph: nodes are 0..Len()-1 and each node lists
// its neighbours.
type Source interface {
	Len() int
	Neighbors(i int) []int
}

// Grower decides component membership during a flood fill.
//
// Begin is called with each new seed, Visit for every node as it leaves
// the queue (the seed first), Admit for every unvisited neighbour of the
// node being visited, and End once the component is exhausted.
type Grower interface {
	Begin(seed int)
	Visit(i int)
	Admit(from, to int) bool
	End()
}

// FloodFill partitions src into components. Seeds are taken in ascending
// index order from the nodes no earlier component reached; every node is
// visited exactly once. A node refused by Admit stays available to later
// components.
func FloodFill(src Source, g Grower) {
	visited := make([]bool, src.Len())
	var queue []int
	for seed := range visited {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		g.Begin(seed)
		queue = append(queue[:0], seed)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			g.Visit(cur)
			for _, nb := range src.Neighbors(cur) {
				if visited[nb] || !g.Admit(cur, nb) {
					continue
				}
				visited[nb] = true
				queue = append(queue, nb)
			}
		}
		g.End()
	}
}

// RadiusSource connects every indexed point to the points within Radius.
type RadiusSource struct {
	Index  *spatial.Index
	Radius float64
}

var _ Source = RadiusSource{}

func (s RadiusSource) Len() int { return s.Index.Len() }

// Neighbors returns the points within Radius of point i, nearest first;
// the list includes i itself.
func (s RadiusSource) Neighbors(i int) []int {
	return s.Index.Radius(s.Index.Point(i), s.Radius)
}
