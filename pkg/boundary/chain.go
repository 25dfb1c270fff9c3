package boundary

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/spatial"
)

// Chain orders points into greedy nearest-neighbor walks.
//
// A walk starts at the lowest-index unvisited point and repeatedly steps
// to the nearest of the current point's k nearest neighbors that has not
// been visited yet. It ends when none of them qualifies, and the next walk
// starts. Every point appears in exactly one walk, so walks never repeat
// an index. Chain returns nil when k < 2 or points is empty.
func Chain(points []r3.Vec, k int) [][]int {
	if len(points) == 0 || k < 2 {
		return nil
	}
	index := spatial.Build(points)
	if !index.Valid() {
		return nil
	}

	visited := make([]bool, len(points))
	var chains [][]int
	for start := range points {
		if visited[start] {
			continue
		}
		visited[start] = true
		cur := start
		chain := []int{cur}
		for {
			next := -1
			for _, nb := range index.KNearest(points[cur], k) {
				if nb == cur || visited[nb] {
					continue
				}
				next = nb
				break
			}
			if next < 0 {
				break
			}
			visited[next] = true
			chain = append(chain, next)
			cur = next
		}
		chains = append(chains, chain)
	}
	return chains
}

// Lines returns the consecutive index pairs of every chain, in order.
func Lines(chains [][]int) [][2]int {
	var lines [][2]int
	for _, c := range chains {
		for i := 1; i < len(c); i++ {
			lines = append(lines, [2]int{c[i-1], c[i]})
		}
	}
	return lines
}
