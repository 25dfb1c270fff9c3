// Package graph provides the neighbourhood graphs that region growing
// walks: the face adjacency of a triangle mesh and the radius graph of a
// point set, plus the breadth-first flood fill shared by both growers.
package graph
