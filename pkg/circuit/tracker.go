package circuit

import (
	"slices"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
)

// Tracker maintains the partition of points into circuits.
//
// Labels returned by CircuitOf are only meaningful for equality and may
// change after a Merge. Implementations are not safe for concurrent use.
type Tracker interface {
	// Len returns the number of points tracked.
	Len() int
	// CircuitOf returns the label of the circuit containing point.
	CircuitOf(point int) int
	// Connected reports whether a and b are in the same circuit.
	Connected(a, b int) bool
	// Merge joins the circuits of a and b. It returns false, leaving the
	// state untouched, when they already share a circuit.
	Merge(a, b int) bool
	// Sizes returns the size of every circuit, largest first.
	Sizes() []int
	// Count returns the number of circuits.
	Count() int
}

// TrackerKind names a Tracker implementation for configuration.
type TrackerKind string

const (
	TrackerUnionFind TrackerKind = "unionfind"
	TrackerAdjacency TrackerKind = "adjacency"
)

// NewTracker returns a tracker of the given kind for n singleton circuits.
// An empty kind selects union-find.
func NewTracker(kind TrackerKind, n int) (Tracker, error) {
	switch kind {
	case TrackerUnionFind, "":
		return NewUnionFind(n), nil
	case TrackerAdjacency:
		return NewAdjacency(n), nil
	}
	return nil, cerrors.New(cerrors.ErrCodeInvalidConfig, "unknown tracker %q (must be one of: unionfind, adjacency)", kind)
}

// UnionFind is a disjoint-set forest stored in flat arrays, with union by
// size and path compression. Labels are root indices.
type UnionFind struct {
	parent []int
	size   []int
	count  int
}

// NewUnionFind creates n singleton circuits.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := range parent {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{parent: parent, size: size, count: n}
}

// Len returns the number of points.
func (uf *UnionFind) Len() int { return len(uf.parent) }

// Count returns the number of circuits.
func (uf *UnionFind) Count() int { return uf.count }

// CircuitOf returns the root of x, compressing the path on the way.
func (uf *UnionFind) CircuitOf(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		x, uf.parent[x] = uf.parent[x], root
	}
	return root
}

// Connected reports whether a and b share a root.
func (uf *UnionFind) Connected(a, b int) bool {
	return uf.CircuitOf(a) == uf.CircuitOf(b)
}

// Merge attaches the smaller circuit under the larger one.
// On equal sizes the lower root index is kept.
func (uf *UnionFind) Merge(a, b int) bool {
	ra, rb := uf.CircuitOf(a), uf.CircuitOf(b)
	if ra == rb {
		return false
	}
	if uf.size[ra] < uf.size[rb] || (uf.size[ra] == uf.size[rb] && rb < ra) {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	uf.count--
	return true
}

// Sizes returns circuit sizes, largest first.
func (uf *UnionFind) Sizes() []int {
	sizes := make([]int, 0, uf.count)
	for i, p := range uf.parent {
		if p == i {
			sizes = append(sizes, uf.size[i])
		}
	}
	sortDescending(sizes)
	return sizes
}

// Adjacency tracks accepted edges as adjacency lists and discovers
// circuits by breadth-first traversal on demand. Every query is O(N + E),
// so it is meant as a cross-check for UnionFind rather than for large runs.
// Labels are the smallest point index in the circuit.
type Adjacency struct {
	adj   [][]int
	count int
}

// NewAdjacency creates n singleton circuits.
func NewAdjacency(n int) *Adjacency {
	return &Adjacency{adj: make([][]int, n), count: n}
}

// Len returns the number of points.
func (g *Adjacency) Len() int { return len(g.adj) }

// Count returns the number of circuits.
func (g *Adjacency) Count() int { return g.count }

// CircuitOf returns the smallest index reachable from point.
func (g *Adjacency) CircuitOf(point int) int {
	label := point
	for _, v := range g.component(point, nil) {
		label = min(label, v)
	}
	return label
}

// Connected reports whether b is reachable from a.
func (g *Adjacency) Connected(a, b int) bool {
	if a == b {
		return true
	}
	return slices.Contains(g.component(a, nil), b)
}

// Merge records the edge a-b unless it would close a cycle.
func (g *Adjacency) Merge(a, b int) bool {
	if g.Connected(a, b) {
		return false
	}
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
	g.count--
	return true
}

// Sizes traverses every circuit once and returns sizes, largest first.
func (g *Adjacency) Sizes() []int {
	seen := make([]bool, len(g.adj))
	sizes := make([]int, 0, g.count)
	for v := range g.adj {
		if seen[v] {
			continue
		}
		sizes = append(sizes, len(g.component(v, seen)))
	}
	sortDescending(sizes)
	return sizes
}

// component returns every point reachable from start. If seen is nil a
// fresh visited set is used; otherwise visited points are marked in it.
func (g *Adjacency) component(start int, seen []bool) []int {
	if seen == nil {
		seen = make([]bool, len(g.adj))
	}
	seen[start] = true
	queue := []int{start}
	for i := 0; i < len(queue); i++ {
		for _, w := range g.adj[queue[i]] {
			if !seen[w] {
				seen[w] = true
				queue = append(queue, w)
			}
		}
	}
	return queue
}

func sortDescending(s []int) {
	slices.SortFunc(s, func(a, b int) int { return b - a })
}
