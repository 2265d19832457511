package circuit

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/circuitry/pkg/points"
)

// parallelThreshold is the point count above which distances are computed
// on multiple goroutines.
const parallelThreshold = 512

// Edge is a candidate pair of point indices with A < B.
type Edge struct {
	A, B     int
	Distance uint64
}

// less orders edges by distance, then by generation order (A, then B).
func (e Edge) less(o Edge) bool {
	if e.Distance != o.Distance {
		return e.Distance < o.Distance
	}
	if e.A != o.A {
		return e.A < o.A
	}
	return e.B < o.B
}

// PairCount returns n·(n−1)/2, the number of candidate pairs for n points.
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// Candidates returns every unordered pair of distinct points in ascending
// (A, B) order, each with its distance computed exactly once.
//
// Inputs with more than parallelThreshold points are split by row across
// GOMAXPROCS goroutines. Each row owns a disjoint range of the result, so
// the output is identical to the sequential computation. The only error
// Candidates returns is ctx.Err().
func Candidates(ctx context.Context, s *points.Store) ([]Edge, error) {
	n := s.Len()
	edges := make([]Edge, PairCount(n))
	if n < 2 {
		return edges, nil
	}

	pts := s.Points()
	if n <= parallelThreshold {
		fillRows(pts, edges, 0, n)
		return edges, ctx.Err()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for a := 0; a < n-1; a++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fillRows(pts, edges, a, a+1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return edges, nil
}

// fillRows writes the pairs whose first index lies in [from, to).
func fillRows(pts []points.Point, edges []Edge, from, to int) {
	n := len(pts)
	i := rowOffset(n, from)
	for a := from; a < to; a++ {
		for b := a + 1; b < n; b++ {
			edges[i] = Edge{A: a, B: b, Distance: points.Distance(pts[a], pts[b])}
			i++
		}
	}
}

// rowOffset returns the index of pair (a, a+1) in generation order.
func rowOffset(n, a int) int {
	return a * (2*n - a - 1) / 2
}
