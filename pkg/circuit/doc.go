// Package circuit implements the progressive nearest-pair connectivity engine.
//
// Given a [points.Store], the engine enumerates every unordered pair of
// points, orders the pairs by integer distance, and joins them closest
// first while tracking which points have become transitively connected.
// A set of connected points is called a circuit.
//
// # Architecture
//
// The engine is layered, leaves first:
//
//  1. [Candidates]: every unordered pair (A < B) with its distance, in
//     generation order
//  2. [Queue]: a binary min-heap over (Distance, A, B), so ties are broken by
//     generation order and the pop sequence is deterministic
//  3. [Tracker]: the mergeable partition. [UnionFind] is the production
//     implementation; [Adjacency] recomputes components by traversal and
//     serves as a slower oracle
//  4. [Driver]: pops pairs and merges circuits
//  5. [TopThreeSizesProduct] and [FinalConnectionResult]: the two queries
//
// # Usage
//
//	d, err := circuit.NewDriver(ctx, store)
//	if err != nil {
//	    return err
//	}
//	d.ConnectClosestBoxes(1000)
//	product := circuit.TopThreeSizesProduct(d.Tracker())
//
//	a, b, err := circuit.FinalConnectionResult(d)
//	if err != nil {
//	    return err // ErrNoSolution
//	}
//	answer := circuit.Combine(a, b, circuit.AxisX)
//
// # Scaling
//
// Candidate generation is O(N²) in time and memory. That is fine for the
// few hundred to few thousand points this engine is meant for. Larger inputs
// need spatial partitioning (k-d trees or grids) to avoid materialising every
// pair, which is outside this package. Distances for large inputs are
// computed on several goroutines, but everything after generation runs on
// the caller's goroutine and a Driver must not be shared.
package circuit
