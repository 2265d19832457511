package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/circuitry/pkg/circuit"
	"github.com/matzehuels/circuitry/pkg/observability"
	"github.com/matzehuels/circuitry/pkg/points"
)

// Solve runs the selected parts against an already loaded store without
// consulting any cache. Each part starts from its own fresh driver.
//
// The run fails as a whole: if any selected part returns an error, such as
// circuit.ErrNoSolution from part two on fewer than two points, Solve
// returns a nil Result even when part one already succeeded. Use
// SolvePartOne directly to keep its result.
func Solve(ctx context.Context, s *points.Store, opts Options) (*Result, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return nil, err
	}

	result := &Result{
		Input:     opts.Input,
		InputHash: hashStore(s),
		Stats: Stats{
			Points: s.Len(),
			Pairs:  circuit.PairCount(s.Len()),
		},
	}

	if opts.RunsPartOne() {
		start := time.Now()
		observability.Solve().OnSolveStart(ctx, s.Len(), opts.Connections)
		p1, err := SolvePartOne(ctx, s, opts)
		result.Stats.PartOneTime = time.Since(start)
		observability.Solve().OnSolveComplete(ctx, PartOne, result.Stats.PartOneTime, err)
		if err != nil {
			return nil, err
		}
		result.PartOne = p1
		opts.Logger.Info("part one",
			"product", p1.Product,
			"circuits", len(p1.Sizes),
			"duration", result.Stats.PartOneTime)
	}

	if opts.RunsPartTwo() {
		start := time.Now()
		observability.Solve().OnSolveStart(ctx, s.Len(), 0)
		p2, err := SolvePartTwo(ctx, s, opts)
		result.Stats.PartTwoTime = time.Since(start)
		observability.Solve().OnSolveComplete(ctx, PartTwo, result.Stats.PartTwoTime, err)
		if err != nil {
			return nil, err
		}
		result.PartTwo = p2
		opts.Logger.Info("part two",
			"product", p2.Product,
			"a", p2.A.String(),
			"b", p2.B.String(),
			"duration", result.Stats.PartTwoTime)
	}

	return result, nil
}

// SolvePartOne spends the connection budget and reports circuit sizes.
func SolvePartOne(ctx context.Context, s *points.Store, opts Options) (*PartOneResult, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return nil, err
	}
	d, err := newDriver(ctx, s, opts, nil)
	if err != nil {
		return nil, err
	}

	switch opts.Budget {
	case BudgetJoins:
		d.ConnectJoins(opts.Connections)
	default:
		d.ConnectClosestBoxes(opts.Connections)
	}
	opts.Logger.Debug("connected",
		"budget", opts.Budget,
		"considered", d.Considered(),
		"joins", d.Joins(),
		"remaining", d.Remaining())

	return &PartOneResult{
		Connections: opts.Connections,
		Budget:      opts.Budget,
		Considered:  d.Considered(),
		Joins:       d.Joins(),
		Sizes:       d.Tracker().Sizes(),
		Product:     circuit.TopThreeSizesProduct(d.Tracker()),
	}, nil
}

// SolvePartTwo connects pairs until one circuit remains.
func SolvePartTwo(ctx context.Context, s *points.Store, opts Options) (*PartTwoResult, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return nil, err
	}
	d, err := newDriver(ctx, s, opts, nil)
	if err != nil {
		return nil, err
	}

	j, err := d.FinalConnection()
	if err != nil {
		return nil, err
	}
	return &PartTwoResult{
		A:          j.P,
		B:          j.Q,
		Distance:   j.Distance,
		Axis:       opts.Axis,
		Product:    circuit.Combine(j.P, j.Q, opts.Axis),
		Considered: d.Considered(),
		Joins:      d.Joins(),
	}, nil
}

// newDriver builds a driver with the configured tracker. Merges are reported
// to the solve hooks; extra options are appended.
func newDriver(ctx context.Context, s *points.Store, opts Options, extra []circuit.Option) (*circuit.Driver, error) {
	tracker, err := circuit.NewTracker(opts.Tracker, s.Len())
	if err != nil {
		return nil, err
	}
	hooks := observability.Solve()
	driverOpts := []circuit.Option{
		circuit.WithTracker(tracker),
		circuit.WithObserver(func(j circuit.Join) {
			if j.Merged {
				hooks.OnJoin(ctx, j.Seq, j.Circuits)
			}
		}),
	}
	return circuit.NewDriver(ctx, s, append(driverOpts, extra...)...)
}
