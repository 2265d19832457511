package circuit

import (
	"context"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/points"
)

// Sentinel errors returned by the Driver. Both carry an errors.Code, so
// callers can match them with errors.Is from the standard library or with
// the code-based errors.Is from pkg/errors.
var (
	// ErrExhausted is returned when every candidate pair has been considered.
	ErrExhausted = cerrors.New(cerrors.ErrCodeExhausted, "no more candidate pairs")

	// ErrNoSolution is returned by FinalConnection when no join ever
	// reduced the circuit count to one.
	ErrNoSolution = cerrors.New(cerrors.ErrCodeNoSolution, "points never became a single circuit")
)

// Join describes one considered candidate pair.
type Join struct {
	A, B     int          // point indices, A < B
	P, Q     points.Point // coordinates of A and B
	Distance uint64
	Merged   bool // false when A and B already shared a circuit
	Circuits int  // circuit count after this pair was handled
	Seq      int  // 1-based position in the pop sequence
}

// Option configures a Driver.
type Option func(*Driver)

// WithTracker replaces the default union-find tracker. The tracker must
// hold exactly one singleton circuit per point.
func WithTracker(t Tracker) Option {
	return func(d *Driver) { d.tracker = t }
}

// WithHistory records every considered pair, retrievable with History.
func WithHistory() Option {
	return func(d *Driver) { d.record = true }
}

// WithObserver calls fn after every considered pair, merged or not.
func WithObserver(fn func(Join)) Option {
	return func(d *Driver) { d.observer = fn }
}

// Driver joins candidate pairs closest first. It owns all mutable state of
// a run and is not safe for concurrent use.
type Driver struct {
	store    *points.Store
	queue    *Queue
	tracker  Tracker
	record   bool
	history  []Join
	observer func(Join)

	considered int
	joins      int
}

// NewDriver generates and orders all candidate pairs of s.
func NewDriver(ctx context.Context, s *points.Store, opts ...Option) (*Driver, error) {
	edges, err := Candidates(ctx, s)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		store: s,
		queue: NewQueue(edges),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.tracker == nil {
		d.tracker = NewUnionFind(s.Len())
	}
	if d.tracker.Len() != s.Len() || d.tracker.Count() != s.Len() {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput,
			"tracker must start with %d singleton circuits, has %d points in %d circuits",
			s.Len(), d.tracker.Len(), d.tracker.Count())
	}
	return d, nil
}

// Tracker returns the connectivity tracker for queries.
func (d *Driver) Tracker() Tracker { return d.tracker }

// Store returns the point store.
func (d *Driver) Store() *points.Store { return d.store }

// Considered returns how many candidate pairs have been popped.
func (d *Driver) Considered() int { return d.considered }

// Joins returns how many pairs actually merged two circuits.
func (d *Driver) Joins() int { return d.joins }

// Remaining returns how many candidate pairs have not been considered.
func (d *Driver) Remaining() int { return d.queue.Len() }

// History returns the recorded pairs. It is empty unless WithHistory was set.
func (d *Driver) History() []Join {
	return append([]Join(nil), d.history...)
}

// Step considers the next closest pair. If its endpoints are already
// connected the pair is consumed without changing state and Merged is false.
// Step returns false once the candidates are exhausted.
func (d *Driver) Step() (Join, bool) {
	e, ok := d.queue.Pop()
	if !ok {
		return Join{}, false
	}
	d.considered++

	j := Join{
		A:        e.A,
		B:        e.B,
		P:        d.store.At(e.A),
		Q:        d.store.At(e.B),
		Distance: e.Distance,
		Seq:      d.considered,
	}
	if d.tracker.Merge(e.A, e.B) {
		j.Merged = true
		d.joins++
	}
	j.Circuits = d.tracker.Count()

	if d.record {
		d.history = append(d.history, j)
	}
	if d.observer != nil {
		d.observer(j)
	}
	return j, true
}

// ConnectClosestPair joins the closest pair whose endpoints are in
// different circuits, discarding already-connected pairs on the way.
// It returns ErrExhausted if the candidates run out first.
func (d *Driver) ConnectClosestPair() (Join, error) {
	for {
		j, ok := d.Step()
		if !ok {
			return Join{}, ErrExhausted
		}
		if j.Merged {
			return j, nil
		}
	}
}

// ConnectClosestBoxes considers the next quantity closest pairs. Pairs whose
// endpoints already share a circuit use up budget without merging anything,
// which is what "connect the N closest pairs" means for the junction-box
// puzzle. It stops early on exhaustion and returns the number of merges.
// Use ConnectJoins to count only successful joins against the budget.
func (d *Driver) ConnectClosestBoxes(quantity int) int {
	merged := 0
	for range max(quantity, 0) {
		j, ok := d.Step()
		if !ok {
			break
		}
		if j.Merged {
			merged++
		}
	}
	return merged
}

// ConnectJoins performs up to quantity successful joins, skipping pairs
// that are already connected without counting them. It stops early on
// exhaustion and returns the number of joins performed.
func (d *Driver) ConnectJoins(quantity int) int {
	n := 0
	for n < quantity {
		if _, err := d.ConnectClosestPair(); err != nil {
			break
		}
		n++
	}
	return n
}

// FinalConnection joins pairs until a single circuit remains and returns
// the join that completed it.
//
// It returns ErrNoSolution when the candidates run out first, when there
// are fewer than two points (no join can produce the single circuit), or
// when a single circuit was already reached by an earlier call.
func (d *Driver) FinalConnection() (Join, error) {
	if d.store.Len() <= 1 {
		return Join{}, ErrNoSolution
	}
	for {
		j, err := d.ConnectClosestPair()
		if err != nil {
			return Join{}, ErrNoSolution
		}
		if j.Circuits == 1 {
			return j, nil
		}
	}
}
