package points

import (
	"bytes"
	"fmt"
	"math/bits"
	"strconv"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
)

// MaxCoordinate is the largest accepted coordinate value.
// Three squared differences below 2^31 always fit in a uint64.
const MaxCoordinate = 1<<31 - 1

// Point is a junction box position in 3-D integer space.
type Point struct {
	X uint64 `json:"x" toml:"x"`
	Y uint64 `json:"y" toml:"y"`
	Z uint64 `json:"z" toml:"z"`
}

// String formats the point the same way it appears in input files.
func (p Point) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Store is an immutable, ordered list of points.
// The zero value is an empty store.
type Store struct {
	points []Point
}

// NewStore copies pts into a new Store.
// It returns an error if any coordinate exceeds MaxCoordinate.
func NewStore(pts []Point) (*Store, error) {
	for i, p := range pts {
		if p.X > MaxCoordinate || p.Y > MaxCoordinate || p.Z > MaxCoordinate {
			return nil, cerrors.New(cerrors.ErrCodeInvalidPoint, "point %d (%s): coordinate exceeds %d", i, p, MaxCoordinate)
		}
	}
	return &Store{points: append([]Point(nil), pts...)}, nil
}

// Len returns the number of points.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// At returns the point with index i. It panics if i is out of range.
func (s *Store) At(i int) Point {
	return s.points[i]
}

// Points returns a copy of all points in index order.
func (s *Store) Points() []Point {
	if s == nil {
		return nil
	}
	return append([]Point(nil), s.points...)
}

// Canonical renders the store as normalized point-list text.
// Two inputs that parse to the same points have the same canonical form,
// which makes it suitable for content hashing.
func (s *Store) Canonical() []byte {
	var buf bytes.Buffer
	for _, p := range s.Points() {
		buf.WriteString(strconv.FormatUint(p.X, 10))
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatUint(p.Y, 10))
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatUint(p.Z, 10))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// SquaredDistance returns the exact squared Euclidean distance between p and q.
func SquaredDistance(p, q Point) uint64 {
	dx := absDiff(p.X, q.X)
	dy := absDiff(p.Y, q.Y)
	dz := absDiff(p.Z, q.Z)
	return dx*dx + dy*dy + dz*dz
}

// Distance returns floor(sqrt(SquaredDistance(p, q))).
// It is symmetric and zero only when p and q coincide.
func Distance(p, q Point) uint64 {
	return ISqrt(SquaredDistance(p, q))
}

// ISqrt returns the floor of the square root of n.
func ISqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}
	// Start from a power of two that is >= sqrt(n); Newton's method then
	// decreases monotonically to the floor.
	x := uint64(1) << ((bits.Len64(n) + 1) / 2)
	for {
		y := (x + n/x) / 2
		if y >= x {
			return x
		}
		x = y
	}
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
