package points

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
)

// Parse reads a point list from r.
//
// Each line must hold exactly three comma-separated integers in
// [0, MaxCoordinate]. Whitespace around fields and trailing blank lines are
// ignored; a blank line followed by more points is malformed. On the first
// malformed line Parse returns a *errors.ParseError (wrapped with code
// INVALID_POINT) and a nil Store.
func Parse(r io.Reader) (*Store, error) {
	sc := bufio.NewScanner(r)
	var (
		pts       []Point
		blankLine int // first blank line seen, 0 if none
		lineNo    int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if blankLine == 0 {
				blankLine = lineNo
			}
			continue
		}
		if blankLine != 0 {
			return nil, parseErr(blankLine, "", "unexpected blank line")
		}
		p, err := parseLine(line)
		if err != nil {
			return nil, parseErr(lineNo, line, err.Error())
		}
		pts = append(pts, p)
	}
	if err := sc.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "read point list")
	}
	return &Store{points: pts}, nil
}

// ParseString is a convenience wrapper around Parse for in-memory input.
func ParseString(s string) (*Store, error) {
	return Parse(strings.NewReader(s))
}

// ReadFile opens path and parses it with Parse.
func ReadFile(path string) (*Store, error) {
	if err := cerrors.ValidateInputPath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.GetCode(err), err, "parse %s", path)
	}
	return s, nil
}

func parseLine(line string) (Point, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return Point{}, fieldCountError(len(fields))
	}
	var coords [3]uint64
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return Point{}, coordError{field: i + 1, value: f}
		}
		if v > MaxCoordinate {
			return Point{}, rangeError{field: i + 1, value: v}
		}
		coords[i] = v
	}
	return Point{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func parseErr(line int, text, reason string) error {
	return cerrors.Wrap(cerrors.ErrCodeInvalidPoint, &cerrors.ParseError{
		Line:   line,
		Text:   text,
		Reason: reason,
	}, "malformed point list")
}

type fieldCountError int

func (n fieldCountError) Error() string {
	return "expected 3 fields, got " + strconv.Itoa(int(n))
}

type coordError struct {
	field int
	value string
}

func (e coordError) Error() string {
	return "field " + strconv.Itoa(e.field) + " is not a non-negative integer: " + strconv.Quote(strings.TrimSpace(e.value))
}

type rangeError struct {
	field int
	value uint64
}

func (e rangeError) Error() string {
	return "field " + strconv.Itoa(e.field) + " exceeds " + strconv.Itoa(MaxCoordinate) + ": " + strconv.FormatUint(e.value, 10)
}
