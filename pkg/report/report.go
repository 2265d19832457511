// Package report encodes pipeline results for machines and humans.
//
// Three encodings are supported: plain text (one answer per line, easy to
// pipe), JSON, and TOML. Styled terminal output lives in the CLI, not here.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/pipeline"
)

// Supported encodings.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// ValidFormats is the set of supported encodings.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatTOML: true,
}

// ValidateFormat checks that an encoding is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return cerrors.New(cerrors.ErrCodeInvalidFormat, "invalid output format: %q (must be one of: text, json, toml)", format)
	}
	return nil
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r *pipeline.Result, format string) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}

	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(r)
	default:
		_, err = io.WriteString(w, Text(r))
	}
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInternal, err, "encode %s report", format)
	}
	return nil
}

// Text renders the answers as "part1: N" and "part2: N" lines, followed by
// the pair that completed the circuit.
func Text(r *pipeline.Result) string {
	var b strings.Builder
	if r.PartOne != nil {
		fmt.Fprintf(&b, "part1: %d\n", r.PartOne.Product)
	}
	if r.PartTwo != nil {
		fmt.Fprintf(&b, "part2: %d\n", r.PartTwo.Product)
		fmt.Fprintf(&b, "pair: %s %s\n", r.PartTwo.A, r.PartTwo.B)
	}
	return b.String()
}

// Histogram renders circuit sizes as "size count" lines, largest first.
func Histogram(sizes []int) string {
	var b strings.Builder
	for i := 0; i < len(sizes); {
		j := i
		for j < len(sizes) && sizes[j] == sizes[i] {
			j++
		}
		b.WriteString(strconv.Itoa(sizes[i]))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(j - i))
		b.WriteByte('\n')
		i = j
	}
	return b.String()
}
