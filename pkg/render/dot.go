package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/circuitry/pkg/circuit"
	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/observability"
	"github.com/matzehuels/circuitry/pkg/points"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Graphviz layout engines.
const (
	LayoutNeato = "neato"
	LayoutFDP   = "fdp"
	LayoutSFDP  = "sfdp"
	LayoutCirco = "circo"
	LayoutDot   = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
}

// ValidLayouts is the set of supported layout engines.
var ValidLayouts = map[string]bool{
	LayoutNeato: true,
	LayoutFDP:   true,
	LayoutSFDP:  true,
	LayoutCirco: true,
	LayoutDot:   true,
}

// palette colours circuits with more than one point, cycling when exhausted.
var palette = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#bc80bd", "#ccebc5", "#ffed6f", "#d9d9d9",
}

// Options configures diagram generation.
type Options struct {
	// Detailed labels nodes with coordinates instead of indices.
	Detailed bool

	// ShowSkipped draws pairs whose endpoints were already connected as
	// dashed grey edges.
	ShowSkipped bool

	// Pinned fixes every node at its X/Y projection. Only the neato and fdp
	// engines honour pinned positions.
	Pinned bool

	// Scale divides coordinates when Pinned is set. Defaults to 100.
	Scale float64
}

// ToDOT converts the points, the recorded joins and the final partition
// to an undirected Graphviz graph.
func ToDOT(s *points.Store, joins []circuit.Join, t circuit.Tracker, opts Options) string {
	if opts.Scale <= 0 {
		opts.Scale = 100
	}
	colours := circuitColours(s.Len(), t)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, width=0.3];\n")
	buf.WriteString("  edge [fontsize=8];\n")
	buf.WriteString("\n")

	for i := range s.Len() {
		p := s.At(i)
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(i, p, opts.Detailed))}
		if c, ok := colours[i]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
		}
		if opts.Pinned {
			attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f!\"", float64(p.X)/opts.Scale, float64(p.Y)/opts.Scale))
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", i, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, j := range joins {
		switch {
		case j.Merged:
			fmt.Fprintf(&buf, "  n%d -- n%d [label=\"%d\", penwidth=2];\n", j.A, j.B, j.Distance)
		case opts.ShowSkipped:
			fmt.Fprintf(&buf, "  n%d -- n%d [style=dashed, color=grey];\n", j.A, j.B)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(i int, p points.Point, detailed bool) string {
	if !detailed {
		return strconv.Itoa(i)
	}
	return fmt.Sprintf("%d\n%s", i, p)
}

// circuitColours assigns palette colours to multi-point circuits in order of
// their lowest point index. Singletons are absent from the result.
func circuitColours(n int, t circuit.Tracker) map[int]string {
	if t == nil {
		return nil
	}
	size := make(map[int]int, n)
	for i := range n {
		size[t.CircuitOf(i)]++
	}
	byLabel := make(map[int]string)
	out := make(map[int]string)
	for i := range n {
		label := t.CircuitOf(i)
		if size[label] < 2 {
			continue
		}
		c, ok := byLabel[label]
		if !ok {
			c = palette[len(byLabel)%len(palette)]
			byLabel[label] = c
		}
		out[i] = c
	}
	return out
}

// Render lays out a DOT graph with the given engine and encodes it.
// FormatDOT returns the source unchanged.
func Render(ctx context.Context, dot, format, layout string) ([]byte, error) {
	if !ValidFormats[format] {
		return nil, cerrors.New(cerrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png)", format)
	}
	if layout == "" {
		layout = LayoutNeato
	}
	if !ValidLayouts[layout] {
		return nil, cerrors.New(cerrors.ErrCodeInvalidConfig, "invalid layout: %q (must be one of: neato, fdp, sfdp, circo, dot)", layout)
	}
	if format == FormatDOT {
		return []byte(dot), nil
	}

	start := time.Now()
	observability.Render().OnRenderStart(ctx, format, strings.Count(dot, " -- "))
	out, err := render(ctx, dot, format, layout)
	observability.Render().OnRenderComplete(ctx, format, len(out), time.Since(start), err)
	return out, err
}

func render(ctx context.Context, dot, format, layout string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(layout))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	gvFormat := graphviz.SVG
	if format == FormatPNG {
		gvFormat = graphviz.PNG
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "render %s", format)
	}
	if format == FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one whose
// width and height match the viewBox, so browsers scale it predictably.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
