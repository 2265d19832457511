// Package render draws circuits as Graphviz diagrams.
//
// # Overview
//
// Every point becomes a node and every considered pair that merged two
// circuits becomes an edge labelled with its distance. Nodes are filled with
// one colour per circuit, so the partition at the end of a run is visible at
// a glance. Pairs that were popped but skipped because their endpoints were
// already connected can be drawn as dashed edges.
//
// # Usage
//
// Record the driver history, then convert and render:
//
//	d, _ := circuit.NewDriver(ctx, store, circuit.WithHistory())
//	d.ConnectClosestBoxes(10)
//	dot := render.ToDOT(store, d.History(), d.Tracker(), render.Options{})
//	svg, err := render.Render(ctx, dot, render.FormatSVG, render.LayoutNeato)
//
// # Layouts
//
// Points live in 3-D space, so there is no faithful 2-D picture. With
// [Options.Pinned] nodes are fixed at their X/Y projection; otherwise the
// chosen Graphviz engine places them.
package render
