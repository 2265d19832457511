// Package pipeline provides the solve pipeline shared by every circuitry
// command.
//
// This package wires the engine together: load the point list, run the
// connection driver for each requested part, and memoise the result in a
// cache. The CLI, the watcher and the TUI all go through it so that
// defaults and validation are identical everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read and validate the point list
//  2. Solve: part one (circuit sizes after a connection budget) and part two
//     (the pair that completes a single circuit)
//  3. Render: optional Graphviz diagram of the circuits after part one
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:       "input.txt",
//	    Connections: 1000,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.PartOne.Product, result.PartTwo.Product)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/circuitry/pkg/cache"
	"github.com/matzehuels/circuitry/pkg/circuit"
	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/points"
	"github.com/matzehuels/circuitry/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultConnections is the part one connection budget for full inputs.
	DefaultConnections = 1000

	// DefaultAxis is the coordinate combined in part two.
	DefaultAxis = circuit.AxisX

	// DefaultTracker is the connectivity tracker implementation.
	DefaultTracker = circuit.TrackerUnionFind

	// DefaultLayout is the Graphviz engine used for rendering.
	DefaultLayout = render.LayoutNeato
)

// Budget selects how the part one connection budget is spent.
const (
	// BudgetPairs counts every considered pair, including pairs whose
	// endpoints were already connected.
	BudgetPairs = "pairs"

	// BudgetJoins counts only pairs that merged two circuits.
	BudgetJoins = "joins"
)

// DefaultBudget matches the puzzle semantics.
const DefaultBudget = BudgetPairs

// Part selection. PartAll runs both parts.
const (
	PartAll = 0
	PartOne = 1
	PartTwo = 2
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Load options
	Input string `json:"input"`

	// Solve options
	Part        int                 `json:"part,omitempty"`
	Connections int                 `json:"connections"`
	Budget      string              `json:"budget,omitempty"`
	Axis        circuit.Axis        `json:"axis,omitempty"`
	Tracker     circuit.TrackerKind `json:"tracker,omitempty"`
	Refresh     bool                `json:"refresh,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Layout      string   `json:"layout,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"`
	ShowSkipped bool     `json:"show_skipped,omitempty"`
	Pinned      bool     `json:"pinned,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateBudget checks that a budget mode is valid.
func ValidateBudget(budget string) error {
	if budget != BudgetPairs && budget != BudgetJoins {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "invalid budget: %q (must be one of: pairs, joins)", budget)
	}
	return nil
}

// ValidatePart checks that a part selector is valid.
func ValidatePart(part int) error {
	if part < PartAll || part > PartTwo {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "invalid part: %d (must be 1 or 2, or 0 for both)", part)
	}
	return nil
}

// ValidateFormat checks that a render format is valid.
func ValidateFormat(format string) error {
	if !render.ValidFormats[format] {
		return cerrors.New(cerrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLayout checks that a layout engine is valid.
func ValidateLayout(layout string) error {
	if !render.ValidLayouts[layout] {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "invalid layout: %q (must be one of: neato, fdp, sfdp, circo, dot)", layout)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForSolve(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input path.
func (o *Options) ValidateForLoad() error {
	if err := cerrors.ValidateInputPath(o.Input); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetSolveDefaults sets default values for solving. Connections has no
// default here: zero is a valid budget that considers no pairs, so callers
// pass DefaultConnections themselves.
func (o *Options) SetSolveDefaults() {
	if o.Budget == "" {
		o.Budget = DefaultBudget
	}
	if o.Axis == "" {
		o.Axis = DefaultAxis
	}
	if o.Tracker == "" {
		o.Tracker = DefaultTracker
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForSolve validates and sets defaults for solving.
func (o *Options) ValidateForSolve() error {
	o.SetSolveDefaults()
	if err := ValidatePart(o.Part); err != nil {
		return err
	}
	if o.Connections < 0 {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "connections must not be negative, got %d", o.Connections)
	}
	if err := ValidateBudget(o.Budget); err != nil {
		return err
	}
	axis, err := circuit.ParseAxis(string(o.Axis))
	if err != nil {
		return err
	}
	o.Axis = axis
	if _, err := circuit.NewTracker(o.Tracker, 0); err != nil {
		return err
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	o.SetSolveDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{render.FormatSVG}
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := o.ValidateForSolve(); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateLayout(o.Layout)
}

// RunsPartOne reports whether part one is selected.
func (o *Options) RunsPartOne() bool {
	return o.Part == PartAll || o.Part == PartOne
}

// RunsPartTwo reports whether part two is selected.
func (o *Options) RunsPartTwo() bool {
	return o.Part == PartAll || o.Part == PartTwo
}

// ResultKeyOpts returns cache key options for solve results.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Part:        o.Part,
		Connections: o.Connections,
		Budget:      o.Budget,
		Axis:        string(o.Axis),
	}
}

// RenderKeyOpts returns cache key options for a rendered artifact.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	layout := o.Layout
	if o.Detailed {
		layout += "+detailed"
	}
	if o.ShowSkipped {
		layout += "+skipped"
	}
	if o.Pinned {
		layout += "+pinned"
	}
	return cache.RenderKeyOpts{
		Format:      format,
		Connections: o.Connections,
		Budget:      o.Budget,
		Layout:      layout,
	}
}

// RenderOptions returns diagram options for pkg/render.
func (o *Options) RenderOptions() render.Options {
	return render.Options{
		Detailed:    o.Detailed,
		ShowSkipped: o.ShowSkipped,
		Pinned:      o.Pinned,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this run, including cached replays.
	RunID string `json:"run_id" toml:"run_id"`

	// Input is the path the points were read from.
	Input string `json:"input" toml:"input"`

	// InputHash is the SHA-256 of the canonical point list.
	InputHash string `json:"input_hash" toml:"input_hash"`

	PartOne *PartOneResult `json:"part_one,omitempty" toml:"part_one,omitempty"`
	PartTwo *PartTwoResult `json:"part_two,omitempty" toml:"part_two,omitempty"`

	Stats     Stats     `json:"stats" toml:"stats"`
	CacheInfo CacheInfo `json:"cache" toml:"cache"`
}

// PartOneResult is the circuit histogram after the connection budget.
type PartOneResult struct {
	Connections int    `json:"connections" toml:"connections"`
	Budget      string `json:"budget" toml:"budget"`
	Considered  int    `json:"considered" toml:"considered"`
	Joins       int    `json:"joins" toml:"joins"`
	Sizes       []int  `json:"sizes" toml:"sizes"`
	Product     int    `json:"product" toml:"product"`
}

// PartTwoResult is the pair that completed a single circuit.
type PartTwoResult struct {
	A          points.Point `json:"a" toml:"a"`
	B          points.Point `json:"b" toml:"b"`
	Distance   uint64       `json:"distance" toml:"distance"`
	Axis       circuit.Axis `json:"axis" toml:"axis"`
	Product    uint64       `json:"product" toml:"product"`
	Considered int          `json:"considered" toml:"considered"`
	Joins      int          `json:"joins" toml:"joins"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Points      int           `json:"points" toml:"points"`
	Pairs       int           `json:"pairs" toml:"pairs"`
	LoadTime    time.Duration `json:"load_time" toml:"load_time"`
	PartOneTime time.Duration `json:"part_one_time" toml:"part_one_time"`
	PartTwoTime time.Duration `json:"part_two_time" toml:"part_two_time"`
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	ResultHit bool `json:"result_hit" toml:"result_hit"`
	RenderHit bool `json:"render_hit,omitempty" toml:"render_hit,omitempty"`
}
