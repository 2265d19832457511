package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/circuitry/pkg/cache"
	"github.com/matzehuels/circuitry/pkg/circuit"
	"github.com/matzehuels/circuitry/pkg/observability"
	"github.com/matzehuels/circuitry/pkg/points"
	"github.com/matzehuels/circuitry/pkg/render"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeResult = "result"
	keyTypeRender = "render"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default cache TTLs when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → solve pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	loadStart := time.Now()
	s, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(loadStart)

	result, err := r.SolveWithCacheInfo(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime
	return result, nil
}

// Load reads the input file named by opts.Input.
func (r *Runner) Load(ctx context.Context, opts Options) (*points.Store, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	start := time.Now()
	s, err := points.ReadFile(opts.Input)
	observability.Solve().OnParseComplete(ctx, opts.Input, s.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("loaded points",
		"input", opts.Input,
		"points", s.Len(),
		"pairs", circuit.PairCount(s.Len()),
		"duration", time.Since(start))
	return s, nil
}

// SolveWithCacheInfo solves an already loaded store, consulting the cache
// first unless opts.Refresh is set. Cache failures are logged and never
// fail the run.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, s *points.Store, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSolve(); err != nil {
		return nil, err
	}

	cacheKey := r.Keyer.ResultKey(hashStore(s), opts.ResultKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.cachedResult(ctx, cacheKey); ok {
			cached.RunID = uuid.NewString()
			cached.Input = opts.Input
			cached.CacheInfo.ResultHit = true
			opts.Logger.Debug("result cache hit", "key", cacheKey)
			return cached, nil
		}
	}

	result, err := Solve(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	result.RunID = uuid.NewString()

	if data, err := json.Marshal(result); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.ResultTTL)); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeResult, len(data))
		}
	}
	return result, nil
}

func (r *Runner) cachedResult(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyTypeResult)
		return nil, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyTypeResult)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyTypeResult)
	return &result, true
}

// RenderWithCacheInfo spends the part one budget on a store and renders the
// resulting circuits in every requested format. It reports true when all
// artifacts came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *points.Store, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	inputHash := hashStore(s)

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.RenderKey(inputHash, opts.RenderKeyOpts(format)))
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, keyTypeRender)
				break
			}
			observability.Cache().OnCacheHit(ctx, keyTypeRender)
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	dot, err := r.DOT(ctx, s, opts)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	for _, format := range opts.Formats {
		data, err := render.Render(ctx, dot, format, opts.Layout)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, r.Keyer.RenderKey(inputHash, opts.RenderKeyOpts(format)), data, r.ttl(cache.RenderTTL)); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeRender, len(data))
		}
	}
	opts.Logger.Info("rendered circuits",
		"formats", opts.Formats,
		"layout", opts.Layout,
		"duration", time.Since(start))
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, s *points.Store, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, opts)
	return artifacts, err
}

// DOT spends the part one budget with history recording and returns the
// Graphviz source for the resulting circuits.
func (r *Runner) DOT(ctx context.Context, s *points.Store, opts Options) (string, error) {
	r.applyLogger(&opts)
	opts.SetRenderDefaults()
	if err := opts.ValidateForSolve(); err != nil {
		return "", err
	}
	d, err := newDriver(ctx, s, opts, []circuit.Option{circuit.WithHistory()})
	if err != nil {
		return "", err
	}
	if opts.Budget == BudgetJoins {
		d.ConnectJoins(opts.Connections)
	} else {
		d.ConnectClosestBoxes(opts.Connections)
	}
	return render.ToDOT(s, d.History(), d.Tracker(), opts.RenderOptions()), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func hashStore(s *points.Store) string {
	return cache.Hash(s.Canonical())
}
