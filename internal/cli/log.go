package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/circuitry/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Solved example.txt (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Debug Hooks
// =============================================================================

// RegisterHooks routes pipeline, cache and render events to the CLI logger
// at debug level. main calls it when --verbose is set.
func (c *CLI) RegisterHooks() {
	h := &logHooks{logger: c.Logger}
	observability.SetSolveHooks(h)
	observability.SetCacheHooks(h)
	observability.SetRenderHooks(h)
}

// logHooks implements every observability hook interface by logging.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnParseComplete(_ context.Context, source string, points int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("parse failed", "source", source, "err", err)
		return
	}
	h.logger.Debug("parsed", "source", source, "points", points, "duration", d)
}

func (h *logHooks) OnSolveStart(_ context.Context, points, connections int) {
	h.logger.Debug("solve start", "points", points, "connections", connections)
}

func (h *logHooks) OnSolveComplete(_ context.Context, part int, d time.Duration, err error) {
	h.logger.Debug("solve complete", "part", part, "duration", d, "err", err)
}

// OnJoin logs every 100th considered pair and the final join.
func (h *logHooks) OnJoin(_ context.Context, seq, circuits int) {
	if circuits == 1 || seq%100 == 0 {
		h.logger.Debug("join", "seq", seq, "circuits", circuits)
	}
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRenderStart(_ context.Context, format string, edges int) {
	h.logger.Debug("render start", "format", format, "edges", edges)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	h.logger.Debug("render complete", "format", format, "bytes", size, "duration", d, "err", err)
}

var (
	_ observability.SolveHooks  = (*logHooks)(nil)
	_ observability.CacheHooks  = (*logHooks)(nil)
	_ observability.RenderHooks = (*logHooks)(nil)
)
