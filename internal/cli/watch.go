package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/pipeline"
	"github.com/matzehuels/circuitry/pkg/report"
)

// watchDebounce is how long a file must be quiet before it is re-solved.
// Editors often write a file in several steps.
const watchDebounce = 100 * time.Millisecond

// fileWatcher reports debounced changes to one file. It watches the parent
// directory so that editors replacing the file by rename are still seen.
type fileWatcher struct {
	Path    string
	Changes <-chan struct{}

	changes chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "create watcher")
	}

	ch := make(chan struct{}, 1)
	return &fileWatcher{
		Path:    abs,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching. On failure the underlying watcher is closed and
// w must not be used again.
func (w *fileWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		w.watcher.Close()
		return cerrors.Wrap(cerrors.ErrCodeInvalidPath, err, "watch %s", filepath.Dir(w.Path))
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *fileWatcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *fileWatcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case now := <-ticker.C:
			if !pending.IsZero() && now.Sub(pending) >= watchDebounce {
				pending = time.Time{}
				w.emit()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// emit coalesces changes the consumer has not picked up yet.
func (w *fileWatcher) emit() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// watchCommand creates the watch command, which re-solves the input every
// time it is saved.
func (c *CLI) watchCommand() *cobra.Command {
	var noCache, refresh bool

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-solve a point list whenever it changes",
		Example: `  circuitry watch input.txt -n 1000
  circuitry watch testdata/example.txt -n 10 --axis y`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, solveFlagNames...)
			if err != nil {
				return err
			}
			runner := c.newRunner(cmd.Context(), cfg, noCache)
			defer runner.Close()

			opts := cfg.pipelineOptions(args[0])
			opts.Refresh = refresh
			opts.Logger = loggerFromContext(cmd.Context())
			return runWatch(cmd.Context(), runner, cmd.OutOrStdout(), opts)
		},
	}

	addSolveFlags(cmd)
	cmd.Flags().String("axis", string(pipeline.DefaultAxis), "coordinate combined in part 2: x (default), y, z")
	addCacheFlags(cmd, &noCache, &refresh)

	return cmd
}

// runWatch solves once, then again after every change, until ctx is done.
// Solve errors are reported and watching continues; a half-saved file is
// normal while editing.
func runWatch(ctx context.Context, runner *pipeline.Runner, w io.Writer, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)

	fw, err := newFileWatcher(opts.Input)
	if err != nil {
		return err
	}
	if err := fw.Start(); err != nil {
		return err
	}
	defer fw.Stop()

	solveOnce := func() {
		result, err := runner.Execute(ctx, opts)
		if err != nil {
			printWarning("%s", cerrors.UserMessage(err))
			return
		}
		fmt.Fprintf(w, "%s %s\n", StyleDim.Render(time.Now().Format("15:04:05")), StyleValue.Render(opts.Input))
		if _, err := io.WriteString(w, report.Text(result)); err != nil {
			logger.Warn("write result", "err", err)
		}
	}

	solveOnce()
	printInfo("Watching %s (ctrl+c to stop)", opts.Input)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-fw.Changes:
			if !ok {
				return nil
			}
			logger.Debug("input changed", "path", fw.Path)
			solveOnce()
		}
	}
}
