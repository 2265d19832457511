package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/pipeline"
)

func TestFileWatcherDetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("0,0,0\n"), 0o644))

	w, err := newFileWatcher(path)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("0,0,0\n1,1,1\n"), 0o644))

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestFileWatcherStartFailureClosesWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "input.txt")

	w, err := newFileWatcher(path)
	require.NoError(t, err)

	err = w.Start()
	assert.True(t, cerrors.Is(err, cerrors.ErrCodeInvalidPath), "got %v", err)
	assert.ErrorIs(t, w.watcher.Add(t.TempDir()), fsnotify.ErrClosed)
}

func TestFileWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("0,0,0\n"), 0o644))

	w, err := newFileWatcher(path)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))

	select {
	case <-w.Changes:
		t.Error("unexpected change event for another file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("0,0,0\n"), 0o644))

	w, err := newFileWatcher(path)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("0,0,0\n", i+1)), 0o644))
	}

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	select {
	case <-w.Changes:
		t.Error("burst of writes should produce one change")
	case <-time.After(300 * time.Millisecond):
	}
}

// syncBuffer is a bytes.Buffer safe for one writer and one polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRunWatchResolvesOnChange(t *testing.T) {
	example, err := os.ReadFile(examplePath)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, example, 0o644))

	ctx, cancel := context.WithCancel(withLogger(context.Background(), newLogger(io.Discard, LogInfo)))
	defer cancel()

	var out syncBuffer
	runner := pipeline.NewRunner(nil, nil, newLogger(io.Discard, LogInfo))
	opts := pipeline.Options{Input: path, Connections: 10}

	errc := make(chan error, 1)
	go func() { errc <- runWatch(ctx, runner, &out, opts) }()

	waitFor(t, func() bool { return strings.Contains(out.String(), "part2: 25272") })

	require.NoError(t, os.WriteFile(path, []byte("0,0,0\n3,0,0\n10,0,0\n"), 0o644))
	waitFor(t, func() bool { return strings.Contains(out.String(), "part2: 30") })
	assert.Contains(t, out.String(), "pair: 3,0,0 10,0,0")

	cancel()
	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("runWatch did not return after cancel")
	}
}
