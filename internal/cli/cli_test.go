package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
)

const examplePath = "testdata/example.txt"

// execute runs the root command with args and an empty config file, so a
// user's ~/.circuitry.toml cannot leak into tests.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfg, nil, 0o644))

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSolveJSON(t *testing.T) {
	out, err := execute(t, "solve", examplePath, "-n", "10", "--no-cache", "-f", "json")
	require.NoError(t, err)

	var got struct {
		RunID   string `json:"run_id"`
		PartOne struct {
			Product int   `json:"product"`
			Sizes   []int `json:"sizes"`
		} `json:"part_one"`
		PartTwo struct {
			Product uint64 `json:"product"`
		} `json:"part_two"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, 40, got.PartOne.Product)
	assert.Equal(t, []int{5, 4, 2, 2, 1, 1, 1, 1, 1, 1, 1}, got.PartOne.Sizes)
	assert.Equal(t, uint64(25272), got.PartTwo.Product)
}

func TestSolvePartTwoTOML(t *testing.T) {
	out, err := execute(t, "solve", examplePath, "--part", "2", "--axis", "y", "--no-cache", "-f", "toml")
	require.NoError(t, err)

	var got struct {
		PartOne *struct{} `toml:"part_one"`
		PartTwo struct {
			Axis    string `toml:"axis"`
			Product int64  `toml:"product"`
		} `toml:"part_two"`
	}
	_, err = toml.Decode(out, &got)
	require.NoError(t, err, out)
	assert.Nil(t, got.PartOne)
	assert.Equal(t, "y", got.PartTwo.Axis)
	assert.Equal(t, int64(146*168), got.PartTwo.Product)
}

func TestSolveErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code cerrors.Code
	}{
		{"bad format", []string{"solve", examplePath, "-f", "yaml"}, cerrors.ErrCodeInvalidFormat},
		{"bad part", []string{"solve", examplePath, "--part", "3"}, cerrors.ErrCodeInvalidConfig},
		{"bad axis", []string{"solve", examplePath, "--axis", "w", "--no-cache"}, cerrors.ErrCodeInvalidConfig},
		{"bad budget", []string{"solve", examplePath, "--budget", "edges", "--no-cache"}, cerrors.ErrCodeInvalidConfig},
		{"missing file", []string{"solve", "testdata/missing.txt", "--no-cache"}, cerrors.ErrCodeFileNotFound},
		{"bad backend", []string{"solve", examplePath, "--cache-backend", "s3"}, cerrors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.True(t, cerrors.Is(err, tt.code), "want %s, got %v", tt.code, err)
		})
	}
}

func TestSolveUsesFileCache(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CIRCUITRY_CACHE_DIR", dir)

	first, err := execute(t, "solve", examplePath, "-n", "10", "-f", "json")
	require.NoError(t, err)
	second, err := execute(t, "solve", examplePath, "-n", "10", "-f", "json")
	require.NoError(t, err)

	var a, b struct {
		Cache struct {
			ResultHit bool `json:"result_hit"`
		} `json:"cache"`
	}
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.False(t, a.Cache.ResultHit)
	assert.True(t, b.Cache.ResultHit)

	entries, err := filepath.Glob(filepath.Join(dir, "*", "*.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestConnectPlain(t *testing.T) {
	out, err := execute(t, "connect", examplePath, "-n", "10", "--plain", "--no-cache")
	require.NoError(t, err)
	assert.Equal(t, "5 1\n4 1\n2 2\n1 7\n", out)
}

func TestConnectJoinBudget(t *testing.T) {
	out, err := execute(t, "connect", examplePath, "-n", "10", "--budget", "joins", "--plain", "--no-cache")
	require.NoError(t, err)
	assert.Equal(t, "5 2\n2 2\n1 6\n", out)
}

func TestConnectZeroConnections(t *testing.T) {
	out, err := execute(t, "connect", examplePath, "-n", "0", "--plain", "--no-cache")
	require.NoError(t, err)
	assert.Equal(t, "1 20\n", out)
}

func TestRenderDOTToStdout(t *testing.T) {
	out, err := execute(t, "render", examplePath, "-n", "10", "-f", "dot", "-o", "-", "--no-cache")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph G {"), out)
	assert.Contains(t, out, "n0 -- n19")
}

func TestRenderWritesFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "circuits")
	_, err := execute(t, "render", examplePath, "-n", "10", "-f", "dot", "-o", base+".dot", "--no-cache")
	require.NoError(t, err)

	data, err := os.ReadFile(base + ".dot")
	require.NoError(t, err)
	assert.Equal(t, 9, strings.Count(string(data), "penwidth=2"))
}

func TestRenderStdoutNeedsOneFormat(t *testing.T) {
	_, err := execute(t, "render", examplePath, "-f", "dot,svg", "-o", "-")
	assert.True(t, cerrors.Is(err, cerrors.ErrCodeInvalidInput), "got %v", err)
}

func TestRenderInvalidFormat(t *testing.T) {
	_, err := execute(t, "render", examplePath, "-f", "pdf")
	assert.True(t, cerrors.Is(err, cerrors.ErrCodeInvalidFormat), "got %v", err)
}

func TestCachePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CIRCUITRY_CACHE_DIR", dir)

	out, err := execute(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, dir+"\n", out)
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CIRCUITRY_CACHE_DIR", dir)

	_, err := execute(t, "solve", examplePath, "-n", "10", "-f", "json")
	require.NoError(t, err)
	_, err = execute(t, "cache", "clear")
	require.NoError(t, err)

	entries, err := filepath.Glob(filepath.Join(dir, "*", "*.json"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompletion(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "circuitry")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg, png,dot", []string{"svg", "png", "dot"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseFormats(tt.input), tt.input)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "data/input.txt", "data/input"},
		{"out.svg", "input.txt", "out"},
		{"out.png", "input.txt", "out"},
		{"out", "input.txt", "out"},
		{"out.v2", "input.txt", "out.v2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, basePath(tt.output, tt.input), "%q %q", tt.output, tt.input)
	}
}

func TestOutputPaths(t *testing.T) {
	assert.Equal(t, map[string]string{"svg": "my.graph"}, outputPaths("my.graph", "in.txt", []string{"svg"}))
	assert.Equal(t, map[string]string{"svg": "in.svg", "png": "in.png"}, outputPaths("", "in.txt", []string{"svg", "png"}))
	assert.Equal(t, map[string]string{"svg": "c.svg", "dot": "c.dot"}, outputPaths("c.svg", "in.txt", []string{"svg", "dot"}))
}
