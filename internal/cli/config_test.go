package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/circuitry/pkg/cache"
	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "circuitry.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newViper())
	require.NoError(t, err)

	assert.Equal(t, pipeline.DefaultConnections, cfg.Connections)
	assert.Equal(t, pipeline.BudgetPairs, cfg.Budget)
	assert.Equal(t, "x", cfg.Axis)
	assert.Equal(t, "unionfind", cfg.Tracker)
	assert.Equal(t, backendFile, cfg.Cache.Backend)
	assert.Equal(t, cache.ResultTTL, cfg.Cache.TTL)
	assert.Equal(t, cache.DefaultRedisPrefix, cfg.Cache.Prefix)
}

func TestConfigFile(t *testing.T) {
	path := writeConfig(t, `
connections = 10
axis = "y"
budget = "joins"

[cache]
backend = "none"
ttl = "1h"
`)
	v := newViper()
	require.NoError(t, readConfigFile(v, path))
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Connections)
	assert.Equal(t, "y", cfg.Axis)
	assert.Equal(t, pipeline.BudgetJoins, cfg.Budget)
	assert.Equal(t, backendNone, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestConfigFileMissing(t *testing.T) {
	err := readConfigFile(newViper(), filepath.Join(t.TempDir(), "nope.toml"))
	assert.True(t, cerrors.Is(err, cerrors.ErrCodeInvalidConfig), "got %v", err)
}

func TestConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "connections = 10\n")
	t.Setenv("CIRCUITRY_CONNECTIONS", "25")
	t.Setenv("CIRCUITRY_CACHE_BACKEND", "none")

	v := newViper()
	require.NoError(t, readConfigFile(v, path))
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Connections)
	assert.Equal(t, backendNone, cfg.Cache.Backend)
}

func TestConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("CIRCUITRY_CONNECTIONS", "25")

	cmd := &cobra.Command{Use: "test"}
	addSolveFlags(cmd)
	var noCache, refresh bool
	addCacheFlags(cmd, &noCache, &refresh)
	require.NoError(t, cmd.ParseFlags([]string{"-n", "7", "--cache-backend", "none"}))

	v := newViper()
	require.NoError(t, bindFlags(v, cmd, solveFlagNames...))
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Connections)
	assert.Equal(t, backendNone, cfg.Cache.Backend)
	assert.Equal(t, pipeline.BudgetPairs, cfg.Budget, "unset flags keep the default")
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
	}{
		{"unknown backend", map[string]any{"cache.backend": "memcached"}},
		{"redis without addr", map[string]any{"cache.backend": "redis", "cache.redis_addr": ""}},
		{"redis bad addr", map[string]any{"cache.backend": "redis", "cache.redis_addr": "localhost"}},
		{"bad prefix", map[string]any{"cache.prefix": "has space"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := loadConfig(v)
			require.Error(t, err)
			assert.True(t, cerrors.Is(err, cerrors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestConfigKey(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addSolveFlags(cmd)
	var noCache, refresh bool
	addCacheFlags(cmd, &noCache, &refresh)

	tests := map[string]string{
		"connections":   "connections",
		"budget":        "budget",
		"cache-backend": "cache.backend",
		"redis-addr":    "cache.redis_addr",
		"no-cache":      "no_cache",
	}
	for flag, want := range tests {
		assert.Equal(t, want, configKey(cmd.Flags().Lookup(flag)), flag)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Config{Connections: 10, Budget: "joins", Axis: "z", Tracker: "adjacency", Layout: "fdp"}
	opts := cfg.pipelineOptions("in.txt")

	assert.Equal(t, "in.txt", opts.Input)
	assert.Equal(t, 10, opts.Connections)
	assert.Equal(t, pipeline.BudgetJoins, opts.Budget)
	assert.EqualValues(t, "z", opts.Axis)
	assert.EqualValues(t, "adjacency", opts.Tracker)
	assert.Equal(t, "fdp", opts.Layout)
}
