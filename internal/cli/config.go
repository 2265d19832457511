package cli

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/circuitry/pkg/cache"
	"github.com/matzehuels/circuitry/pkg/circuit"
	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/pipeline"
)

// Cache backends selectable with cache.backend.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// CacheConfig holds the [cache] table of the config file.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	TTL           time.Duration `mapstructure:"ttl"`
	Prefix        string        `mapstructure:"prefix"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// Config holds all runtime configuration for a circuitry run.
// Values are populated from .circuitry.toml, CIRCUITRY_* env vars, and CLI flags.
type Config struct {
	Connections int         `mapstructure:"connections"`
	Budget      string      `mapstructure:"budget"`
	Axis        string      `mapstructure:"axis"`
	Tracker     string      `mapstructure:"tracker"`
	Layout      string      `mapstructure:"layout"`
	Cache       CacheConfig `mapstructure:"cache"`
}

// newViper creates a viper instance with built-in defaults and environment
// binding. Nested keys map to env vars with underscores, so cache.backend is
// CIRCUITRY_CACHE_BACKEND.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("connections", pipeline.DefaultConnections)
	v.SetDefault("budget", pipeline.DefaultBudget)
	v.SetDefault("axis", string(pipeline.DefaultAxis))
	v.SetDefault("tracker", string(pipeline.DefaultTracker))
	v.SetDefault("layout", pipeline.DefaultLayout)
	v.SetDefault("cache.backend", backendFile)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", cache.ResultTTL)
	v.SetDefault("cache.prefix", cache.DefaultRedisPrefix)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetEnvPrefix("CIRCUITRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readConfigFile loads path, or .circuitry.toml from the working directory
// or home directory when path is empty. A missing default file is not an
// error; a missing explicit file is.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".circuitry")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || (path == "" && errors.As(err, &notFound)) {
		return nil
	}
	return cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "read config")
}

// bindFlags makes the named flags of cmd override the config keys of the
// same name. Flags with dashes bind to keys with underscores.
func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(configKey(f), f); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInternal, err, "bind flag --%s", name)
		}
	}
	return nil
}

func configKey(f *pflag.Flag) string {
	switch f.Name {
	case "redis-addr":
		return "cache.redis_addr"
	case "cache-backend":
		return "cache.backend"
	}
	return strings.ReplaceAll(f.Name, "-", "_")
}

// loadConfig decodes v into a Config and validates the cache section.
func loadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "decode config")
	}

	switch cfg.Cache.Backend {
	case backendFile, backendNone:
	case backendRedis:
		if err := cerrors.ValidateRedisAddr(cfg.Cache.RedisAddr); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, cerrors.New(cerrors.ErrCodeInvalidConfig,
			"invalid cache.backend: %q (must be one of: file, redis, none)", cfg.Cache.Backend)
	}
	if err := cerrors.ValidateCachePrefix(cfg.Cache.Prefix); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// pipelineOptions converts configuration to pipeline options for input.
func (cfg Config) pipelineOptions(input string) pipeline.Options {
	return pipeline.Options{
		Input:       input,
		Connections: cfg.Connections,
		Budget:      cfg.Budget,
		Axis:        circuit.Axis(cfg.Axis),
		Tracker:     circuit.TrackerKind(cfg.Tracker),
		Layout:      cfg.Layout,
	}
}
