// Package config holds the optimizer configuration: defaults, loading from a
// TOML file with environment overrides, and example-file generation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "blair.toml"

// EnvPrefix prefixes environment overrides, e.g. BLAIR_LEVEL=3.
const EnvPrefix = "BLAIR"

// Deflater names accepted in the config file.
const (
	DeflaterLibdeflater = "libdeflater"
	DeflaterZopfli      = "zopfli"
)

var ErrExists = errors.New("config file already exists")

// Config is created once at startup and never mutated afterwards.
//
// FastEval, Filters and DeflateLevel are nil unless the file or the
// environment sets them; the level preset supplies them otherwise.
type Config struct {
	Level         int      `mapstructure:"level"`
	StripMetadata bool     `mapstructure:"strip_metadata"`
	OptimizeAlpha bool     `mapstructure:"optimize_alpha"`
	FastEval      *bool    `mapstructure:"fast_eval"`
	Filters       []string `mapstructure:"filters"`
	// Deflater is "libdeflater" for the fast single-pass backend (levels
	// 1-12) or "zopfli" for the exhaustive backend (1-255 trials).
	Deflater     string `mapstructure:"deflater"`
	DeflateLevel *int   `mapstructure:"deflate_level"`
}

func Default() Config {
	return Config{
		Level:         6,
		StripMetadata: true,
		OptimizeAlpha: true,
		Deflater:      DeflaterLibdeflater,
	}
}

// Exhaustive reports whether the deflater names the exhaustive backend.
// Unrecognised names select the fast backend.
func (c Config) Exhaustive() bool {
	switch strings.ToLower(strings.TrimSpace(c.Deflater)) {
	case DeflaterZopfli, "exhaustive":
		return true
	default:
		return false
	}
}

// Load reads the config at path. An empty path means DefaultFile, which may
// be absent, in which case defaults (plus environment overrides) are used. A
// path given explicitly must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	v := viper.New()
	def := Default()
	v.SetDefault("level", def.Level)
	v.SetDefault("strip_metadata", def.StripMetadata)
	v.SetDefault("optimize_alpha", def.OptimizeAlpha)
	v.SetDefault("deflater", def.Deflater)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Keys without a default are only seen in the environment when bound.
	for _, key := range []string{"fast_eval", "filters", "deflate_level"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		v.SetConfigFile(path)
		if !slices.Contains(viper.SupportedExts, strings.TrimPrefix(filepath.Ext(path), ".")) {
			v.SetConfigType("toml")
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config parsing failed: %s: %w", path, err)
		}
	case explicit || !errors.Is(statErr, os.ErrNotExist):
		return Config{}, fmt.Errorf("couldn't read config file: %w", statErr)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config parsing failed: %s: %w", path, err)
	}
	return cfg, nil
}

const example = `# blairpng example config
# These defaults are the best lossless settings; tune them if you like.
#
# level (0-6) picks a preset for filters, fast_eval and deflate_level.
# Uncomment those keys to pin them regardless of the level.
#
# deflater = "libdeflater" is the fast backend, deflate_level 1-12.
# deflater = "zopfli" tries many encoder settings, deflate_level is the
# number of trials (1-255); gains flatten out after about 10.

level = 6
strip_metadata = true
optimize_alpha = true
deflater = "libdeflater"
# fast_eval = false
# filters = ["none", "sub", "up", "average", "paeth", "minsum", "entropy", "bigrams", "bigent", "brute"]
# deflate_level = 12
`

// WriteExample creates DefaultFile in dir and returns its path. It fails
// with ErrExists if the file is already there.
func WriteExample(dir string) (string, error) {
	path := filepath.Join(dir, DefaultFile)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
		return "", err
	}
	if _, err := f.WriteString(example); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
