package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, `
level = 3
strip_metadata = false
filters = ["paeth", "brute"]
deflater = "zopfli"
deflate_level = 15
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Level)
	assert.False(t, cfg.StripMetadata)
	assert.True(t, cfg.OptimizeAlpha, "unset keys keep their defaults")
	assert.Equal(t, []string{"paeth", "brute"}, cfg.Filters)
	assert.True(t, cfg.Exhaustive())
	require.NotNil(t, cfg.DeflateLevel)
	assert.Equal(t, 15, *cfg.DeflateLevel)
	assert.Nil(t, cfg.FastEval, "unset preset keys stay nil")
}

func TestLoad_PresetKeysUnsetByDefault(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg.FastEval)
	assert.Nil(t, cfg.Filters)
	assert.Nil(t, cfg.DeflateLevel)
}

func TestLoad_ExplicitZeroDeflateLevelIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blair.toml")
	writeFile(t, path, "deflate_level = 0\nfast_eval = false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.DeflateLevel)
	assert.Equal(t, 0, *cfg.DeflateLevel)
	require.NotNil(t, cfg.FastEval)
	assert.False(t, *cfg.FastEval)
}

func TestLoad_ParseFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid toml", "level = = 3\n"},
		{"wrong type", "level = \"max\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "blair.toml")
			writeFile(t, path, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BLAIR_LEVEL", "2")
	t.Setenv("BLAIR_FAST_EVAL", "true")
	t.Setenv("BLAIR_DEFLATE_LEVEL", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Level)
	require.NotNil(t, cfg.FastEval)
	assert.True(t, *cfg.FastEval)
	require.NotNil(t, cfg.DeflateLevel)
	assert.Equal(t, 7, *cfg.DeflateLevel)
}

func TestWriteExample(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteExample(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFile), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = WriteExample(dir)
	assert.ErrorIs(t, err, ErrExists)
}

func TestExhaustive(t *testing.T) {
	tests := []struct {
		deflater string
		want     bool
	}{
		{"zopfli", true},
		{"Zopfli", true},
		{"exhaustive", true},
		{"libdeflater", false},
		{"libdeflate", false},
		{"", false},
		{"gzip", false},
	}
	for _, tt := range tests {
		t.Run(tt.deflater, func(t *testing.T) {
			assert.Equal(t, tt.want, Config{Deflater: tt.deflater}.Exhaustive())
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
