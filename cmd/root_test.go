package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blairpng/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeRawPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 5), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestInitTwice(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	out, err := execute(t, "--init", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, config.DefaultFile)
	assert.FileExists(t, filepath.Join(dir, config.DefaultFile))

	_, err = execute(t, "--init", "-q")
	assert.ErrorIs(t, err, config.ErrExists)
}

func TestEmptyDirectory(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()

	out, err := execute(t, "-q", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No .png files found in "+dir)
}

func TestMissingDirectory(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := execute(t, "-q", filepath.Join(t.TempDir(), "gone"))
	assert.ErrorContains(t, err, "directory does not exist")
}

func TestLevelOutOfRange(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := execute(t, "-q", "--level", "9", t.TempDir())
	assert.ErrorContains(t, err, "--level must be between 0 and 6")
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(config.DefaultFile, []byte("level = [oops"), 0o644))

	_, err := execute(t, "-q", t.TempDir())
	assert.ErrorContains(t, err, "config parsing failed")
}

func TestOptimizeDirectory(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	writeRawPNG(t, filepath.Join(dir, "a.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))
	metricsPath := filepath.Join(t.TempDir(), "blairpng.prom")

	out, err := execute(t, "-q", "-l", "2", "-j", "2", "--metrics-file", metricsPath, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Optimized 2 files in")
	assert.Contains(t, out, "Original size")
	assert.Contains(t, out, "Failed")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `blairpng_files_total{status="improved"} 1`)
	assert.Contains(t, string(prom), `blairpng_files_total{status="failed"} 1`)
}

func TestVerboseKeepsProgressAndPrintsLinesAfter(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	writeRawPNG(t, filepath.Join(dir, "a.png"))

	out, err := execute(t, "-v", "-l", "1", dir)
	require.NoError(t, err)

	line := strings.Index(out, "a.png optimized to +")
	headline := strings.Index(out, "✓ Optimized 1 files in")
	require.NotEqual(t, -1, line, out)
	require.NotEqual(t, -1, headline, out)
	assert.Less(t, line, headline)
}
