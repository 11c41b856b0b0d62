package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Engine optimizes PNG files on disk. The zero value is ready to use and
// safe for concurrent use.
type Engine struct{}

// Optimize reads inPath and writes an optimized encoding to outPath. When
// inPath and outPath are the same file it is only rewritten if the result is
// strictly smaller; otherwise it is left untouched.
func (Engine) Optimize(inPath, outPath string, opts Options) error {
	src, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	out, err := OptimizeBytes(src, opts)
	if err != nil {
		return err
	}

	same := filepath.Clean(inPath) == filepath.Clean(outPath)
	if len(out) >= len(src) {
		if same {
			return nil
		}
		out = src
	}

	info, err := os.Stat(inPath)
	if err != nil {
		return err
	}
	return writeFile(outPath, out, info.Mode().Perm())
}

// OptimizeBytes returns the optimized encoding of a PNG file. The result may
// be larger than src when nothing could be saved; callers compare sizes.
func OptimizeBytes(src []byte, opts Options) ([]byte, error) {
	chunks, err := readChunks(src)
	if err != nil {
		return nil, err
	}
	h, err := parseHeader(chunks[0])
	if err != nil {
		return nil, err
	}

	var idat bytes.Buffer
	for _, c := range chunks {
		if c.name == "IDAT" {
			idat.Write(c.data)
		}
	}
	if idat.Len() == 0 {
		return nil, fmt.Errorf("%w: no IDAT chunk", ErrCorrupt)
	}

	stream := idat.Bytes()
	if opts.Recompress {
		recompressed, err := recompress(stream, h, opts)
		if err != nil {
			return nil, err
		}
		if len(recompressed) < len(stream) {
			stream = recompressed
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(src))
	buf.Write(pngSignature)
	wroteIDAT := false
	for _, c := range chunks {
		if c.name == "IDAT" {
			if wroteIDAT {
				continue
			}
			wroteIDAT = true
			if err := writeIDAT(&buf, stream); err != nil {
				return nil, err
			}
			continue
		}
		if !keepChunk(c, opts.Strip) {
			continue
		}
		if err := writeChunk(&buf, c.name, c.data); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// recompress decodes the image data and encodes it again, trying every
// filter strategy in opts.
func recompress(stream []byte, h header, opts Options) ([]byte, error) {
	if h.interlace != 0 {
		raw, err := inflateAll(stream, maxRawSize)
		if err != nil {
			return nil, err
		}
		return compress(raw, opts.Deflate)
	}

	size, err := h.rawSize()
	if err != nil {
		return nil, err
	}
	filtered, err := inflate(stream, size)
	if err != nil {
		return nil, err
	}
	rows, err := unfilter(filtered, h)
	if err != nil {
		return nil, err
	}
	if opts.OptimizeAlpha {
		clearTransparent(rows, h)
	}

	strategies := opts.Filters.Filters()
	if len(strategies) == 0 {
		strategies = []Filter{FilterNone}
	}

	if opts.FastEval && len(strategies) > 1 {
		var best []byte
		bestSize := -1
		for _, f := range strategies {
			candidate := applyFilter(rows, h, f)
			trial, err := compressFast(candidate, 1)
			if err != nil {
				return nil, err
			}
			if bestSize < 0 || len(trial) < bestSize {
				best, bestSize = candidate, len(trial)
			}
		}
		return compress(best, opts.Deflate)
	}

	var best []byte
	for _, f := range strategies {
		out, err := compress(applyFilter(rows, h, f), opts.Deflate)
		if err != nil {
			return nil, err
		}
		if best == nil || len(out) < len(best) {
			best = out
		}
	}
	return best, nil
}

// clearTransparent zeroes the color samples of fully transparent pixels so
// they compress better. The rendered image is unchanged.
func clearTransparent(rows [][]byte, h header) {
	if h.colorType != 4 && h.colorType != 6 {
		return
	}
	sample := int(h.bitDepth) / 8
	pixel := h.channels() * sample
	colorBytes := pixel - sample
	for _, row := range rows {
		for p := 0; p+pixel <= len(row); p += pixel {
			transparent := true
			for _, b := range row[p+colorBytes : p+pixel] {
				if b != 0 {
					transparent = false
					break
				}
			}
			if transparent {
				clear(row[p : p+colorBytes])
			}
		}
	}
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".blairpng-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return replaceFile(tmp.Name(), path)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
