package engine

import (
	"bytes"
	stdzlib "compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// compress encodes data as a zlib stream using the configured backend.
func compress(data []byte, d Deflater) ([]byte, error) {
	if d.Backend == BackendExhaustive {
		return compressExhaustive(data, d.Level)
	}
	return compressFast(data, d.Level)
}

// compressFast maps levels 1-12 onto the encoder's 1-9 range.
func compressFast(data []byte, level int) ([]byte, error) {
	switch {
	case level < zlib.BestSpeed:
		level = zlib.BestSpeed
	case level > zlib.BestCompression:
		level = zlib.BestCompression
	}
	return zlibEncode(data, func(w io.Writer) (io.WriteCloser, error) {
		return zlib.NewWriterLevel(w, level)
	})
}

type encoderFunc func(w io.Writer) (io.WriteCloser, error)

// trialLadder is walked in order by the exhaustive backend. The two encoder
// implementations use different match finders and often disagree on which
// settings produce the smallest stream for a given image.
var trialLadder = buildTrialLadder()

func buildTrialLadder() []encoderFunc {
	var ladder []encoderFunc
	for level := zlib.BestCompression; level >= zlib.BestSpeed; level-- {
		l := level
		ladder = append(ladder,
			func(w io.Writer) (io.WriteCloser, error) { return zlib.NewWriterLevel(w, l) },
			func(w io.Writer) (io.WriteCloser, error) { return stdzlib.NewWriterLevel(w, l) },
		)
	}
	ladder = append(ladder,
		func(w io.Writer) (io.WriteCloser, error) { return zlib.NewWriterLevel(w, zlib.HuffmanOnly) },
		func(w io.Writer) (io.WriteCloser, error) { return stdzlib.NewWriterLevel(w, stdzlib.HuffmanOnly) },
	)
	return ladder
}

func compressExhaustive(data []byte, iterations int) ([]byte, error) {
	if iterations < 1 {
		iterations = 1
	}
	if iterations > len(trialLadder) {
		iterations = len(trialLadder)
	}
	var best []byte
	for _, enc := range trialLadder[:iterations] {
		out, err := zlibEncode(data, enc)
		if err != nil {
			return nil, err
		}
		if best == nil || len(out) < len(best) {
			best = out
		}
	}
	return best, nil
}

func zlibEncode(data []byte, newEncoder encoderFunc) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := newEncoder(&buf)
	if err != nil {
		return nil, fmt.Errorf("create zlib writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("write zlib data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zlib writer: %w", err)
	}
	return buf.Bytes(), nil
}

// inflate decodes a zlib stream and requires exactly want bytes of output.
func inflate(stream []byte, want int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	out := make([]byte, want)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("%w: image data: %v", ErrCorrupt, err)
	}
	return out, nil
}

// inflateAll decodes a zlib stream of unknown length, bounded by limit.
func inflateAll(stream []byte, limit int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: image data: %v", ErrCorrupt, err)
	}
	return out, nil
}
