package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/klauspost/compress/flate"
)

// unfilter reverses per-row filtering in place and returns the raw rows.
// stream holds height rows of 1 filter byte + rowBytes.
func unfilter(stream []byte, h header) ([][]byte, error) {
	rowBytes := h.rowBytes()
	bpp := h.bpp()
	rows := make([][]byte, h.height)
	prev := make([]byte, rowBytes)
	for y := range rows {
		line := stream[y*(rowBytes+1) : (y+1)*(rowBytes+1)]
		ft, cur := line[0], line[1:]
		switch ft {
		case 0:
		case 1:
			for i := bpp; i < rowBytes; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2:
			for i := range cur {
				cur[i] += prev[i]
			}
		case 3:
			for i := range cur {
				var a byte
				if i >= bpp {
					a = cur[i-bpp]
				}
				cur[i] += byte((int(a) + int(prev[i])) / 2)
			}
		case 4:
			for i := range cur {
				var a, c byte
				if i >= bpp {
					a, c = cur[i-bpp], prev[i-bpp]
				}
				cur[i] += paeth(a, prev[i], c)
			}
		default:
			return nil, fmt.Errorf("%w: unknown filter type %d in row %d", ErrCorrupt, ft, y)
		}
		rows[y] = cur
		prev = cur
	}
	return rows, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// filterRow writes cur filtered with PNG filter type ft into dst.
func filterRow(dst []byte, ft byte, cur, prev []byte, bpp int) {
	switch ft {
	case 0:
		copy(dst, cur)
	case 1:
		for i := range cur {
			var a byte
			if i >= bpp {
				a = cur[i-bpp]
			}
			dst[i] = cur[i] - a
		}
	case 2:
		for i := range cur {
			dst[i] = cur[i] - prev[i]
		}
	case 3:
		for i := range cur {
			var a byte
			if i >= bpp {
				a = cur[i-bpp]
			}
			dst[i] = cur[i] - byte((int(a)+int(prev[i]))/2)
		}
	case 4:
		for i := range cur {
			var a, c byte
			if i >= bpp {
				a, c = cur[i-bpp], prev[i-bpp]
			}
			dst[i] = cur[i] - paeth(a, prev[i], c)
		}
	}
}

// rowScorer rates a filtered row; lower is better.
type rowScorer func(filtered, prevFiltered []byte) float64

// applyFilter produces a complete filtered stream for the given strategy.
func applyFilter(rows [][]byte, h header, f Filter) []byte {
	rowBytes := h.rowBytes()
	bpp := h.bpp()
	out := make([]byte, len(rows)*(rowBytes+1))
	zero := make([]byte, rowBytes)

	if f <= FilterPaeth {
		prev := zero
		for y, cur := range rows {
			line := out[y*(rowBytes+1) : (y+1)*(rowBytes+1)]
			line[0] = byte(f)
			filterRow(line[1:], byte(f), cur, prev, bpp)
			prev = cur
		}
		return out
	}

	score := scorerFor(f)
	var candidates [5][]byte
	for i := range candidates {
		candidates[i] = make([]byte, rowBytes)
	}
	prev, prevFiltered := zero, zero
	for y, cur := range rows {
		best, bestScore := 0, math.Inf(1)
		for ft := range candidates {
			filterRow(candidates[ft], byte(ft), cur, prev, bpp)
			if s := score(candidates[ft], prevFiltered); s < bestScore {
				best, bestScore = ft, s
			}
		}
		line := out[y*(rowBytes+1) : (y+1)*(rowBytes+1)]
		line[0] = byte(best)
		copy(line[1:], candidates[best])
		prev, prevFiltered = cur, line[1:]
	}
	return out
}

func scorerFor(f Filter) rowScorer {
	switch f {
	case FilterEntropy:
		return entropyScore
	case FilterBigrams:
		return newBigramScorer().distinct
	case FilterBigEnt:
		return bigramEntropyScore
	case FilterBrute:
		return newBruteScorer().compressedSize
	default:
		return minSumScore
	}
}

func minSumScore(row, _ []byte) float64 {
	sum := 0
	for _, b := range row {
		sum += abs(int(int8(b)))
	}
	return float64(sum)
}

func entropyScore(row, _ []byte) float64 {
	var counts [256]int
	for _, b := range row {
		counts[b]++
	}
	return shannon(counts[:], len(row))
}

func shannon(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	total := float64(n)
	e := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		e -= p * math.Log2(p)
	}
	return e * total
}

type bigramScorer struct {
	seen    []uint64
	touched []int
}

func newBigramScorer() *bigramScorer {
	return &bigramScorer{seen: make([]uint64, 1<<16/64)}
}

func (s *bigramScorer) distinct(row, _ []byte) float64 {
	count := 0
	for i := 1; i < len(row); i++ {
		bg := int(row[i-1])<<8 | int(row[i])
		word, bit := bg/64, uint64(1)<<(bg%64)
		if s.seen[word]&bit == 0 {
			if s.seen[word] == 0 {
				s.touched = append(s.touched, word)
			}
			s.seen[word] |= bit
			count++
		}
	}
	for _, w := range s.touched {
		s.seen[w] = 0
	}
	s.touched = s.touched[:0]
	return float64(count)
}

func bigramEntropyScore(row, _ []byte) float64 {
	if len(row) < 2 {
		return 0
	}
	counts := make(map[uint16]int, len(row))
	for i := 1; i < len(row); i++ {
		counts[uint16(row[i-1])<<8|uint16(row[i])]++
	}
	flat := make([]int, 0, len(counts))
	for _, c := range counts {
		flat = append(flat, c)
	}
	sort.Ints(flat)
	return shannon(flat, len(row)-1)
}

// bruteScorer compresses the previous and candidate rows together and uses
// the output size as the score.
type bruteScorer struct {
	w   *flate.Writer
	out countingWriter
}

type countingWriter struct{ n int }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}

func newBruteScorer() *bruteScorer {
	s := &bruteScorer{}
	w, err := flate.NewWriter(&s.out, flate.BestSpeed)
	if err != nil {
		// NewWriter only rejects invalid levels.
		panic(fmt.Sprintf("brute scorer: %v", err))
	}
	s.w = w
	return s
}

// compressedSize scores a row by its compressed size after the previous
// row. A failed encode scores +Inf so the candidate never wins.
func (s *bruteScorer) compressedSize(row, prevFiltered []byte) float64 {
	s.out.n = 0
	s.w.Reset(&s.out)
	if _, err := s.w.Write(prevFiltered); err != nil {
		return math.Inf(1)
	}
	if _, err := s.w.Write(row); err != nil {
		return math.Inf(1)
	}
	if err := s.w.Close(); err != nil {
		return math.Inf(1)
	}
	return float64(s.out.n)
}
