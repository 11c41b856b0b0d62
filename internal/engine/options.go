// Package engine rewrites PNG files into smaller, pixel-identical encodings.
//
// The engine walks the chunk stream, drops metadata according to a strip
// policy, re-filters scanlines with a set of candidate strategies and
// recompresses the image data with one of two deflate backends. Output is
// only written when it is strictly smaller than the input.
package engine

import (
	"math/bits"
	"strings"
)

// Filter is a scanline filtering strategy. The first five map directly onto
// the PNG filter types; the rest pick a filter per row using a heuristic.
type Filter uint8

const (
	FilterNone Filter = iota
	FilterSub
	FilterUp
	FilterAverage
	FilterPaeth
	FilterMinSum
	FilterEntropy
	FilterBigrams
	FilterBigEnt
	FilterBrute
	filterCount
)

var filterNames = [filterCount]string{
	"none", "sub", "up", "average", "paeth",
	"minsum", "entropy", "bigrams", "bigent", "brute",
}

func (f Filter) String() string {
	if f < filterCount {
		return filterNames[f]
	}
	return "unknown"
}

// ParseFilter resolves a case-insensitive filter name.
func ParseFilter(name string) (Filter, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range filterNames {
		if n == lower {
			return Filter(i), true
		}
	}
	return 0, false
}

// FilterSet is an immutable set of filter strategies.
type FilterSet uint16

func NewFilterSet(filters ...Filter) FilterSet {
	var s FilterSet
	for _, f := range filters {
		s = s.With(f)
	}
	return s
}

func (s FilterSet) With(f Filter) FilterSet {
	if f >= filterCount {
		return s
	}
	return s | 1<<f
}

func (s FilterSet) Has(f Filter) bool {
	return f < filterCount && s&(1<<f) != 0
}

func (s FilterSet) Len() int {
	return bits.OnesCount16(uint16(s))
}

// Filters returns the members in ascending order.
func (s FilterSet) Filters() []Filter {
	out := make([]Filter, 0, s.Len())
	for f := Filter(0); f < filterCount; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FilterSet) String() string {
	names := make([]string, 0, s.Len())
	for _, f := range s.Filters() {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}

// StripMode controls which ancillary chunks survive.
type StripMode int

const (
	// StripNone keeps every chunk.
	StripNone StripMode = iota
	// StripSafe drops chunks that do not affect how the image renders.
	StripSafe
)

func (m StripMode) String() string {
	if m == StripSafe {
		return "safe"
	}
	return "none"
}

// Backend selects the deflate implementation used for image data.
type Backend int

const (
	// BackendFast is a single-pass zlib encoder; levels 1 to 12.
	BackendFast Backend = iota
	// BackendExhaustive tries a ladder of encoder settings and keeps the
	// smallest stream; the level is the number of trials, 1 to 255.
	BackendExhaustive
)

func (b Backend) String() string {
	if b == BackendExhaustive {
		return "exhaustive"
	}
	return "fast"
}

// MaxLevel is the highest level the backend accepts.
func (b Backend) MaxLevel() int {
	if b == BackendExhaustive {
		return 255
	}
	return 12
}

// Deflater is a backend together with its resolved level.
type Deflater struct {
	Backend Backend
	Level   int
}

// Options configures a single optimization.
type Options struct {
	Filters       FilterSet
	Strip         StripMode
	OptimizeAlpha bool
	FastEval      bool
	// Recompress false leaves the image data untouched and only applies the
	// strip policy.
	Recompress bool
	Deflate    Deflater
}
