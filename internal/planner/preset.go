package planner

import "blairpng/internal/engine"

var basicFilters = engine.NewFilterSet(
	engine.FilterNone,
	engine.FilterSub,
	engine.FilterUp,
	engine.FilterAverage,
	engine.FilterPaeth,
)

// fromPreset returns the base plan for a level in 0..MaxLevel. Higher levels
// try more filter strategies and compress harder.
func fromPreset(level int) Plan {
	p := Plan{
		Filters:    engine.NewFilterSet(engine.FilterNone),
		Recompress: true,
		FastEval:   true,
		Deflate:    engine.Deflater{Backend: engine.BackendFast, Level: 12},
	}
	switch level {
	case 0:
		// Level 0 only strips chunks; image data is left as is.
		p.Recompress = false
		p.Deflate.Level = 5
	case 1:
		p.Deflate.Level = 6
	case 2:
		p.Filters = basicFilters
		p.Deflate.Level = 9
	case 3:
		p.Filters = basicFilters.With(engine.FilterMinSum)
		p.FastEval = false
		p.Deflate.Level = 11
	case 4:
		p.Filters = basicFilters.With(engine.FilterMinSum).With(engine.FilterEntropy).With(engine.FilterBigrams)
		p.FastEval = false
	case 5:
		p.Filters = basicFilters.With(engine.FilterMinSum).With(engine.FilterEntropy).With(engine.FilterBigrams).
			With(engine.FilterBigEnt)
		p.FastEval = false
	default:
		p.Filters = basicFilters.With(engine.FilterMinSum).With(engine.FilterEntropy).With(engine.FilterBigrams).
			With(engine.FilterBigEnt).With(engine.FilterBrute)
		p.FastEval = false
	}
	return p
}
