// Package planner turns a configuration and an optional level override into
// the immutable Plan applied to every file of a batch.
package planner

import (
	"fmt"

	"blairpng/internal/config"
	"blairpng/internal/engine"
)

// MaxLevel is the most aggressive preset.
const MaxLevel = 6

// Plan is the fully resolved set of optimization parameters for one run. It
// is a plain value with no references, so it can be copied to and read by
// any number of workers without synchronization.
type Plan struct {
	Level         int
	Filters       engine.FilterSet
	Strip         engine.StripMode
	OptimizeAlpha bool
	FastEval      bool
	Recompress    bool
	Deflate       engine.Deflater
}

// Options converts the plan into engine options.
func (p Plan) Options() engine.Options {
	return engine.Options{
		Filters:       p.Filters,
		Strip:         p.Strip,
		OptimizeAlpha: p.OptimizeAlpha,
		FastEval:      p.FastEval,
		Recompress:    p.Recompress,
		Deflate:       p.Deflate,
	}
}

func (p Plan) String() string {
	return fmt.Sprintf("level=%d filters=[%s] strip=%s alpha=%t fast_eval=%t deflate=%s/%d",
		p.Level, p.Filters, p.Strip, p.OptimizeAlpha, p.FastEval, p.Deflate.Backend, p.Deflate.Level)
}

// Warning describes a configuration value that was dropped or adjusted.
type Warning struct {
	Field   string
	Value   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %q: %s", w.Field, w.Value, w.Message)
}

// Build resolves cfg into a Plan. levelOverride, when non-nil, replaces
// cfg.Level. The level preset decides filters, fast evaluation and deflate
// level unless cfg sets them. Build never fails: unknown filter names are
// dropped and an out-of-range deflate level resolves to 1; both are
// reported as warnings.
func Build(cfg config.Config, levelOverride *int) (Plan, []Warning) {
	var warnings []Warning

	level := cfg.Level
	if levelOverride != nil {
		level = *levelOverride
	}
	level = clampLevel(level)

	p := fromPreset(level)
	p.Level = level

	// Config values win over the preset; unset ones leave it alone.
	if cfg.StripMetadata {
		p.Strip = engine.StripSafe
	} else {
		p.Strip = engine.StripNone
	}
	p.OptimizeAlpha = cfg.OptimizeAlpha
	if cfg.FastEval != nil {
		p.FastEval = *cfg.FastEval
	}

	var filters engine.FilterSet
	for _, name := range cfg.Filters {
		f, ok := engine.ParseFilter(name)
		if !ok {
			warnings = append(warnings, Warning{Field: "filters", Value: name, Message: "unknown filter, skipping"})
			continue
		}
		filters = filters.With(f)
	}
	if filters.Len() > 0 {
		p.Filters = filters
	} else if len(cfg.Filters) > 0 {
		warnings = append(warnings, Warning{
			Field:   "filters",
			Value:   fmt.Sprint(cfg.Filters),
			Message: fmt.Sprintf("no known filters, using preset [%s]", p.Filters),
		})
	}

	backend := engine.BackendFast
	if cfg.Exhaustive() {
		backend = engine.BackendExhaustive
	}
	deflateLevel := p.Deflate.Level
	if cfg.DeflateLevel != nil {
		var w *Warning
		deflateLevel, w = resolveDeflateLevel(backend, *cfg.DeflateLevel)
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	p.Deflate = engine.Deflater{Backend: backend, Level: deflateLevel}

	return p, warnings
}

// resolveDeflateLevel applies one policy to both backends: anything outside
// 1..MaxLevel resolves to 1. Zero and negative values mean "unset" and are
// resolved silently.
func resolveDeflateLevel(b engine.Backend, level int) (int, *Warning) {
	if level >= 1 && level <= b.MaxLevel() {
		return level, nil
	}
	if level < 1 {
		return 1, nil
	}
	return 1, &Warning{
		Field:   "deflate_level",
		Value:   fmt.Sprint(level),
		Message: fmt.Sprintf("out of range 1-%d for the %s backend, using 1", b.MaxLevel(), b),
	}
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
