package processor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blairpng/internal/engine"
	"blairpng/internal/planner"
)

// Optimizer rewrites a PNG file. inPath and outPath may be the same file.
type Optimizer interface {
	Optimize(inPath, outPath string, opts engine.Options) error
}

// Processor runs the optimizer over files and reports per-file outcomes.
type Processor struct {
	engine Optimizer
	log    *zap.Logger

	verboseMu sync.Mutex
	verbose   io.Writer
}

// New returns a Processor. verbose may be nil to suppress per-file lines.
func New(eng Optimizer, log *zap.Logger, verbose io.Writer) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{engine: eng, log: log, verbose: verbose}
}

// Discover lists the direct children of dir with a .png extension, in any
// case. Subdirectories are not descended into.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryError{Dir: dir, Err: err}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if len(name) > len(ext) && strings.EqualFold(ext, ".png") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}

// OptimizeOne optimizes path in place. It never returns an error: failures
// are logged and reported as a StatusFailed outcome with the file untouched.
func (pr *Processor) OptimizeOne(path string, p planner.Plan) FileOutcome {
	out := FileOutcome{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return pr.fail(out, err)
	}
	out.Before = info.Size()
	out.After = out.Before

	if err := pr.optimize(path, p.Options()); err != nil {
		return pr.fail(out, err)
	}

	info, err = os.Stat(path)
	if err != nil {
		return pr.fail(out, err)
	}
	out.After = info.Size()

	switch {
	case out.After < out.Before:
		out.Status = StatusImproved
	case out.After > out.Before:
		out.Status = StatusEnlarged
	default:
		out.Status = StatusUnchanged
	}

	if out.After != out.Before {
		pr.printVerbose(out)
	}
	return out
}

func (pr *Processor) optimize(path string, opts engine.Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("optimizer panic: %v", r)
		}
	}()
	return pr.engine.Optimize(path, path, opts)
}

func (pr *Processor) fail(out FileOutcome, err error) FileOutcome {
	pr.log.Warn("error optimizing file", zap.String("path", out.Path), zap.Error(err))
	out.After = out.Before
	out.Status = StatusFailed
	out.Err = err
	return out
}

func (pr *Processor) printVerbose(o FileOutcome) {
	if pr.verbose == nil {
		return
	}
	pr.verboseMu.Lock()
	defer pr.verboseMu.Unlock()
	fmt.Fprintf(pr.verbose, " %s optimized to %+.1f%% (%+d bytes)\n",
		filepath.Base(o.Path), o.ReductionPct(), o.Reduction())
}

// RunBatch optimizes every path with workers goroutines and returns exactly
// one outcome per path, at the same index. workers <= 0 means one per CPU.
// p is copied to each worker and must not be modified while the batch runs.
// sink may be nil.
func (pr *Processor) RunBatch(paths []string, p planner.Plan, workers int, sink ProgressSink) []FileOutcome {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]FileOutcome, len(paths))
	jobs := make(chan int)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for idx := range jobs {
				res := pr.OptimizeOne(paths[idx], p)
				results[idx] = res
				if sink != nil {
					sink.Increment(res)
				}
			}
			return nil
		})
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	_ = g.Wait()

	return results
}

// Summarize reduces outcomes into a Summary.
func Summarize(outcomes []FileOutcome, elapsed time.Duration) Summary {
	s := Summary{Files: len(outcomes), Elapsed: elapsed}
	for _, o := range outcomes {
		s.Before += o.Before
		s.After += o.After
		if o.Status == StatusFailed {
			s.Failed++
		}
	}
	return s
}
