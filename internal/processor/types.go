package processor

import (
	"fmt"
	"time"
)

// Status classifies a FileOutcome.
type Status int

const (
	StatusUnchanged Status = iota
	StatusImproved
	// StatusEnlarged means the engine succeeded but the file grew.
	StatusEnlarged
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusImproved:
		return "improved"
	case StatusEnlarged:
		return "enlarged"
	case StatusFailed:
		return "failed"
	default:
		return "unchanged"
	}
}

// FileOutcome is the result of optimizing one file. When Status is
// StatusFailed, After equals Before and Err holds the reason.
type FileOutcome struct {
	Path   string
	Before int64
	After  int64
	Status Status
	Err    error
}

func (o FileOutcome) Reduction() int64 {
	return o.Before - o.After
}

func (o FileOutcome) ReductionPct() float64 {
	return percent(o.Reduction(), o.Before)
}

// Summary aggregates the outcomes of a batch.
type Summary struct {
	Files   int
	Failed  int
	Before  int64
	After   int64
	Elapsed time.Duration
}

// Reduction is negative when the batch grew overall.
func (s Summary) Reduction() int64 {
	return s.Before - s.After
}

// ReductionPct is 0 for an empty batch.
func (s Summary) ReductionPct() float64 {
	return percent(s.Reduction(), s.Before)
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// DirectoryError reports a directory that could not be listed.
type DirectoryError struct {
	Dir string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("cannot list directory %s: %v", e.Dir, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// ProgressUpdate carries counter deltas to a progress display.
type ProgressUpdate struct {
	TotalDelta      int
	ProcessedDelta  int
	ErrorDelta      int
	BytesSavedDelta int64
}

// ProgressSink receives one Increment per completed file. Implementations
// must accept concurrent calls from every worker.
type ProgressSink interface {
	Increment(FileOutcome)
}

// UpdateSink forwards completed files to a ProgressUpdate channel.
type UpdateSink chan<- ProgressUpdate

func (s UpdateSink) Increment(o FileOutcome) {
	u := ProgressUpdate{ProcessedDelta: 1, BytesSavedDelta: o.Reduction()}
	if o.Status == StatusFailed {
		u.ErrorDelta = 1
	}
	s <- u
}
