package tui

import (
	"bytes"
	"testing"
	"time"

	"blairpng/internal/processor"
)

func finishWithin(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("did not finish within %s", d)
	}
}

func TestProgress_StartSinkFinish(t *testing.T) {
	var buf bytes.Buffer
	p := Start(10, &buf)
	sink := p.Sink()

	finishWithin(t, 5*time.Second, func() {
		for i := 0; i < 10; i++ {
			sink.Increment(processor.FileOutcome{Before: 100, After: 80, Status: processor.StatusImproved})
		}
		p.Finish()
	})
}

func TestProgress_SinkNeverBlocksAfterDisplayExits(t *testing.T) {
	var buf bytes.Buffer
	p := Start(500, &buf)
	p.program.Quit()
	p.program.Wait()

	sink := p.Sink()
	finishWithin(t, 5*time.Second, func() {
		for i := 0; i < 500; i++ {
			sink.Increment(processor.FileOutcome{Status: processor.StatusUnchanged})
		}
		p.Finish()
	})
}
