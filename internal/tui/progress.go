package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"blairpng/internal/processor"
)

// Progress renders a progress bar until Finish is called.
type Progress struct {
	program *tea.Program
	updates chan processor.ProgressUpdate
	done    chan struct{}
}

// Start launches the progress display for total files on out. Signals keep
// their default behaviour; the bar never intercepts ^C.
func Start(total int, out io.Writer) *Progress {
	p := &Progress{
		updates: make(chan processor.ProgressUpdate, 64),
		done:    make(chan struct{}),
	}
	p.program = tea.NewProgram(NewModel(p.updates),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	go func() {
		_, _ = p.program.Run()
		// The display may stop early; keep consuming so senders never block.
		for range p.updates {
		}
		close(p.done)
	}()

	p.updates <- processor.ProgressUpdate{TotalDelta: total}
	return p
}

// Sink returns a sink that advances the bar once per completed file.
func (p *Progress) Sink() processor.ProgressSink {
	return processor.UpdateSink(p.updates)
}

// Finish clears the bar and waits for the display to exit. No Increment
// may happen after Finish.
func (p *Progress) Finish() {
	close(p.updates)
	<-p.done
}
