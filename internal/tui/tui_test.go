package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"blairpng/internal/processor"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{-2048, "-2.0 KiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}

func TestModelAccumulatesUpdates(t *testing.T) {
	m := NewModel(nil)
	for _, u := range []processor.ProgressUpdate{
		{TotalDelta: 3},
		{ProcessedDelta: 1, BytesSavedDelta: 100},
		{ProcessedDelta: 1, ErrorDelta: 1},
	} {
		next, _ := m.Update(updateMsg(u))
		m = next.(Model)
	}

	assert.Equal(t, 3, m.total)
	assert.Equal(t, 2, m.processed)
	assert.Equal(t, 1, m.errors)
	assert.Equal(t, int64(100), m.bytesSaved)
	assert.Contains(t, m.View(), "2/3")

	next, _ := m.Update(doneMsg{})
	assert.Empty(t, next.(Model).View())
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary([]SummaryRow{
		{Label: "Saved", Value: "36.67%"},
		{Label: "Original size", Value: "3000 B"},
	})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, out, "Original size")
	assert.Contains(t, out, "36.67%")
}

func TestRenderBarBounds(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat("░", 10)+"]", renderBar(10, 0))
	assert.Equal(t, "["+strings.Repeat("█", 10)+"]", renderBar(10, 1.5))
}
