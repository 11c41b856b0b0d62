package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type SummaryRow struct {
	Label string
	Value string
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("─", labelWidth+valueWidth+3))
	lines := []string{hline}

	for _, row := range rows {
		label := summaryLabelStyle.Width(labelWidth).Render(row.Label)
		value := valueStyle.Width(valueWidth).Render(row.Value)
		lines = append(lines, fmt.Sprintf("%s %s %s", label, dimStyle.Render("│"), value))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

var (
	summaryLabelStyle = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	valueStyle        = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
)

// Banner is the title line printed before a run.
func Banner() string {
	return bannerStyle.Render("blairpng") + " " + dimStyle.Render("lossless png optimizer")
}

var bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
