package tui

import "github.com/charmbracelet/lipgloss"

// Colors adapt to light and dark terminal backgrounds.
var (
	ColorInk       = lipgloss.AdaptiveColor{Light: "#2E3440", Dark: "#ECEFF4"}
	ColorDim       = lipgloss.AdaptiveColor{Light: "#8C94A3", Dark: "#6B7385"}
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#2F7F95", Dark: "#8FD3E0"}
	ColorAccentAlt = lipgloss.AdaptiveColor{Light: "#4C6A92", Dark: "#9AB2D6"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#4F7A36", Dark: "#A9D18E"}
	ColorWarn      = lipgloss.AdaptiveColor{Light: "#A86A00", Dark: "#F2C66D"}
)
