package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/litescript/magnet-finder/internal/scraper"
	"github.com/litescript/magnet-finder/internal/theme"
)

// GetStyles returns current themed styles
func GetStyles() theme.Styles {
	return theme.Current()
}

func tagStyle(t scraper.Tag) lipgloss.Style {
	styles := GetStyles()
	switch t {
	case scraper.TagP4K:
		return styles.Tag4K
	case scraper.TagP1080:
		return styles.Tag1080
	}
	return styles.TagOther
}

// TruncateString truncates s to max display columns with an ellipsis
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return runewidth.Truncate(s, max, "…")
}

// PadRight pads s with spaces to width display columns, truncating if needed
func PadRight(s string, width int) string {
	return runewidth.FillRight(TruncateString(s, width), width)
}

// PadLeft pads s on the left to width display columns
func PadLeft(s string, width int) string {
	return runewidth.FillLeft(TruncateString(s, width), width)
}

// relevanceBar renders a 0..1 score as a short bar
func relevanceBar(score float32, width int) string {
	styles := GetStyles()

	filled := int(score*float32(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return styles.Success.Render(repeat("█", filled)) + styles.Muted.Render(repeat("░", width-filled))
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
