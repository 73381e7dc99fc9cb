// Package theme derives the TUI colors from the user's terminal config.
// Alacritty, Kitty and Foot configs are read in that order, and
// MAGNET_FINDER_* environment variables override any detected color.
package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds the color scheme for the TUI
type Palette struct {
	BG       string // background
	FG       string // foreground (primary text)
	Muted    string // secondary info, borders
	Accent   string // spinner, 4K tags, success
	AccentBg string // selected row background
	Warn     string // 1080p tags, pending states
	Error    string
}

// DefaultPalette returns the fallback amber-on-dark theme
func DefaultPalette() Palette {
	return Palette{
		BG:       "#0a0a0a",
		FG:       "#d4a017",
		Muted:    "#6b6b4f",
		Accent:   "#8bc34a",
		AccentBg: "#1a1a14",
		Warn:     "#ffb347",
		Error:    "#ff6b6b",
	}
}

// Styles holds all lipgloss styles derived from a palette
type Styles struct {
	Title         lipgloss.Style
	StatusBar     lipgloss.Style
	SearchPrompt  lipgloss.Style
	Toggle        lipgloss.Style
	ToggleActive  lipgloss.Style
	TableHeader   lipgloss.Style
	TableRow      lipgloss.Style
	TableSelected lipgloss.Style
	Tag4K         lipgloss.Style
	Tag1080       lipgloss.Style
	TagOther      lipgloss.Style
	Magnet        lipgloss.Style
	Muted         lipgloss.Style
	Success       lipgloss.Style
	Error         lipgloss.Style
	HelpKey       lipgloss.Style
}

// NewStyles creates styles from a palette
func NewStyles(p Palette) Styles {
	fg := lipgloss.Color(p.FG)
	muted := lipgloss.Color(p.Muted)

	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(fg).
			Bold(true).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),

		SearchPrompt: lipgloss.NewStyle().
			Foreground(muted),

		Toggle: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),

		ToggleActive: lipgloss.NewStyle().
			Foreground(fg).
			Background(lipgloss.Color(p.AccentBg)).
			Bold(true).
			Padding(0, 1),

		TableHeader: lipgloss.NewStyle().
			Foreground(muted).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(muted),

		TableRow: lipgloss.NewStyle().
			Foreground(fg),

		TableSelected: lipgloss.NewStyle().
			Foreground(fg).
			Background(lipgloss.Color(p.AccentBg)).
			Bold(true),

		Tag4K: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Accent)).
			Bold(true),

		Tag1080: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Warn)),

		TagOther: lipgloss.NewStyle().
			Foreground(muted),

		Magnet: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),

		Muted: lipgloss.NewStyle().
			Foreground(muted),

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Accent)),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Error)),

		HelpKey: lipgloss.NewStyle().
			Foreground(muted),
	}
}

var (
	mu      sync.RWMutex
	current Styles
	palette Palette
)

func init() {
	Refresh()
}

// Current returns the active styles.
func Current() Styles {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CurrentPalette returns the active palette.
func CurrentPalette() Palette {
	mu.RLock()
	defer mu.RUnlock()
	return palette
}

// Refresh reloads the theme from terminal config files
func Refresh() {
	p := Detect()
	s := NewStyles(p)

	mu.Lock()
	palette = p
	current = s
	mu.Unlock()
}
