// Package ui provides the visual styling for the credence interactive console.
// Supports light and dark terminal palettes with semantic colors for
// certainty verdicts.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"credence/internal/verdict"
)

var (
	// Light mode colors (default)
	LightBackground = lipgloss.Color("#f4f5f6") // hsl(200, 7%, 96%)
	LightForeground = lipgloss.Color("#1a2536") // near-black blue
	LightPrimary    = lipgloss.Color("#2d5f8a") // steel blue
	LightAccent     = lipgloss.Color("#8a63d2") // violet
	LightMuted      = lipgloss.Color("#8a919c") // grey
	LightBorder     = lipgloss.Color("#dce0e5") // hsl(220, 15%, 88%)
	LightCard       = lipgloss.Color("#ffffff") // white

	// Dark mode colors
	DarkBackground = lipgloss.Color("#141d2b") // hsl(220, 58%, 10%)
	DarkForeground = lipgloss.Color("#f2f2f2") // hsl(0, 0%, 95%)
	DarkPrimary    = lipgloss.Color("#6ea8dc") // lighter steel blue
	DarkAccent     = lipgloss.Color("#b49aff") // violet (lifted)
	DarkMuted      = lipgloss.Color("#5c6878") // muted slate
	DarkBorder     = lipgloss.Color("#2a3850") // border dark
	DarkCard       = lipgloss.Color("#1a2536") // card dark

	// Semantic colors (same in both modes)
	Favoring    = lipgloss.Color("#8BC34A") // lime green, verdicts leaning true
	Against     = lipgloss.Color("#e53935") // red, verdicts leaning false
	Undecided   = lipgloss.Color("#9e9e9e") // grey, unknown band
	Warning     = lipgloss.Color("#FFC107") // yellow
	Destructive = lipgloss.Color("#e53935") // red
	Info        = lipgloss.Color("#2196F3") // blue
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme inspects the terminal environment and picks a theme.
func DetectTheme() Theme {
	// COLORFGBG is usually "foreground;background"; ANSI indices 0-6 and 8
	// are dark backgrounds.
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}

	if os.Getenv("CREDENCE_DARK_MODE") == "1" {
		return DarkTheme()
	}

	return LightTheme()
}

// ThemeByName maps a configured theme name to a Theme. Unrecognized names
// fall back to auto-detection.
func ThemeByName(name string) Theme {
	switch strings.ToLower(name) {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	default:
		return DetectTheme()
	}
}

// Styles holds all the styled components used by the console and the
// plain-command renderers.
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style
	Panel   lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Evidence form
	Prompt     lipgloss.Style
	FieldLabel lipgloss.Style
	FieldValue lipgloss.Style
	Selected   lipgloss.Style

	// Verdict tones
	Favoring  lipgloss.Style
	Against   lipgloss.Style
	Undecided lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Rule text
	RuleBlock  lipgloss.Style
	InlineRule lipgloss.Style

	// Components
	Divider lipgloss.Style
	Badge   lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		FieldLabel: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		FieldValue: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Selected: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Favoring: lipgloss.NewStyle().
			Foreground(Favoring).
			Bold(true),

		Against: lipgloss.NewStyle().
			Foreground(Against).
			Bold(true),

		Undecided: lipgloss.NewStyle().
			Foreground(Undecided),

		Success: lipgloss.NewStyle().
			Foreground(Favoring).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		RuleBlock: lipgloss.NewStyle().
			Background(theme.Card).
			Foreground(theme.Foreground).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		InlineRule: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Padding(0, 1),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),
	}
}

// DefaultStyles returns styles with the auto-detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// Tone returns the style for a verdict tone.
func (s Styles) Tone(t verdict.Tone) lipgloss.Style {
	switch t {
	case verdict.Positive:
		return s.Favoring
	case verdict.Negative:
		return s.Against
	default:
		return s.Undecided
	}
}

// RenderDivider returns a horizontal divider of the given width.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
