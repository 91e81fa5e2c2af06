package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color
	Muted         lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Table colors
	TableHeader      lipgloss.Color
	TableRowEven     lipgloss.Color
	TableRowOdd      lipgloss.Color
	TableRowSelected lipgloss.Color
	SortIndicator    lipgloss.Color

	// Cell kinds
	Link   lipgloss.Color
	Absent lipgloss.Color

	// Filter chips
	FilterChip lipgloss.Color
	Pinned     lipgloss.Color
}

// Names lists the selectable themes
func Names() []string {
	return []string{"default", "catppuccin-mocha"}
}

// GetTheme returns a theme by name, falling back to the default
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha", "catppuccin":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}
