package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit and print the view address"},
		{"Esc", "Close dialog"},
		{"r, F5", "Refresh current page"},
	}
}

// GetNavigationKeys returns row and column navigation bindings
func GetNavigationKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"←/h", "Previous column"},
		{"→/l", "Next column"},
		{"n, PgDn", "Next page"},
		{"p, PgUp", "Previous page"},
		{"+ / -", "Larger / smaller page size"},
	}
}

// GetTableKeys returns table state bindings
func GetTableKeys() []KeyBinding {
	return []KeyBinding{
		{"Enter", "Show record details"},
		{"s", "Cycle sort on current column"},
		{"f", "Open filter builder"},
		{"x", "Clear filters"},
		{"c", "Choose visible columns"},
		{"y", "Copy view address"},
		{"Y", "Copy link of current cell"},
		{"b", "Save view"},
		{"e", "Export page to CSV"},
		{"E", "Export page to JSON"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Navigation", GetNavigationKeys()},
		{"Table", GetTableKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazyscores - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		Height(max(height-4, 10))

	return boxStyle.Render(b.String())
}
