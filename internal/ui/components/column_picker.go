package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

// ToggleColumnMsg asks for a column's visibility to be flipped
type ToggleColumnMsg struct {
	ID string
}

// CloseColumnPickerMsg is sent when the picker should close
type CloseColumnPickerMsg struct{}

// ColumnPickerItem is one row of the picker
type ColumnPickerItem struct {
	ID      string
	Label   string
	Visible bool
	Locked  bool // not hideable
}

// ColumnPicker lists every schema column with its visibility
type ColumnPicker struct {
	Width  int
	Height int
	Theme  theme.Theme

	items  []ColumnPickerItem
	cursor int
}

// NewColumnPicker creates a new column picker
func NewColumnPicker(th theme.Theme) *ColumnPicker {
	return &ColumnPicker{Width: 50, Height: 20, Theme: th}
}

// SetItems replaces the listed columns, keeping the cursor in range
func (cp *ColumnPicker) SetItems(items []ColumnPickerItem) {
	cp.items = items
	if cp.cursor >= len(items) {
		cp.cursor = max(len(items)-1, 0)
	}
}

// Cursor returns the index of the highlighted column
func (cp *ColumnPicker) Cursor() int {
	return cp.cursor
}

// Update handles keyboard input
func (cp *ColumnPicker) Update(msg tea.KeyMsg) (*ColumnPicker, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if cp.cursor > 0 {
			cp.cursor--
		}
	case "down", "j":
		if cp.cursor < len(cp.items)-1 {
			cp.cursor++
		}
	case " ", "space", "enter":
		if cp.cursor < len(cp.items) && !cp.items[cp.cursor].Locked {
			id := cp.items[cp.cursor].ID
			return cp, func() tea.Msg { return ToggleColumnMsg{ID: id} }
		}
	case "esc", "c", "q":
		return cp, func() tea.Msg { return CloseColumnPickerMsg{} }
	}
	return cp, nil
}

// View renders the picker
func (cp *ColumnPicker) View() string {
	var lines []string

	titleStyle := lipgloss.NewStyle().
		Foreground(cp.Theme.Foreground).
		Background(cp.Theme.Info).
		Padding(0, 1).
		Bold(true)
	lines = append(lines, titleStyle.Render("Columns"))
	lines = append(lines, lipgloss.NewStyle().Foreground(cp.Theme.Muted).Render("Space toggle · Esc close"), "")

	for i, item := range cp.items {
		mark := "[ ]"
		if item.Visible {
			mark = "[x]"
		}
		text := mark + " " + item.Label
		style := lipgloss.NewStyle().Padding(0, 1)
		if item.Locked {
			text += " (always shown)"
			style = style.Foreground(cp.Theme.Muted)
		}
		if i == cp.cursor {
			style = style.Background(cp.Theme.Selection).Foreground(cp.Theme.Foreground)
		}
		lines = append(lines, style.Render(text))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cp.Theme.BorderFocused).
		Width(cp.Width).
		Padding(1).
		Render(strings.Join(lines, "\n"))
}
