package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

// Panel frames the table with a title bar and a row of filter chips
type Panel struct {
	Title  string
	Chips  []Chip
	Body   string
	Width  int
	Height int
	Theme  theme.Theme
}

// Chip is one active filter condition shown above the table
type Chip struct {
	Text   string
	Pinned bool
}

// InnerSize returns the space left for the body
func (p *Panel) InnerSize() (int, int) {
	h := p.Height - 3 // title + chips line + border
	if len(p.Chips) == 0 {
		h++
	}
	return max(p.Width-2, 0), max(h-1, 0)
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.Theme.Info).Padding(0, 1)
	lines := []string{titleStyle.Render(p.Title)}

	if len(p.Chips) > 0 {
		chips := make([]string, 0, len(p.Chips))
		for _, c := range p.Chips {
			color := p.Theme.FilterChip
			if c.Pinned {
				color = p.Theme.Pinned
			}
			chips = append(chips, lipgloss.NewStyle().Foreground(color).Render("["+c.Text+"]"))
		}
		lines = append(lines, " "+strings.Join(chips, " "))
	}
	lines = append(lines, p.Body)

	return lipgloss.NewStyle().
		Width(p.Width - 2).
		Height(p.Height - 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.Border).
		Render(strings.Join(lines, "\n"))
}
