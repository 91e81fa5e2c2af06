package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

// CloseRecordDetailMsg is sent when the detail view should close
type CloseRecordDetailMsg struct{}

// CopyRecordMsg asks for the shown record to be copied
type CopyRecordMsg struct {
	JSON string
}

// RecordDetail shows the raw fields of one row as highlighted JSON
type RecordDetail struct {
	Width  int
	Height int
	Theme  theme.Theme

	title  string
	raw    string
	lines  []string
	offset int

	chromaStyle     *chroma.Style
	chromaFormatter chroma.Formatter
}

// NewRecordDetail creates a new record detail view
func NewRecordDetail(th theme.Theme) *RecordDetail {
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &RecordDetail{
		Width:           80,
		Height:          24,
		Theme:           th,
		chromaStyle:     style,
		chromaFormatter: formatter,
	}
}

// SetRow shows row's fields and scrolls to the top
func (d *RecordDetail) SetRow(row models.ViewRow) error {
	data, err := json.MarshalIndent(row.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	d.title = "Score " + row.ID
	d.raw = string(data)
	d.lines = strings.Split(d.highlight(d.raw), "\n")
	d.offset = 0
	return nil
}

// JSON returns the shown record, unhighlighted
func (d *RecordDetail) JSON() string {
	return d.raw
}

// highlight colors JSON for the terminal, or returns it unchanged
func (d *RecordDetail) highlight(src string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		return src
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf bytes.Buffer
	if err := d.chromaFormatter.Format(&buf, d.chromaStyle, iterator); err != nil {
		return src
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func (d *RecordDetail) bodyHeight() int {
	// border, title, hint
	return max(d.Height-4, 1)
}

// Update handles keyboard input
func (d *RecordDetail) Update(msg tea.KeyMsg) (*RecordDetail, tea.Cmd) {
	maxOffset := max(len(d.lines)-d.bodyHeight(), 0)
	switch msg.String() {
	case "up", "k":
		d.offset = max(d.offset-1, 0)
	case "down", "j":
		d.offset = min(d.offset+1, maxOffset)
	case "g", "home":
		d.offset = 0
	case "G", "end":
		d.offset = maxOffset
	case "y":
		data := d.raw
		return d, func() tea.Msg { return CopyRecordMsg{JSON: data} }
	case "esc", "enter", "q":
		return d, func() tea.Msg { return CloseRecordDetailMsg{} }
	}
	return d, nil
}

// View renders the detail box
func (d *RecordDetail) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(d.Theme.Foreground).
		Background(d.Theme.Info).
		Padding(0, 1).
		Bold(true)

	end := min(d.offset+d.bodyHeight(), len(d.lines))
	body := strings.Join(d.lines[d.offset:end], "\n")

	hint := lipgloss.NewStyle().Foreground(d.Theme.Muted).
		Render(fmt.Sprintf("j/k scroll · y copy JSON · Esc close   %d/%d", end, len(d.lines)))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.BorderFocused).
		Width(d.Width).
		Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(d.title), body, hint))
}
