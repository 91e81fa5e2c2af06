package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

// AbsentMarker is shown for cells without a value
const AbsentMarker = "—"

// TableColumn is one visible column header
type TableColumn struct {
	ID    string
	Label string
	Sort  models.SortDirection // empty when unsorted
}

// TableView displays one page of score rows
type TableView struct {
	Columns []TableColumn
	Rows    []models.ViewRow
	Width   int
	Height  int
	Theme   theme.Theme

	// MaxCellWidth caps a column's width
	MaxCellWidth int

	// Fetch state
	Loading bool
	Err     string
	Spinner spinner.Model

	// Page footer
	PageIndex  int
	PageSize   int
	TotalCount int64

	// Scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int
	SelectedCol int
	LeftCol     int

	// Column widths (calculated)
	ColumnWidths []int

	printer *message.Printer
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(th.Info)

	return &TableView{
		Theme:        th,
		MaxCellWidth: 50,
		Spinner:      s,
		printer:      message.NewPrinter(language.English),
	}
}

// SetColumns sets the visible columns and keeps the column cursor in range
func (tv *TableView) SetColumns(cols []TableColumn) {
	tv.Columns = cols
	if tv.SelectedCol >= len(cols) {
		tv.SelectedCol = max(len(cols)-1, 0)
	}
	if tv.LeftCol > tv.SelectedCol {
		tv.LeftCol = tv.SelectedCol
	}
	tv.calculateColumnWidths()
}

// SetRows replaces the page rows
func (tv *TableView) SetRows(rows []models.ViewRow) {
	tv.Rows = rows
	if tv.SelectedRow >= len(rows) {
		tv.SelectedRow = max(len(rows)-1, 0)
	}
	if tv.TopRow > tv.SelectedRow {
		tv.TopRow = tv.SelectedRow
	}
	tv.calculateColumnWidths()
}

// SetPage sets the footer figures
func (tv *TableView) SetPage(pageIndex, pageSize int, total int64) {
	tv.PageIndex = pageIndex
	tv.PageSize = pageSize
	tv.TotalCount = total
}

// Update advances the loading spinner
func (tv *TableView) Update(msg tea.Msg) tea.Cmd {
	if !tv.Loading {
		return nil
	}
	var cmd tea.Cmd
	tv.Spinner, cmd = tv.Spinner.Update(msg)
	return cmd
}

// SelectedCell returns the cell under the cursor
func (tv *TableView) SelectedCell() (models.DisplayValue, bool) {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.Rows) || tv.SelectedCol >= len(tv.Columns) {
		return models.Absent(), false
	}
	return tv.Rows[tv.SelectedRow].Cell(tv.Columns[tv.SelectedCol].ID), true
}

// SelectedRecord returns the row under the cursor
func (tv *TableView) SelectedRecord() (models.ViewRow, bool) {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.Rows) {
		return models.ViewRow{}, false
	}
	return tv.Rows[tv.SelectedRow], true
}

// SelectedColumn returns the column id under the cursor
func (tv *TableView) SelectedColumn() (string, bool) {
	if tv.SelectedCol < 0 || tv.SelectedCol >= len(tv.Columns) {
		return "", false
	}
	return tv.Columns[tv.SelectedCol].ID, true
}

func cellText(v models.DisplayValue) string {
	if v.IsAbsent() {
		return AbsentMarker
	}
	return strings.ReplaceAll(v.Text, "\n", " ")
}

func headerText(c TableColumn) string {
	switch c.Sort {
	case models.Ascending:
		return c.Label + " ▲"
	case models.Descending:
		return c.Label + " ▼"
	default:
		return c.Label
	}
}

// calculateColumnWidths calculates column widths from headers and cells
func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))

	for i, col := range tv.Columns {
		tv.ColumnWidths[i] = runewidth.StringWidth(headerText(col))
	}

	for _, row := range tv.Rows {
		for i, col := range tv.Columns {
			if w := runewidth.StringWidth(cellText(row.Cell(col.ID))); w > tv.ColumnWidths[i] {
				tv.ColumnWidths[i] = w
			}
		}
	}

	maxWidth := tv.MaxCellWidth
	if maxWidth <= 0 {
		maxWidth = 50
	}
	for i := range tv.ColumnWidths {
		if tv.ColumnWidths[i] > maxWidth {
			tv.ColumnWidths[i] = maxWidth
		}
		if tv.ColumnWidths[i] < 4 {
			tv.ColumnWidths[i] = 4
		}
	}
}

// visibleColumnRange returns the [from, to) column window that fits the width
// and keeps the selected column on screen.
func (tv *TableView) visibleColumnRange() (int, int) {
	if len(tv.Columns) == 0 {
		return 0, 0
	}
	if tv.SelectedCol < tv.LeftCol {
		tv.LeftCol = tv.SelectedCol
	}
	for {
		to := tv.LeftCol
		used := 1
		for to < len(tv.Columns) {
			w := tv.ColumnWidths[to] + 3
			if used+w > tv.Width && to > tv.LeftCol {
				break
			}
			used += w
			to++
		}
		if tv.SelectedCol < to || tv.LeftCol >= tv.SelectedCol {
			return tv.LeftCol, to
		}
		tv.LeftCol++
	}
}

// View renders the table
func (tv *TableView) View() string {
	var b strings.Builder

	switch {
	case tv.Err != "":
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Error).Bold(true).Render("Error: " + tv.Err))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render("Press r to retry"))
	case len(tv.Columns) == 0:
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render("No columns visible (press c)"))
	default:
		from, to := tv.visibleColumnRange()
		b.WriteString(tv.renderHeader(from, to))
		b.WriteString("\n")
		b.WriteString(tv.renderSeparator(from, to))
		b.WriteString("\n")
		b.WriteString(tv.renderBody(from, to))
	}

	b.WriteString("\n")
	b.WriteString(tv.renderStatus())

	return lipgloss.NewStyle().Width(tv.Width).Height(tv.Height).Render(b.String())
}

func (tv *TableView) renderBody(from, to int) string {
	if tv.Loading {
		return tv.Spinner.View() + " Loading scores..."
	}
	if len(tv.Rows) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true).Render("No scores match the current filters")
	}

	// Header + separator + status
	tv.VisibleRows = max(tv.Height-3, 1)
	if tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}

	endRow := min(tv.TopRow+tv.VisibleRows, len(tv.Rows))
	lines := make([]string, 0, endRow-tv.TopRow)
	for i := tv.TopRow; i < endRow; i++ {
		lines = append(lines, tv.renderRow(i, from, to))
	}
	return strings.Join(lines, "\n")
}

func (tv *TableView) renderHeader(from, to int) string {
	var parts []string
	for i := from; i < to; i++ {
		style := lipgloss.NewStyle().Bold(true).Foreground(tv.Theme.TableHeader)
		if tv.Columns[i].Sort != "" {
			style = style.Foreground(tv.Theme.SortIndicator)
		}
		if i == tv.SelectedCol {
			style = style.Underline(true)
		}
		parts = append(parts, style.Render(tv.pad(headerText(tv.Columns[i]), tv.ColumnWidths[i])))
	}
	return " " + strings.Join(parts, " │ ") + " "
}

func (tv *TableView) renderSeparator(from, to int) string {
	var parts []string
	for i := from; i < to; i++ {
		parts = append(parts, strings.Repeat("─", tv.ColumnWidths[i]))
	}
	return lipgloss.NewStyle().Foreground(tv.Theme.Border).Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(index, from, to int) string {
	row := tv.Rows[index]
	selected := index == tv.SelectedRow

	var parts []string
	for i := from; i < to; i++ {
		cell := row.Cell(tv.Columns[i].ID)
		text := tv.pad(cellText(cell), tv.ColumnWidths[i])
		style := lipgloss.NewStyle()
		switch cell.Kind {
		case models.DisplayLink:
			style = style.Foreground(tv.Theme.Link).Underline(true)
		case models.DisplayAbsent:
			style = style.Foreground(tv.Theme.Absent)
		}
		if selected && i == tv.SelectedCol {
			style = style.Reverse(true)
		}
		parts = append(parts, style.Render(text))
	}

	line := " " + strings.Join(parts, " │ ") + " "
	if selected {
		return lipgloss.NewStyle().Background(tv.Theme.TableRowSelected).Bold(true).Render(line)
	}
	return line
}

// StatusLine describes the visible slice of the result, e.g.
// "rows 51–100 of 1,234 · page 2/25 · 50 per page".
func (tv *TableView) StatusLine() string {
	if tv.PageSize <= 0 {
		return ""
	}
	pages := models.PaginationState{PageIndex: tv.PageIndex, PageSize: tv.PageSize}.PageCount(tv.TotalCount)
	first := int64(tv.PageIndex*tv.PageSize) + 1
	last := first + int64(len(tv.Rows)) - 1
	if len(tv.Rows) == 0 {
		first, last = 0, 0
	}
	return tv.printer.Sprintf("rows %d–%d of %d · page %d/%d · %d per page",
		first, last, tv.TotalCount, tv.PageIndex+1, max(pages, 1), tv.PageSize)
}

func (tv *TableView) renderStatus() string {
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(" " + tv.StatusLine())
}

// pad truncates or right-pads s to width display cells
func (tv *TableView) pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// MoveSelection moves the selection up or down
func (tv *TableView) MoveSelection(delta int) {
	tv.SelectedRow += delta

	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}

	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

// MoveColumn moves the column cursor left or right
func (tv *TableView) MoveColumn(delta int) {
	tv.SelectedCol += delta
	if tv.SelectedCol >= len(tv.Columns) {
		tv.SelectedCol = len(tv.Columns) - 1
	}
	if tv.SelectedCol < 0 {
		tv.SelectedCol = 0
	}
}

// ResetScroll moves to the first row, as after a page change
func (tv *TableView) ResetScroll() {
	tv.TopRow = 0
	tv.SelectedRow = 0
}
