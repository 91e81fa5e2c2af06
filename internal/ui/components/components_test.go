package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func typeText(fb *FilterBuilder, s string) {
	for _, r := range s {
		fb, _ = fb.Update(key(string(r)))
	}
}

// === TableView ===

func sampleRows() []models.ViewRow {
	return []models.ViewRow{
		{ID: "s1", Cells: map[string]models.DisplayValue{
			"name":    models.Text("accuracy"),
			"traceId": models.Link("https://example.test/t/1", "trace-1"),
		}},
		{ID: "s2", Cells: map[string]models.DisplayValue{
			"name":    models.Text("a very long score name that will not fit"),
			"traceId": models.Absent(),
		}},
	}
}

func newTable() *TableView {
	tv := NewTableView(theme.DefaultTheme())
	tv.Width, tv.Height = 120, 20
	tv.MaxCellWidth = 12
	tv.SetColumns([]TableColumn{
		{ID: "name", Label: "Name", Sort: models.Ascending},
		{ID: "traceId", Label: "Trace"},
	})
	tv.SetRows(sampleRows())
	return tv
}

func TestTableView_ColumnWidths(t *testing.T) {
	t.Parallel()

	tv := newTable()
	assert.Equal(t, []int{12, 7}, tv.ColumnWidths, "capped at max width, at least header width")
}

func TestTableView_Render(t *testing.T) {
	t.Parallel()

	tv := newTable()
	tv.SetPage(0, 50, 2)
	out := tv.View()

	assert.Contains(t, out, "Name ▲")
	assert.Contains(t, out, "trace-1")
	assert.Contains(t, out, AbsentMarker)
	assert.Contains(t, out, "a very long…")
	assert.Contains(t, out, "rows 1–2 of 2")
}

func TestTableView_LoadingAndError(t *testing.T) {
	t.Parallel()

	tv := newTable()
	tv.Loading = true
	assert.Contains(t, tv.View(), "Loading scores")

	tv.Loading = false
	tv.Err = "connection refused"
	out := tv.View()
	assert.Contains(t, out, "connection refused")
	assert.NotContains(t, out, "trace-1")
}

func TestTableView_StatusLine(t *testing.T) {
	t.Parallel()

	tv := NewTableView(theme.DefaultTheme())
	rows := make([]models.ViewRow, 50)
	tv.SetRows(rows)
	tv.SetPage(1, 50, 1234)

	assert.Equal(t, "rows 51–100 of 1,234 · page 2/25 · 50 per page", tv.StatusLine())

	tv.SetRows(nil)
	tv.SetPage(0, 50, 0)
	assert.Equal(t, "rows 0–0 of 0 · page 1/1 · 50 per page", tv.StatusLine())
}

func TestTableView_Selection(t *testing.T) {
	t.Parallel()

	tv := newTable()
	tv.MoveSelection(5)
	assert.Equal(t, 1, tv.SelectedRow)
	tv.MoveSelection(-5)
	assert.Equal(t, 0, tv.SelectedRow)

	tv.MoveColumn(1)
	col, ok := tv.SelectedColumn()
	require.True(t, ok)
	assert.Equal(t, "traceId", col)

	cell, ok := tv.SelectedCell()
	require.True(t, ok)
	assert.Equal(t, "https://example.test/t/1", cell.Target)

	tv.SetColumns(tv.Columns[:1])
	assert.Equal(t, 0, tv.SelectedCol, "cursor clamped to remaining columns")
}

// === FilterBuilder ===

func filterColumns() []columns.FilterableColumn {
	return []columns.FilterableColumn{
		{Column: "name", Label: "Name", Type: models.TypeString},
		{Column: "value", Label: "Value", Type: models.TypeNumber},
		{Column: "source", Label: "Source", Type: models.TypeCategorical, Options: []string{"API", "EVAL"}},
	}
}

func applied(t *testing.T, cmd tea.Cmd) []models.FilterCondition {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(ApplyFilterMsg)
	require.True(t, ok)
	return msg.Conditions
}

func TestFilterBuilder_AddStringCondition(t *testing.T) {
	t.Parallel()

	fb := NewFilterBuilder(theme.DefaultTheme())
	fb.Open(nil, nil, filterColumns(), true)

	fb, _ = fb.Update(key("a"))     // column mode, "name" highlighted
	fb, _ = fb.Update(key("enter")) // operator mode, "=" highlighted
	fb, _ = fb.Update(key("enter")) // value mode
	typeText(fb, "accuracy")
	fb, _ = fb.Update(key("enter"))

	_, cmd := fb.Update(key("enter"))
	assert.Equal(t, []models.FilterCondition{
		{Column: "name", Type: models.TypeString, Operator: models.OpEqual, Value: "accuracy"},
	}, applied(t, cmd))
}

func TestFilterBuilder_RejectsBadNumber(t *testing.T) {
	t.Parallel()

	fb := NewFilterBuilder(theme.DefaultTheme())
	fb.Open(nil, nil, filterColumns(), true)

	fb, _ = fb.Update(key("a"))
	fb, _ = fb.Update(key("down"))
	fb, _ = fb.Update(key("enter"))
	fb, _ = fb.Update(key("enter"))
	typeText(fb, "abc")
	fb, _ = fb.Update(key("enter"))

	assert.Contains(t, fb.View(), "not a number")
	assert.Empty(t, fb.Conditions())
}

func TestFilterBuilder_CategoricalMultiSelect(t *testing.T) {
	t.Parallel()

	fb := NewFilterBuilder(theme.DefaultTheme())
	fb.Open(nil, nil, filterColumns(), true)

	fb, _ = fb.Update(key("a"))
	fb, _ = fb.Update(key("down"))
	fb, _ = fb.Update(key("down"))
	fb, _ = fb.Update(key("enter")) // source
	fb, _ = fb.Update(key("down"))
	fb, _ = fb.Update(key("enter")) // none of
	fb, _ = fb.Update(key(" "))     // API
	fb, _ = fb.Update(key("down"))
	fb, _ = fb.Update(key(" ")) // EVAL
	fb, _ = fb.Update(key("enter"))

	assert.Equal(t, []models.FilterCondition{
		{Column: "source", Type: models.TypeCategorical, Operator: models.OpNoneOf, Value: []string{"API", "EVAL"}},
	}, fb.Conditions())
}

func TestFilterBuilder_PinnedShownButNotEditable(t *testing.T) {
	t.Parallel()

	pinned := columns.PinnedUserFilter("u1")
	user := models.FilterCondition{Column: "name", Type: models.TypeString, Operator: models.OpEqual, Value: "accuracy"}

	fb := NewFilterBuilder(theme.DefaultTheme())
	fb.Open([]models.FilterCondition{user}, []models.FilterCondition{pinned}, filterColumns(), true)
	assert.Contains(t, fb.View(), "(pinned)")

	fb, _ = fb.Update(key("d"))
	fb, _ = fb.Update(key("d"))
	_, cmd := fb.Update(key("enter"))
	assert.Empty(t, applied(t, cmd), "only user conditions are applied")
	assert.Contains(t, fb.View(), "(pinned)")
}

func TestFilterBuilder_Escape(t *testing.T) {
	t.Parallel()

	fb := NewFilterBuilder(theme.DefaultTheme())
	fb.Open(nil, nil, filterColumns(), false)
	assert.Contains(t, fb.View(), "none")

	_, cmd := fb.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.IsType(t, CloseFilterBuilderMsg{}, cmd())
}

func TestParseFilterValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		typ     models.FilterType
		raw     string
		chosen  []string
		want    interface{}
		wantErr bool
	}{
		{"string kept verbatim", models.TypeString, " x ", nil, " x ", false},
		{"number", models.TypeNumber, " 0.25 ", nil, 0.25, false},
		{"bad number", models.TypeNumber, "1,5", nil, nil, true},
		{"bare date", models.TypeDate, "2024-05-01", nil, "2024-05-01T00:00:00Z", false},
		{"rfc3339 normalized to utc", models.TypeDate, "2024-05-01T02:00:00+02:00", nil, "2024-05-01T00:00:00Z", false},
		{"bad date", models.TypeDate, "yesterday", nil, nil, true},
		{"categorical sorted", models.TypeCategorical, "", []string{"EVAL", "API"}, []string{"API", "EVAL"}, false},
		{"categorical empty", models.TypeCategorical, "", nil, nil, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFilterValue(tt.typ, tt.raw, tt.chosen)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// === ColumnPicker ===

func TestColumnPicker(t *testing.T) {
	t.Parallel()

	cp := NewColumnPicker(theme.DefaultTheme())
	cp.SetItems([]ColumnPickerItem{
		{ID: "timestamp", Label: "Timestamp", Visible: true, Locked: true},
		{ID: "id", Label: "Score ID"},
	})

	_, cmd := cp.Update(key(" "))
	assert.Nil(t, cmd, "locked columns cannot be toggled")

	cp, _ = cp.Update(key("down"))
	_, cmd = cp.Update(key(" "))
	require.NotNil(t, cmd)
	assert.Equal(t, ToggleColumnMsg{ID: "id"}, cmd())

	out := cp.View()
	assert.True(t, strings.Contains(out, "[x] Timestamp"))
	assert.Contains(t, out, "[ ] Score ID")
	assert.Contains(t, out, "always shown")
}

// === PromptInput ===

func TestPromptInput(t *testing.T) {
	t.Parallel()

	p := NewPromptInput(theme.DefaultTheme())
	p.Open("save-view", "Save view", "name")

	_, cmd := p.Update(key("enter"))
	assert.Nil(t, cmd, "empty value is not submitted")

	for _, r := range "daily" {
		p, _ = p.Update(key(string(r)))
	}
	_, cmd = p.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, PromptSubmitMsg{Purpose: "save-view", Value: "daily"}, cmd())
}

// === RecordDetail ===

func TestRecordDetail(t *testing.T) {
	t.Parallel()

	d := NewRecordDetail(theme.DefaultTheme())
	d.Height = 6
	row := models.ViewRow{ID: "s1", Fields: models.Fields{"id": "s1", "name": "accuracy", "value": 0.5}}
	require.NoError(t, d.SetRow(row))

	assert.JSONEq(t, `{"id":"s1","name":"accuracy","value":0.5}`, d.JSON())
	assert.Contains(t, d.View(), "Score s1")

	d, _ = d.Update(key("G"))
	d, _ = d.Update(key("j"))
	assert.Equal(t, len(d.lines)-d.bodyHeight(), d.offset, "scroll stops at the end")

	_, cmd := d.Update(key("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, CopyRecordMsg{JSON: d.JSON()}, cmd())

	_, cmd = d.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.IsType(t, CloseRecordDetailMsg{}, cmd())
}
