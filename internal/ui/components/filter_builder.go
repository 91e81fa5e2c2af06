package components

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

// ApplyFilterMsg is sent when the user conditions should replace the current ones
type ApplyFilterMsg struct {
	Conditions []models.FilterCondition
}

// CloseFilterBuilderMsg is sent when the filter builder should close
type CloseFilterBuilderMsg struct{}

// FilterBuilder edits the user's filter conditions. Pinned conditions are
// listed but cannot be edited or removed.
type FilterBuilder struct {
	Width  int
	Height int
	Theme  theme.Theme

	// State
	columns         []columns.FilterableColumn
	conditions      []models.FilterCondition
	pinned          []models.FilterCondition
	optionsLoaded   bool
	currentIndex    int    // Index in conditions list
	editMode        string // "", "column", "operator", "value"
	columnIndex     int
	operatorIndex   int
	optionIndex     int
	chosen          map[string]bool
	valueInput      textinput.Model
	validationError string

	selectedColumn columns.FilterableColumn
	availableOps   []models.FilterOperator
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder(th theme.Theme) *FilterBuilder {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	return &FilterBuilder{
		Width:      80,
		Height:     24,
		Theme:      th,
		valueInput: ti,
	}
}

// Open resets the builder to the current state. cols are the descriptors the
// builder may offer; categorical columns are missing until options load.
func (fb *FilterBuilder) Open(conds, pinned []models.FilterCondition, cols []columns.FilterableColumn, optionsLoaded bool) {
	fb.conditions = models.CloneFilters(conds)
	fb.pinned = models.CloneFilters(pinned)
	fb.columns = cols
	fb.optionsLoaded = optionsLoaded
	fb.currentIndex = 0
	fb.editMode = ""
	fb.validationError = ""
}

// SetColumns refreshes the offered descriptors, e.g. once options arrive
func (fb *FilterBuilder) SetColumns(cols []columns.FilterableColumn, optionsLoaded bool) {
	fb.columns = cols
	fb.optionsLoaded = optionsLoaded
	if fb.columnIndex >= len(cols) {
		fb.columnIndex = 0
	}
}

// Conditions returns the edited user conditions
func (fb *FilterBuilder) Conditions() []models.FilterCondition {
	return models.CloneFilters(fb.conditions)
}

// Update handles keyboard input
func (fb *FilterBuilder) Update(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch fb.editMode {
	case "":
		return fb.handleNavigationMode(msg)
	case "column":
		return fb.handleColumnMode(msg)
	case "operator":
		return fb.handleOperatorMode(msg)
	case "value":
		return fb.handleValueMode(msg)
	}
	return fb, nil
}

// handleNavigationMode handles keys in navigation mode
func (fb *FilterBuilder) handleNavigationMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if fb.currentIndex > 0 {
			fb.currentIndex--
		}
	case "down", "j":
		if fb.currentIndex < len(fb.conditions)-1 {
			fb.currentIndex++
		}
	case "a", "n":
		if len(fb.columns) == 0 {
			fb.validationError = "No filterable columns"
			return fb, nil
		}
		fb.editMode = "column"
		fb.columnIndex = 0
		fb.validationError = ""
	case "d", "x", "delete":
		if fb.currentIndex < len(fb.conditions) {
			fb.conditions = append(fb.conditions[:fb.currentIndex], fb.conditions[fb.currentIndex+1:]...)
			if fb.currentIndex > 0 && fb.currentIndex >= len(fb.conditions) {
				fb.currentIndex--
			}
		}
	case "enter":
		fb.validationError = ""
		conds := fb.Conditions()
		return fb, func() tea.Msg {
			return ApplyFilterMsg{Conditions: conds}
		}
	case "esc":
		return fb, func() tea.Msg {
			return CloseFilterBuilderMsg{}
		}
	}
	return fb, nil
}

// handleColumnMode handles column selection
func (fb *FilterBuilder) handleColumnMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.editMode = ""
		fb.validationError = ""
	case "up", "k":
		if fb.columnIndex > 0 {
			fb.columnIndex--
		}
	case "down", "j":
		if fb.columnIndex < len(fb.columns)-1 {
			fb.columnIndex++
		}
	case "enter":
		if fb.columnIndex >= len(fb.columns) {
			return fb, nil
		}
		fb.selectedColumn = fb.columns[fb.columnIndex]
		fb.availableOps = models.OperatorsFor(fb.selectedColumn.Type)
		fb.operatorIndex = 0
		fb.editMode = "operator"
	}
	return fb, nil
}

// handleOperatorMode handles operator selection
func (fb *FilterBuilder) handleOperatorMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.editMode = "column"
	case "up", "k":
		if fb.operatorIndex > 0 {
			fb.operatorIndex--
		}
	case "down", "j":
		if fb.operatorIndex < len(fb.availableOps)-1 {
			fb.operatorIndex++
		}
	case "enter":
		fb.editMode = "value"
		fb.validationError = ""
		fb.optionIndex = 0
		fb.chosen = map[string]bool{}
		fb.valueInput.SetValue("")
		fb.valueInput.Placeholder = valuePlaceholder(fb.selectedColumn.Type)
		if fb.selectedColumn.Type != models.TypeCategorical {
			return fb, fb.valueInput.Focus()
		}
	}
	return fb, nil
}

// handleValueMode handles value input
func (fb *FilterBuilder) handleValueMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	categorical := fb.selectedColumn.Type == models.TypeCategorical

	switch msg.String() {
	case "esc":
		fb.valueInput.Blur()
		fb.editMode = "operator"
		return fb, nil
	case "enter":
		var chosen []string
		if categorical {
			for _, opt := range fb.selectedColumn.Options {
				if fb.chosen[opt] {
					chosen = append(chosen, opt)
				}
			}
		}
		value, err := ParseFilterValue(fb.selectedColumn.Type, fb.valueInput.Value(), chosen)
		if err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		cond := models.FilterCondition{
			Column:   fb.selectedColumn.Column,
			Type:     fb.selectedColumn.Type,
			Operator: fb.availableOps[fb.operatorIndex],
			Value:    value,
		}
		if err := cond.Validate(); err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		fb.conditions = append(fb.conditions, cond)
		fb.currentIndex = len(fb.conditions) - 1
		fb.valueInput.Blur()
		fb.editMode = ""
		fb.validationError = ""
		return fb, nil
	}

	if categorical {
		switch msg.String() {
		case "up", "k":
			if fb.optionIndex > 0 {
				fb.optionIndex--
			}
		case "down", "j":
			if fb.optionIndex < len(fb.selectedColumn.Options)-1 {
				fb.optionIndex++
			}
		case " ", "space":
			if fb.optionIndex < len(fb.selectedColumn.Options) {
				opt := fb.selectedColumn.Options[fb.optionIndex]
				fb.chosen[opt] = !fb.chosen[opt]
			}
		}
		return fb, nil
	}

	var cmd tea.Cmd
	fb.valueInput, cmd = fb.valueInput.Update(msg)
	return fb, cmd
}

func valuePlaceholder(t models.FilterType) string {
	switch t {
	case models.TypeNumber:
		return "e.g. 0.5"
	case models.TypeDate:
		return "YYYY-MM-DD or RFC3339"
	default:
		return "value"
	}
}

// ParseFilterValue converts raw input into the value shape of a filter type.
// Dates accept RFC3339 or a bare YYYY-MM-DD (UTC midnight).
func ParseFilterValue(t models.FilterType, raw string, chosen []string) (interface{}, error) {
	switch t {
	case models.TypeString:
		return raw, nil
	case models.TypeNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case models.TypeDate:
		raw = strings.TrimSpace(raw)
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts.UTC().Format(time.RFC3339), nil
		}
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			return d.UTC().Format(time.RFC3339), nil
		}
		return nil, fmt.Errorf("%q is not a date", raw)
	case models.TypeCategorical:
		if len(chosen) == 0 {
			return nil, fmt.Errorf("select at least one value")
		}
		out := append([]string(nil), chosen...)
		sort.Strings(out)
		return out, nil
	default:
		return nil, fmt.Errorf("unknown filter type %q", t)
	}
}

func (fb *FilterBuilder) labelFor(column string) string {
	for _, c := range fb.columns {
		if c.Column == column {
			return c.Label
		}
	}
	return column
}

// View renders the filter builder
func (fb *FilterBuilder) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Foreground).
		Background(fb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Filter Builder"))

	instructionStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Muted).
		Padding(0, 1)

	var instructions string
	switch fb.editMode {
	case "column":
		instructions = "↑↓ Select column, Enter to confirm, Esc to cancel"
	case "operator":
		instructions = "↑↓ Select operator, Enter to confirm, Esc to go back"
	case "value":
		if fb.selectedColumn.Type == models.TypeCategorical {
			instructions = "↑↓ Move, Space to toggle, Enter to confirm, Esc to go back"
		} else {
			instructions = "Type value, Enter to confirm, Esc to go back"
		}
	default:
		instructions = "a=Add d=Delete Enter=Apply Esc=Cancel"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if fb.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+fb.validationError))
	}

	sections = append(sections, "\nConditions:")
	if len(fb.conditions) == 0 && len(fb.pinned) == 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(fb.Theme.Muted).Padding(0, 1).Render(" none"))
	}
	for i, cond := range fb.conditions {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(fb.Theme.FilterChip)
		if i == fb.currentIndex && fb.editMode == "" {
			style = style.Background(fb.Theme.Selection)
		}
		sections = append(sections, style.Render(fmt.Sprintf(" %d. %s", i+1, cond.String())))
	}
	for _, cond := range fb.pinned {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(fb.Theme.Pinned)
		sections = append(sections, style.Render(fmt.Sprintf(" ⚲  %s (pinned)", cond.String())))
	}

	if fb.editMode != "" {
		sections = append(sections, "")
		switch fb.editMode {
		case "column":
			sections = append(sections, "Select column:")
			for i, c := range fb.columns {
				sections = append(sections, fb.listItem(i == fb.columnIndex, fmt.Sprintf("%s (%s)", c.Label, c.Type)))
			}
			if !fb.optionsLoaded {
				sections = append(sections, instructionStyle.Render("Loading categorical columns..."))
			}
		case "operator":
			sections = append(sections, fmt.Sprintf("Column: %s", fb.selectedColumn.Label))
			sections = append(sections, "Select operator:")
			for i, op := range fb.availableOps {
				sections = append(sections, fb.listItem(i == fb.operatorIndex, string(op)))
			}
		case "value":
			sections = append(sections, fmt.Sprintf("Column: %s %s", fb.labelFor(fb.selectedColumn.Column), fb.availableOps[fb.operatorIndex]))
			if fb.selectedColumn.Type == models.TypeCategorical {
				if len(fb.selectedColumn.Options) == 0 {
					sections = append(sections, instructionStyle.Render("No values available"))
				}
				for i, opt := range fb.selectedColumn.Options {
					mark := "[ ]"
					if fb.chosen[opt] {
						mark = "[x]"
					}
					sections = append(sections, fb.listItem(i == fb.optionIndex, mark+" "+opt))
				}
			} else {
				sections = append(sections, "Value: "+fb.valueInput.View())
			}
		}
	}

	content := strings.Join(sections, "\n")

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fb.Theme.BorderFocused).
		Foreground(fb.Theme.Foreground).
		Width(fb.Width).
		Height(fb.Height).
		Padding(1)

	return containerStyle.Render(content)
}

func (fb *FilterBuilder) listItem(selected bool, text string) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if selected {
		style = style.Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
	}
	return style.Render("  " + text)
}
