package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazyscores/internal/bookmarks"
	"github.com/rebeliceyang/lazyscores/internal/browser"
	"github.com/rebeliceyang/lazyscores/internal/config"
	"github.com/rebeliceyang/lazyscores/internal/export"
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/tablestate"
	"github.com/rebeliceyang/lazyscores/internal/ui/components"
	"github.com/rebeliceyang/lazyscores/internal/ui/help"
	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

const promptSaveView = "save-view"

// Options wires the app to its collaborators
type Options struct {
	Config  *config.Config
	Browser *browser.Browser
	Source  browser.RecordSource

	// Views stores saved views; nil disables saving
	Views *bookmarks.Manager

	// ExportDir receives page exports
	ExportDir string

	Logger *slog.Logger

	// Copy writes to the clipboard; defaults to the system clipboard
	Copy func(string) error
}

// App is the main application model
type App struct {
	state  models.AppState
	config *config.Config
	theme  theme.Theme
	logger *slog.Logger
	ctx    context.Context

	browser   *browser.Browser
	source    browser.RecordSource
	views     *bookmarks.Manager
	exportDir string
	copy      func(string) error

	panel         components.Panel
	tableView     *components.TableView
	filterBuilder *components.FilterBuilder
	columnPicker  *components.ColumnPicker
	prompt        *components.PromptInput
	recordDetail  *components.RecordDetail

	pageSizes []int
	lastTotal int64
	ticket    browser.Ticket // latest fetch

	// Bottom bar notice
	notice      string
	noticeError bool
}

// ScoresLoadedMsg carries the result of one page fetch
type ScoresLoadedMsg struct {
	Ticket   browser.Ticket
	Response models.FetchResponse
	Err      error
}

// FilterOptionsLoadedMsg carries the categorical filter values
type FilterOptionsLoadedMsg struct {
	Options models.FilterOptions
	Err     error
}

// New creates a new App instance
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	th := theme.GetTheme(cfg.UI.Theme)

	tv := components.NewTableView(th)
	tv.MaxCellWidth = cfg.Data.MaxCellDisplayLength

	a := &App{
		state:         models.NewAppState(opts.Browser.ScopeID(), ""),
		config:        cfg,
		theme:         th,
		logger:        logger,
		ctx:           context.Background(),
		browser:       opts.Browser,
		source:        opts.Source,
		views:         opts.Views,
		exportDir:     opts.ExportDir,
		copy:          copyFn,
		panel:         components.Panel{Theme: th},
		tableView:     tv,
		filterBuilder: components.NewFilterBuilder(th),
		columnPicker:  components.NewColumnPicker(th),
		prompt:        components.NewPromptInput(th),
		recordDetail:  components.NewRecordDetail(th),
		pageSizes:     cfg.PageSizes(),
	}
	if implicit := opts.Browser.Filters.Implicit(); len(implicit) > 0 {
		if s, ok := implicit[0].Value.(string); ok {
			a.state.UserID = s
		}
	}

	opts.Browser.Store().OnChange(func(address string) {
		logger.Debug("view address changed", "address", address)
	})

	a.updateDimensions()
	a.syncTable()
	return a
}

// Address returns the current view address
func (a *App) Address() string {
	return a.browser.Address()
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetch(), a.loadFilterOptions())
}

// fetch starts a page fetch for the current state, superseding any
// fetch in flight.
func (a *App) fetch() tea.Cmd {
	ticket, ctx, req := a.browser.BeginFetch(a.ctx)
	a.ticket = ticket
	a.syncTable()

	source := a.source
	load := func() tea.Msg {
		resp, err := source.FetchScores(ctx, req)
		return ScoresLoadedMsg{Ticket: ticket, Response: resp, Err: err}
	}
	return tea.Batch(load, a.tableView.Spinner.Tick)
}

func (a *App) loadFilterOptions() tea.Cmd {
	source := a.source
	scope := a.browser.ScopeID()
	ctx := a.ctx
	return func() tea.Msg {
		opts, err := source.FetchFilterOptions(ctx, scope)
		return FilterOptionsLoadedMsg{Options: opts, Err: err}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updateDimensions()
		return a, nil

	case ScoresLoadedMsg:
		if !a.browser.ApplyFetch(msg.Ticket, msg.Response, msg.Err) {
			return a, nil
		}
		if msg.Err == nil {
			a.lastTotal = msg.Response.TotalCount
			if a.browser.ClampPage() {
				a.logger.Info("page index out of range, moving to last page", "page", a.browser.Pagination.Get().PageIndex)
				return a, a.fetch()
			}
		}
		a.syncTable()
		return a, nil

	case FilterOptionsLoadedMsg:
		if msg.Err != nil {
			a.logger.Warn("failed to load filter options", "error", msg.Err)
			a.setNotice("Filter options unavailable: "+msg.Err.Error(), true)
			return a, nil
		}
		a.browser.ApplyFilterOptions(msg.Options)
		a.filterBuilder.SetColumns(a.browser.FilterableColumns(), true)
		a.syncTable()
		return a, nil

	case components.ApplyFilterMsg:
		a.state.ViewMode = models.NormalMode
		if err := a.browser.Filters.Set(msg.Conditions); err != nil {
			a.setNotice(err.Error(), true)
			return a, nil
		}
		return a, a.resetPageAndFetch()

	case components.CopyRecordMsg:
		a.copyText(msg.JSON, "Copied record JSON")
		return a, nil

	case components.CloseFilterBuilderMsg, components.CloseColumnPickerMsg, components.ClosePromptMsg, components.CloseRecordDetailMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case components.ToggleColumnMsg:
		if err := a.browser.Visibility.Toggle(msg.ID); err != nil {
			a.logger.Warn("failed to persist column visibility", "column", msg.ID, "error", err)
			a.setNotice("Column visibility not saved: "+err.Error(), true)
		}
		a.columnPicker.SetItems(a.columnItems())
		a.syncTable()
		return a, nil

	case components.PromptSubmitMsg:
		a.state.ViewMode = models.NormalMode
		if msg.Purpose == promptSaveView {
			a.saveView(msg.Value)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// spinner ticks and anything else the table wants
	return a, a.tableView.Update(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.state.ViewMode {
	case models.FilterMode:
		var cmd tea.Cmd
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	case models.ColumnsMode:
		var cmd tea.Cmd
		a.columnPicker, cmd = a.columnPicker.Update(msg)
		return a, cmd
	case models.SaveViewMode:
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.Update(msg)
		return a, cmd
	case models.DetailMode:
		var cmd tea.Cmd
		a.recordDetail, cmd = a.recordDetail.Update(msg)
		return a, cmd
	case models.HelpMode:
		switch msg.String() {
		case "?", "esc", "q":
			a.state.ViewMode = models.NormalMode
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	a.notice = ""
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
	case "r", "f5":
		cmds := []tea.Cmd{a.fetch()}
		if !a.browser.FilterOptionsLoaded() {
			cmds = append(cmds, a.loadFilterOptions())
		}
		return a, tea.Batch(cmds...)

	case "up", "k":
		a.tableView.MoveSelection(-1)
	case "down", "j":
		a.tableView.MoveSelection(1)
	case "left", "h", "<":
		a.tableView.MoveColumn(-1)
	case "right", "l", ">":
		a.tableView.MoveColumn(1)

	case "n", "pgdown":
		if a.browser.Pagination.Next(a.lastTotal) {
			a.tableView.ResetScroll()
			return a, a.fetch()
		}
	case "p", "pgup":
		if a.browser.Pagination.Prev() {
			a.tableView.ResetScroll()
			return a, a.fetch()
		}
	case "+", "=":
		return a, a.stepPageSize(1)
	case "-", "_":
		return a, a.stepPageSize(-1)

	case "enter":
		row, ok := a.tableView.SelectedRecord()
		if !ok {
			return a, nil
		}
		if err := a.recordDetail.SetRow(row); err != nil {
			a.setNotice(err.Error(), true)
			return a, nil
		}
		a.state.ViewMode = models.DetailMode

	case "s":
		col, ok := a.tableView.SelectedColumn()
		if !ok {
			return a, nil
		}
		if !a.browser.Registry().IsSortable(col) {
			a.setNotice(fmt.Sprintf("Column %q is not sortable", col), true)
			return a, nil
		}
		if err := a.browser.OrderBy.Toggle(col); err != nil {
			a.setNotice(err.Error(), true)
			return a, nil
		}
		return a, a.resetPageAndFetch()

	case "f":
		a.filterBuilder.Width = min(80, a.state.Width-4)
		a.filterBuilder.Height = min(24, a.state.Height-4)
		a.filterBuilder.Open(a.browser.Filters.Get(), a.browser.Filters.Implicit(), a.browser.FilterableColumns(), a.browser.FilterOptionsLoaded())
		a.state.ViewMode = models.FilterMode
	case "x":
		if len(a.browser.Filters.Get()) == 0 {
			return a, nil
		}
		a.browser.Filters.Clear()
		return a, a.resetPageAndFetch()

	case "c":
		a.columnPicker.SetItems(a.columnItems())
		a.state.ViewMode = models.ColumnsMode

	case "y":
		a.copyText(a.Address(), "Copied view address")
	case "Y":
		cell, ok := a.tableView.SelectedCell()
		if !ok || cell.Kind != models.DisplayLink {
			a.setNotice("No link under the cursor", true)
			return a, nil
		}
		a.copyText(cell.Target, "Copied "+cell.Target)

	case "b":
		if a.views == nil {
			a.setNotice("Saved views are unavailable", true)
			return a, nil
		}
		a.state.ViewMode = models.SaveViewMode
		return a, a.prompt.Open(promptSaveView, "Save view as", "view name")

	case "e":
		a.exportPage(export.FormatCSV)
	case "E":
		a.exportPage(export.FormatJSON)
	}
	return a, nil
}

// resetPageAndFetch goes back to the first page after the result set changed
func (a *App) resetPageAndFetch() tea.Cmd {
	if err := a.browser.Pagination.Set(tablestate.PageIndex(0)); err != nil {
		a.setNotice(err.Error(), true)
	}
	a.tableView.ResetScroll()
	return a.fetch()
}

// stepPageSize moves to the next configured page size in direction dir and
// returns to the first page.
func (a *App) stepPageSize(dir int) tea.Cmd {
	current := a.browser.Pagination.Get().PageSize
	next := current
	if dir > 0 {
		for _, s := range a.pageSizes {
			if s > current {
				next = s
				break
			}
		}
	} else {
		for i := len(a.pageSizes) - 1; i >= 0; i-- {
			if a.pageSizes[i] < current {
				next = a.pageSizes[i]
				break
			}
		}
	}
	if next == current {
		return nil
	}
	if err := a.browser.Pagination.Set(tablestate.Page(0, next)); err != nil {
		a.setNotice(err.Error(), true)
		return nil
	}
	a.tableView.ResetScroll()
	return a.fetch()
}

func (a *App) copyText(text, done string) {
	if err := a.copy(text); err != nil {
		a.setNotice("Clipboard unavailable: "+err.Error(), true)
		return
	}
	a.setNotice(done, false)
}

func (a *App) saveView(name string) {
	v, err := a.views.Add(name, "", a.browser.ScopeID(), a.Address())
	if err != nil {
		a.setNotice(err.Error(), true)
		return
	}
	a.logger.Info("view saved", "name", v.Name, "id", v.ID)
	a.setNotice(fmt.Sprintf("Saved view %q", v.Name), false)
}

func (a *App) exportPage(format export.Format) {
	st := a.browser.State()
	if st.Status != browser.StatusSuccess {
		a.setNotice("Nothing to export yet", true)
		return
	}
	page := a.browser.Pagination.Get().PageIndex + 1
	name := fmt.Sprintf("scores-%s-page%d.%s", a.browser.ScopeID(), page, format)
	path := filepath.Join(a.exportDir, name)
	if err := export.ToFile(path, format, a.browser.VisibleColumns(), st.Rows); err != nil {
		a.setNotice(err.Error(), true)
		return
	}
	a.setNotice("Exported "+path, false)
}

func (a *App) setNotice(text string, isError bool) {
	a.notice = text
	a.noticeError = isError
}

func (a *App) columnItems() []components.ColumnPickerItem {
	cols := a.browser.Registry().Columns()
	items := make([]components.ColumnPickerItem, 0, len(cols))
	for _, c := range cols {
		items = append(items, components.ColumnPickerItem{
			ID:      c.ID,
			Label:   c.Label,
			Visible: a.browser.Visibility.Visible(c.ID),
			Locked:  !c.Hideable,
		})
	}
	return items
}

// syncTable copies browser state into the table widgets
func (a *App) syncTable() {
	st := a.browser.State()
	order := a.browser.OrderBy.Get()

	var cols []components.TableColumn
	for _, c := range a.browser.VisibleColumns() {
		tc := components.TableColumn{ID: c.ID, Label: c.Label}
		if order != nil && order.Column == c.ID {
			tc.Sort = order.Direction
		}
		cols = append(cols, tc)
	}
	a.tableView.SetColumns(cols)

	a.tableView.Loading = st.Status == browser.StatusLoading
	a.tableView.Err = st.Err
	if st.Status != browser.StatusLoading {
		a.tableView.SetRows(st.Rows)
	} else {
		a.tableView.SetRows(nil)
	}
	p := a.browser.Pagination.Get()
	a.tableView.SetPage(p.PageIndex, p.PageSize, a.lastTotal)

	var chips []components.Chip
	for _, c := range a.browser.Filters.Get() {
		chips = append(chips, components.Chip{Text: c.String()})
	}
	for _, c := range a.browser.Filters.Implicit() {
		chips = append(chips, components.Chip{Text: c.String(), Pinned: true})
	}
	a.panel.Chips = chips
	a.updateDimensions()
}

// updateDimensions sizes the panel and table from the window size
func (a *App) updateDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}
	// top bar and bottom bar
	a.panel.Width = a.state.Width
	a.panel.Height = max(a.state.Height-2, 5)
	a.tableView.Width, a.tableView.Height = a.panel.InnerSize()
	a.prompt.Width = min(60, a.state.Width-4)
	a.columnPicker.Width = min(50, a.state.Width-4)
	a.recordDetail.Width = min(100, a.state.Width-4)
	a.recordDetail.Height = a.state.Height - 2
}

// View implements tea.Model
func (a *App) View() string {
	switch a.state.ViewMode {
	case models.HelpMode:
		return help.Render(a.state.Width, a.state.Height, a.theme)
	case models.FilterMode:
		return a.overlay(a.filterBuilder.View())
	case models.ColumnsMode:
		return a.overlay(a.columnPicker.View())
	case models.SaveViewMode:
		return a.overlay(a.prompt.View())
	case models.DetailMode:
		return a.overlay(a.recordDetail.View())
	}
	return a.renderNormalView()
}

func (a *App) overlay(content string) string {
	return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, content)
}

// renderNormalView renders the table with its top and bottom bars
func (a *App) renderNormalView() string {
	scope := "project " + a.state.ProjectID
	if a.state.UserID != "" {
		scope += " · user " + a.state.UserID
	}
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar("lazyscores", scope))

	a.panel.Title = "Scores"
	a.panel.Body = a.tableView.View()

	left := "[f] Filter  [s] Sort  [c] Columns  [n/p] Page  [?] Help  [q] Quit"
	barStyle := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2)
	if a.notice != "" {
		left = a.notice
		if a.noticeError {
			barStyle = barStyle.Foreground(a.theme.Error)
		} else {
			barStyle = barStyle.Foreground(a.theme.Success)
		}
	}
	bottomBar := barStyle.Render(a.formatStatusBar(left, ""))

	return lipgloss.JoinVertical(lipgloss.Left, topBar, a.panel.View(), bottomBar)
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// padding is 2 on each side
	available := max(a.state.Width-4, 0)

	leftW := runewidth.StringWidth(left)
	rightW := runewidth.StringWidth(right)
	if leftW+rightW > available {
		if available > rightW {
			return runewidth.Truncate(left, available-rightW, "…") + right
		}
		return runewidth.Truncate(left, available, "…")
	}
	return left + strings.Repeat(" ", available-leftW-rightW) + right
}
