package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/tablestate"
	"github.com/rebeliceyang/lazyscores/internal/urlstate"
)

func strPtr(s string) *string { return &s }

func scoreRegistry(t *testing.T) *columns.Registry {
	t.Helper()
	reg, err := columns.NewRegistry(columns.ScoreColumns(columns.ScoreColumnOptions{LinkBaseURL: "https://example.test"})...)
	require.NoError(t, err)
	return reg
}

func newBrowser(t *testing.T, cfg Config, store *urlstate.Store) *Browser {
	t.Helper()
	if cfg.ScopeID == "" {
		cfg.ScopeID = "p1"
	}
	if cfg.DefaultOrderBy == nil {
		cfg.DefaultOrderBy = columns.DefaultOrderBy()
	}
	b, err := New(cfg, scoreRegistry(t), store, nil)
	require.NoError(t, err)
	return b
}

func response(ids ...string) models.FetchResponse {
	rows := make([]models.ScoreRecord, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.ScoreRecord{
			ID: id, ProjectID: "p1", Name: "accuracy", Source: "API", DataType: "NUMERIC",
			Value: 1, Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return models.FetchResponse{TotalCount: int64(len(ids)), Rows: rows}
}

func rowIDs(rows []models.ViewRow) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

// === Request composition ===

func TestBrowser_InitialRequest(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, nil)
	req := b.Request()

	assert.Equal(t, 0, req.Page)
	assert.Equal(t, 50, req.Limit)
	assert.Equal(t, "p1", req.ScopeID)
	assert.NotNil(t, req.Filter)
	assert.Empty(t, req.Filter)
	require.NotNil(t, req.OrderBy)
	assert.Equal(t, models.OrderBy{Column: "timestamp", Direction: models.Descending}, *req.OrderBy)
}

func TestBrowser_PageSizeChangeKeepsOtherFields(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, nil)
	before := b.Request()

	require.NoError(t, b.Pagination.Set(tablestate.PageSize(25)))
	after := b.Request()

	assert.Equal(t, 25, after.Limit)
	assert.Equal(t, before.Page, after.Page)
	assert.Equal(t, before.Filter, after.Filter)
	assert.Equal(t, before.OrderBy, after.OrderBy)
	assert.Equal(t, "pageIndex=0&pageSize=25", b.Address())
}

func TestBrowser_PinnedUserFilterIsLast(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{ScopeUserID: "u1"}, nil)
	accuracy := models.FilterCondition{Column: "name", Type: models.TypeString, Operator: models.OpEqual, Value: "accuracy"}

	require.NoError(t, b.Filters.Set([]models.FilterCondition{accuracy}))
	req := b.Request()

	require.Len(t, req.Filter, 2)
	assert.Equal(t, accuracy, req.Filter[0])
	assert.Equal(t, columns.PinnedUserFilter("u1"), req.Filter[1])
	assert.NotContains(t, b.Address(), "u1")
}

func TestBrowser_AddressReload(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, nil)
	require.NoError(t, b.Pagination.Set(tablestate.Page(3, 25)))
	require.NoError(t, b.OrderBy.Set(&models.OrderBy{Column: "value", Direction: models.Ascending}))
	require.NoError(t, b.Filters.Set([]models.FilterCondition{
		{Column: "source", Type: models.TypeCategorical, Operator: models.OpAnyOf, Value: []string{"API", "EVAL"}},
		{Column: "value", Type: models.TypeNumber, Operator: models.OpGreaterOrEqual, Value: 0.5},
	}))

	reloaded := newBrowser(t, Config{}, urlstate.Parse("lazyscores://scores?"+b.Address()))

	assert.Equal(t, b.Request(), reloaded.Request())
}

func TestBrowser_UnsortableAddressedColumnFallsBack(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, urlstate.Parse("orderBy=comment-ASC"))

	assert.Equal(t, columns.DefaultOrderBy(), b.Request().OrderBy)
}

func TestBrowser_RequiresScope(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, scoreRegistry(t), nil, nil)
	assert.Error(t, err)
}

// === Fetch cycle ===

func TestBrowser_DiscardsSupersededResponse(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, nil)
	ticketA, ctxA, _ := b.BeginFetch(context.Background())
	ticketB, ctxB, _ := b.BeginFetch(context.Background())

	assert.ErrorIs(t, ctxA.Err(), context.Canceled, "superseded fetch is cancelled")
	assert.NoError(t, ctxB.Err())

	assert.False(t, b.ApplyFetch(ticketA, response("a1", "a2"), nil))
	assert.Equal(t, StatusLoading, b.State().Status)

	assert.True(t, b.ApplyFetch(ticketB, response("b1"), nil))
	assert.False(t, b.ApplyFetch(ticketA, response("a1", "a2"), nil))

	st := b.State()
	assert.Equal(t, StatusSuccess, st.Status)
	assert.Equal(t, []string{"b1"}, rowIDs(st.Rows))
	assert.Equal(t, int64(1), st.TotalCount)
}

func TestBrowser_LoadingStateHasNoRows(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, nil)
	assert.Equal(t, StatusIdle, b.State().Status)

	ticket, _, _ := b.BeginFetch(context.Background())
	require.True(t, b.ApplyFetch(ticket, response("r1"), nil))

	b.BeginFetch(context.Background())
	st := b.State()
	assert.Equal(t, StatusLoading, st.Status)
	assert.Empty(t, st.Rows)
}

func TestBrowser_FetchError(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, nil)
	ticket, _, _ := b.BeginFetch(context.Background())

	assert.True(t, b.ApplyFetch(ticket, models.FetchResponse{}, errors.New("connection refused")))
	st := b.State()
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "connection refused", st.Err)
	assert.Empty(t, st.Rows)
}

type fakeSource struct {
	resp    models.FetchResponse
	err     error
	lastReq models.FetchRequest
}

func (f *fakeSource) FetchScores(_ context.Context, req models.FetchRequest) (models.FetchResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeSource) FetchFilterOptions(context.Context, string) (models.FilterOptions, error) {
	return models.FilterOptions{}, nil
}

func TestBrowser_Load(t *testing.T) {
	t.Parallel()

	src := &fakeSource{resp: response("r1", "r2")}
	b := newBrowser(t, Config{}, nil)

	require.NoError(t, b.Load(context.Background(), src))
	assert.Equal(t, b.Request(), src.lastReq)
	assert.Equal(t, []string{"r1", "r2"}, rowIDs(b.State().Rows))

	src.err = errors.New("boom")
	assert.Error(t, b.Load(context.Background(), src))
	assert.Equal(t, StatusError, b.State().Status)
}

func TestBrowser_ClampPage(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, urlstate.Parse("pageIndex=5&pageSize=50"))
	ticket, _, _ := b.BeginFetch(context.Background())
	resp := response("r1")
	resp.TotalCount = 120
	require.True(t, b.ApplyFetch(ticket, resp, nil))

	assert.True(t, b.ClampPage())
	assert.Equal(t, 2, b.Pagination.Get().PageIndex)
	assert.False(t, b.ClampPage(), "already in range")
}

func TestBrowser_ClampPageEmptyResult(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, urlstate.Parse("pageIndex=3"))
	ticket, _, _ := b.BeginFetch(context.Background())
	require.True(t, b.ApplyFetch(ticket, models.FetchResponse{}, nil))

	assert.True(t, b.ClampPage())
	assert.Equal(t, 0, b.Pagination.Get().PageIndex)
}

// === Columns ===

func TestBrowser_FilterableColumnsFollowOptions(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{ExcludeFilterColumns: []string{"comment"}}, nil)
	assert.False(t, b.FilterOptionsLoaded())
	assert.Len(t, b.FilterableColumns(), 7)

	b.ApplyFilterOptions(models.FilterOptions{Values: map[string][]string{"source": {"API", "EVAL"}}})
	assert.True(t, b.FilterOptionsLoaded())

	cols := b.FilterableColumns()
	assert.Len(t, cols, 9)
	for _, c := range cols {
		assert.NotEqual(t, "comment", c.Column)
		if c.Column == "source" {
			assert.Equal(t, []string{"API", "EVAL"}, c.Options)
		}
		if c.Column == "dataType" {
			assert.NotNil(t, c.Options)
			assert.Empty(t, c.Options)
		}
	}
}

func TestBrowser_ScopedUserColumnNotOffered(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{ScopeUserID: "u1"}, nil)
	for _, c := range b.FilterableColumns() {
		assert.NotEqual(t, "userId", c.Column)
	}
}

func TestBrowser_VisibleColumnsUseDefaults(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, Config{}, nil)
	var ids []string
	for _, c := range b.VisibleColumns() {
		ids = append(ids, c.ID)
	}

	assert.Equal(t, "timestamp", ids[0])
	assert.NotContains(t, ids, "id")
	assert.NotContains(t, ids, "dataType")
	assert.NotContains(t, ids, "authorUserId")
	assert.Len(t, ids, 9)

	require.NoError(t, b.Visibility.Toggle("id"))
	assert.Len(t, b.VisibleColumns(), 10)
}

// === Projection ===

func TestProject_RendersEveryColumn(t *testing.T) {
	t.Parallel()

	cols := scoreRegistry(t).Columns()
	rec := models.ScoreRecord{
		ID: "s1", ProjectID: "p1", Name: "accuracy", Source: "API", DataType: "NUMERIC", Value: 0.87654,
		TraceID: strPtr("t1"), UserID: strPtr("u1"),
	}

	rows := Project([]models.ScoreRecord{rec}, cols, nil)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, "s1", row.ID)
	assert.Len(t, row.Cells, len(cols))
	assert.Equal(t, models.Text("0.8765"), row.Cell("value"))
	assert.Equal(t, models.DisplayLink, row.Cell("traceId").Kind)
	assert.True(t, row.Cell("comment").IsAbsent())
	assert.True(t, row.Cell("timestamp").IsAbsent())
	assert.Equal(t, "p1", row.Fields[models.FieldProjectID])
}

func TestProject_RenderPanicYieldsAbsent(t *testing.T) {
	t.Parallel()

	cols := []columns.ColumnDefinition{
		{ID: "boom", Render: func(models.Fields) models.DisplayValue { panic("bad render") }},
		{ID: "bare"},
		{ID: "name", Render: func(f models.Fields) models.DisplayValue {
			s, _ := f.String(models.FieldName)
			return models.Text(s)
		}},
	}

	rows := Project([]models.ScoreRecord{{ID: "s1", Name: "accuracy"}}, cols, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Len(t, rows, 1)

	assert.True(t, rows[0].Cell("boom").IsAbsent())
	assert.True(t, rows[0].Cell("bare").IsAbsent())
	assert.Equal(t, models.Text("accuracy"), rows[0].Cell("name"))
}

func TestCompose_IsPure(t *testing.T) {
	t.Parallel()

	filters := []models.FilterCondition{
		{Column: "source", Type: models.TypeCategorical, Operator: models.OpAnyOf, Value: []string{"API"}},
		columns.PinnedUserFilter("u1"),
	}
	in := ComposeInput{
		Pagination:  models.PaginationState{PageIndex: 1, PageSize: 10},
		Filters:     filters,
		OrderBy:     &models.OrderBy{Column: "name", Direction: models.Ascending},
		ScopeID:     "p1",
		ScopeUserID: "u1",
	}

	first := Compose(in)
	second := Compose(in)
	assert.Equal(t, first, second)

	require.Len(t, first.Filter, 2, "pinned condition appears once")
	assert.Equal(t, columns.PinnedUserFilter("u1"), first.Filter[1])

	first.Filter[0].Value.([]string)[0] = "mutated"
	first.OrderBy.Column = "mutated"
	assert.Equal(t, "API", filters[0].Value.([]string)[0])
	assert.Equal(t, "name", in.OrderBy.Column)
}
