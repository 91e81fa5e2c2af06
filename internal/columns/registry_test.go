package columns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

func newScoreRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(ScoreColumns(ScoreColumnOptions{LinkBaseURL: "https://example.test/"})...)
	require.NoError(t, err)
	return r
}

func TestNewRegistry_RejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(
		ColumnDefinition{ID: "a", Label: "A"},
		ColumnDefinition{ID: "a", Label: "A again"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate column id "a"`)
}

func TestNewRegistry_RejectsFilterableWithoutType(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(ColumnDefinition{ID: "a", Capabilities: Capabilities{Filterable: true}})
	require.Error(t, err)
}

func TestRegistry_ColumnsKeepsOrderAndIsACopy(t *testing.T) {
	t.Parallel()

	r := newScoreRegistry(t)
	cols := r.Columns()
	require.NotEmpty(t, cols)
	assert.Equal(t, ColTimestamp, cols[0].ID)

	cols[0].ID = "mutated"
	assert.Equal(t, ColTimestamp, r.Columns()[0].ID)
}

func TestRegistry_Capabilities(t *testing.T) {
	t.Parallel()

	r := newScoreRegistry(t)
	assert.True(t, r.IsSortable(ColValue))
	assert.False(t, r.IsSortable(ColComment))
	assert.False(t, r.IsSortable("nope"))
	assert.True(t, r.IsFilterable(ColUserID))
	assert.False(t, r.IsFilterable(ColAuthorUserID))

	ts, ok := r.Column(ColTimestamp)
	require.True(t, ok)
	assert.False(t, ts.Hideable)
}

func TestRegistry_FilterableColumns_OmitsOptionDependentUntilResolved(t *testing.T) {
	t.Parallel()

	r := newScoreRegistry(t)

	pending := r.FilterableColumns(nil, nil)
	for _, d := range pending {
		assert.NotEqual(t, models.TypeCategorical, d.Type, "column %s", d.Column)
	}
	assert.Equal(t, ColTimestamp, pending[0].Column)

	resolved := r.FilterableColumns(&models.FilterOptions{Values: map[string][]string{
		ColSource: {"API", "EVAL"},
	}}, nil)
	assert.Len(t, resolved, len(pending)+2)

	byColumn := map[string]FilterableColumn{}
	for _, d := range resolved {
		byColumn[d.Column] = d
	}
	assert.Equal(t, []string{"API", "EVAL"}, byColumn[ColSource].Options)
	assert.NotNil(t, byColumn[ColDataType].Options)
	assert.Empty(t, byColumn[ColDataType].Options)
}

func TestRegistry_FilterableColumns_Exclusion(t *testing.T) {
	t.Parallel()

	r := newScoreRegistry(t)
	got := r.FilterableColumns(nil, []string{ColUserID, "unknown"})
	for _, d := range got {
		assert.NotEqual(t, ColUserID, d.Column)
	}

	// display columns are untouched
	_, ok := r.Column(ColUserID)
	assert.True(t, ok)
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{in: 3, want: "3"},
		{in: 3.14159, want: "3.1416"},
		{in: 3.1, want: "3.1000"},
		{in: 0, want: "0"},
		{in: -12, want: "-12"},
		{in: 0.00004, want: "0.0000"},
		{in: 1e6, want: "1000000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "input %v", tt.in)
	}
}

func TestScoreColumns_CrossColumnLinks(t *testing.T) {
	t.Parallel()

	r := newScoreRegistry(t)
	row := models.Fields{
		models.FieldProjectID:     "p1",
		models.FieldTraceID:       "t 1",
		models.FieldObservationID: "o1",
		models.FieldUserID:        "u1",
	}

	trace, _ := r.Column(ColTraceID)
	assert.Equal(t, models.Link("https://example.test/project/p1/traces/t%201", "t 1"), trace.Render(row))

	obs, _ := r.Column(ColObservationID)
	assert.Equal(t, models.Link("https://example.test/project/p1/traces/t%201?observation=o1", "o1"), obs.Render(row))

	user, _ := r.Column(ColUserID)
	assert.Equal(t, models.Link("https://example.test/project/p1/users/u1", "u1"), user.Render(row))
}

func TestScoreColumns_MissingSiblingsDegrade(t *testing.T) {
	t.Parallel()

	r := newScoreRegistry(t)
	obs, _ := r.Column(ColObservationID)

	assert.Equal(t, models.Text("o1"), obs.Render(models.Fields{
		models.FieldProjectID:     "p1",
		models.FieldObservationID: "o1",
	}))
	assert.True(t, obs.Render(models.Fields{models.FieldTraceID: "t1"}).IsAbsent())

	// every column tolerates an empty row
	for _, c := range r.Columns() {
		assert.NotPanics(t, func() {
			assert.True(t, c.Render(models.Fields{}).IsAbsent(), "column %s", c.ID)
		})
	}
}

func TestScoreColumns_Value(t *testing.T) {
	t.Parallel()

	r := newScoreRegistry(t)
	value, _ := r.Column(ColValue)

	assert.Equal(t, models.Text("3.1416"), value.Render(models.Fields{models.FieldValue: 3.14159}))
	assert.Equal(t, models.Text("good"), value.Render(models.Fields{
		models.FieldValue:       1.0,
		models.FieldDataType:    "CATEGORICAL",
		models.FieldStringValue: "good",
	}))
	assert.Equal(t, models.Text("1"), value.Render(models.Fields{
		models.FieldValue:    1.0,
		models.FieldDataType: "NUMERIC",
	}))
}

func TestScoreColumns_TimestampUsesFormatter(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(ScoreColumns(ScoreColumnOptions{
		FormatTime: func(t time.Time) string { return t.Format("2006-01-02") },
	})...)
	require.NoError(t, err)

	ts, _ := r.Column(ColTimestamp)
	got := ts.Render(models.Fields{models.FieldTimestamp: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)})
	assert.Equal(t, models.Text("2024-03-09"), got)
}
