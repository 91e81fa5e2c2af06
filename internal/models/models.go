package models

// AppState holds the application state
type AppState struct {
	Width    int
	Height   int
	ViewMode ViewMode

	// Scope of the table being browsed
	ProjectID string
	UserID    string

	// Column cursor used by sort and visibility keys
	ColumnCursor int
}

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	FilterMode
	ColumnsMode
	SaveViewMode
	DetailMode
)

// NewAppState creates a new AppState with defaults
func NewAppState(projectID, userID string) AppState {
	return AppState{
		Width:     80,
		Height:    24,
		ViewMode:  NormalMode,
		ProjectID: projectID,
		UserID:    userID,
	}
}

// SortDirection is the direction of an OrderBy
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// OrderBy is the single active sort key. A nil *OrderBy means no explicit sort.
type OrderBy struct {
	Column    string
	Direction SortDirection
}

// ColumnVisibilityMap maps column ids to their visibility
type ColumnVisibilityMap map[string]bool

// Clone returns an independent copy of the map
func (m ColumnVisibilityMap) Clone() ColumnVisibilityMap {
	out := make(ColumnVisibilityMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FetchRequest is the query sent to the record source
type FetchRequest struct {
	Page    int
	Limit   int
	ScopeID string
	Filter  []FilterCondition
	OrderBy *OrderBy
}

// FetchResponse is one page of records plus the unpaginated total
type FetchResponse struct {
	TotalCount int64
	Rows       []ScoreRecord
}

// FilterOptions is filter metadata fetched per scope. Values maps a column id
// to the categorical values that column can be filtered by.
type FilterOptions struct {
	Values map[string][]string
}
