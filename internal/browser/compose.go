package browser

import (
	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/models"
)

// ComposeInput is everything a fetch request is derived from
type ComposeInput struct {
	Pagination models.PaginationState
	Filters    []models.FilterCondition
	OrderBy    *models.OrderBy
	ScopeID    string

	// ScopeUserID pins the table to one user. It ends up as the last
	// filter condition, never as a request field of its own.
	ScopeUserID string
}

// Compose builds the fetch request. It has no side effects and equal inputs
// give structurally equal requests.
func Compose(in ComposeInput) models.FetchRequest {
	filters := models.CloneFilters(in.Filters)
	if in.ScopeUserID != "" {
		pinned := columns.PinnedUserFilter(in.ScopeUserID)
		kept := filters[:0]
		for _, c := range filters {
			if !c.Equal(pinned) {
				kept = append(kept, c)
			}
		}
		filters = append(kept, pinned)
	}

	var orderBy *models.OrderBy
	if in.OrderBy != nil {
		o := *in.OrderBy
		orderBy = &o
	}

	return models.FetchRequest{
		Page:    in.Pagination.PageIndex,
		Limit:   in.Pagination.PageSize,
		ScopeID: in.ScopeID,
		Filter:  filters,
		OrderBy: orderBy,
	}
}
