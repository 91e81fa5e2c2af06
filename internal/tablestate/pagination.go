package tablestate

import (
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/urlstate"
)

// PaginationUpdate carries the fields to replace; nil fields keep their value
type PaginationUpdate struct {
	PageIndex *int
	PageSize  *int
}

// PageIndex builds an update of the page index only
func PageIndex(i int) PaginationUpdate {
	return PaginationUpdate{PageIndex: &i}
}

// PageSize builds an update of the page size only
func PageSize(size int) PaginationUpdate {
	return PaginationUpdate{PageSize: &size}
}

// Page builds an update of both fields
func Page(index, size int) PaginationUpdate {
	return PaginationUpdate{PageIndex: &index, PageSize: &size}
}

// Pagination holds the page index and size. Changing the size never resets
// the index; callers that want to start over pass both fields.
type Pagination struct {
	field *urlstate.Field[models.PaginationState]
}

// NewPagination binds the pagination slice of the address
func NewPagination(store *urlstate.Store) *Pagination {
	return &Pagination{field: urlstate.Bind[models.PaginationState](store, urlstate.PaginationCodec{})}
}

// Get returns the current state
func (p *Pagination) Get() models.PaginationState {
	return p.field.Get()
}

// Set applies a partial update
func (p *Pagination) Set(u PaginationUpdate) error {
	next := p.Get()
	if u.PageIndex != nil {
		next.PageIndex = *u.PageIndex
	}
	if u.PageSize != nil {
		next.PageSize = *u.PageSize
	}
	if next.PageIndex < 0 {
		return models.ErrValidation("page index must not be negative, got %d", next.PageIndex)
	}
	if next.PageSize <= 0 || next.PageSize > models.MaxPageSize {
		return models.ErrValidation("page size must be between 1 and %d, got %d", models.MaxPageSize, next.PageSize)
	}
	p.field.Set(next)
	return nil
}

// PageCount derives the number of pages for a total row count
func (p *Pagination) PageCount(total int64) int {
	return p.Get().PageCount(total)
}

// Next moves one page forward if the total allows it
func (p *Pagination) Next(total int64) bool {
	cur := p.Get()
	if cur.PageIndex+1 >= cur.PageCount(total) {
		return false
	}
	return p.Set(PageIndex(cur.PageIndex+1)) == nil
}

// Prev moves one page back
func (p *Pagination) Prev() bool {
	cur := p.Get()
	if cur.PageIndex == 0 {
		return false
	}
	return p.Set(PageIndex(cur.PageIndex-1)) == nil
}
