package models

const (
	// DefaultPageSize is the page size used when none is addressed.
	DefaultPageSize = 50

	// MaxPageSize is the largest page size accepted from the address.
	MaxPageSize = 1000
)

// PaginationState holds the page index (0-based) and page size
type PaginationState struct {
	PageIndex int
	PageSize  int
}

// DefaultPagination returns the state used when nothing is addressed
func DefaultPagination() PaginationState {
	return PaginationState{PageIndex: 0, PageSize: DefaultPageSize}
}

// Valid reports whether the state satisfies its invariants
func (p PaginationState) Valid() bool {
	return p.PageIndex >= 0 && p.PageSize > 0 && p.PageSize <= MaxPageSize
}

// PageCount returns ceil(total / pageSize); 0 when total is 0
func (p PaginationState) PageCount(total int64) int {
	if total <= 0 || p.PageSize <= 0 {
		return 0
	}
	size := int64(p.PageSize)
	return int((total + size - 1) / size)
}

// Offset returns the row offset of the first row on the page
func (p PaginationState) Offset() int {
	return p.PageIndex * p.PageSize
}
