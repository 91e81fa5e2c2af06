// Package tablestate holds the table view state controllers. Each owns one
// slice of view state; filters, sort and pagination live in the shared
// address, column visibility is persisted on its own.
package tablestate

import (
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/urlstate"
)

// FilterState holds the user's filter conditions plus an implicit overlay of
// pinned conditions that are appended at read time and never stored.
type FilterState struct {
	field      *urlstate.Field[[]models.FilterCondition]
	filterable func(column string) bool
	implicit   []models.FilterCondition
}

// NewFilterState binds the filter slice of the address. filterable decides
// which columns conditions may reference.
func NewFilterState(store *urlstate.Store, filterable func(column string) bool, implicit ...models.FilterCondition) *FilterState {
	return &FilterState{
		field:      urlstate.Bind[[]models.FilterCondition](store, urlstate.FilterCodec{}),
		filterable: filterable,
		implicit:   models.CloneFilters(implicit),
	}
}

// Get returns the user conditions in insertion order. Conditions on columns
// that are not filterable are dropped.
func (f *FilterState) Get() []models.FilterCondition {
	stored := f.field.Get()
	out := make([]models.FilterCondition, 0, len(stored))
	for _, c := range stored {
		if !f.filterable(c.Column) || f.isPinned(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Implicit returns the pinned conditions
func (f *FilterState) Implicit() []models.FilterCondition {
	return models.CloneFilters(f.implicit)
}

// Effective returns user conditions followed by the pinned ones
func (f *FilterState) Effective() []models.FilterCondition {
	return append(f.Get(), f.Implicit()...)
}

// Set replaces the user conditions. The whole update is rejected if any
// condition is invalid. Copies of pinned conditions are stripped, so pinned
// conditions can be neither duplicated nor removed here.
func (f *FilterState) Set(conds []models.FilterCondition) error {
	next := make([]models.FilterCondition, 0, len(conds))
	for _, c := range conds {
		if err := c.Validate(); err != nil {
			return err
		}
		if !f.filterable(c.Column) {
			return models.ErrValidation("column %q is not filterable", c.Column)
		}
		if f.isPinned(c) {
			continue
		}
		next = append(next, c)
	}
	f.field.Set(models.CloneFilters(next))
	return nil
}

// Clear removes every user condition
func (f *FilterState) Clear() {
	f.field.Set(nil)
}

func (f *FilterState) isPinned(c models.FilterCondition) bool {
	for _, p := range f.implicit {
		if p.Equal(c) {
			return true
		}
	}
	return false
}
