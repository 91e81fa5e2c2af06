package tablestate

import (
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/urlstate"
)

// OrderByState holds the single active sort key
type OrderByState struct {
	field    *urlstate.Field[*models.OrderBy]
	def      *models.OrderBy
	sortable func(column string) bool
}

// NewOrderByState binds the sort slice of the address. def is used whenever
// the address yields no sort; nil means no explicit sort.
func NewOrderByState(store *urlstate.Store, def *models.OrderBy, sortable func(column string) bool) *OrderByState {
	return &OrderByState{
		field:    urlstate.Bind[*models.OrderBy](store, urlstate.OrderByCodec{Default: def}),
		def:      def,
		sortable: sortable,
	}
}

// Get returns the active sort, or nil for none. An addressed column that is
// not sortable yields the default.
func (o *OrderByState) Get() *models.OrderBy {
	ob := o.field.Get()
	if ob != nil && !o.sortable(ob.Column) {
		return o.Default()
	}
	return ob
}

// Default returns a copy of the construction default
func (o *OrderByState) Default() *models.OrderBy {
	if o.def == nil {
		return nil
	}
	d := *o.def
	return &d
}

// Set replaces the sort; nil clears it
func (o *OrderByState) Set(ob *models.OrderBy) error {
	if ob != nil {
		if ob.Direction != models.Ascending && ob.Direction != models.Descending {
			return models.ErrValidation("invalid sort direction %q", ob.Direction)
		}
		if !o.sortable(ob.Column) {
			return models.ErrValidation("column %q is not sortable", ob.Column)
		}
		copied := *ob
		ob = &copied
	}
	o.field.Set(ob)
	return nil
}

// Toggle cycles the sort on column: descending, ascending, then none
func (o *OrderByState) Toggle(column string) error {
	current := o.Get()
	switch {
	case current == nil || current.Column != column:
		return o.Set(&models.OrderBy{Column: column, Direction: models.Descending})
	case current.Direction == models.Descending:
		return o.Set(&models.OrderBy{Column: column, Direction: models.Ascending})
	default:
		return o.Set(nil)
	}
}
