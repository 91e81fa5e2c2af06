// Package columns declares table columns, their capabilities and how each
// cell is derived from a flattened record.
package columns

import (
	"fmt"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

// Capabilities lists what the table may do with a column
type Capabilities struct {
	Sortable   bool
	Hideable   bool
	Filterable bool
}

// RenderFunc derives a cell from the whole row, so a column may read its
// siblings. It must treat missing fields as absent.
type RenderFunc func(row models.Fields) models.DisplayValue

// ColumnDefinition declares one column
type ColumnDefinition struct {
	ID       string
	Accessor string
	Label    string
	Capabilities
	VisibleByDefault bool

	// FilterType applies when Filterable is set. Categorical columns take
	// their options from the dynamic filter options under ID.
	FilterType models.FilterType

	Render RenderFunc
}

// FilterableColumn describes a column the filter UI may offer
type FilterableColumn struct {
	Column  string
	Label   string
	Type    models.FilterType
	Options []string
}

// Registry is the immutable, ordered column schema of one table
type Registry struct {
	columns []ColumnDefinition
	byID    map[string]int
}

// NewRegistry builds a registry; column ids must be unique
func NewRegistry(defs ...ColumnDefinition) (*Registry, error) {
	r := &Registry{
		columns: make([]ColumnDefinition, 0, len(defs)),
		byID:    make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("column with label %q has no id", def.Label)
		}
		if _, dup := r.byID[def.ID]; dup {
			return nil, fmt.Errorf("duplicate column id %q", def.ID)
		}
		if def.Filterable && models.OperatorsFor(def.FilterType) == nil {
			return nil, fmt.Errorf("filterable column %q has unknown filter type %q", def.ID, def.FilterType)
		}
		r.byID[def.ID] = len(r.columns)
		r.columns = append(r.columns, def)
	}
	return r, nil
}

// Columns returns the columns in declaration order
func (r *Registry) Columns() []ColumnDefinition {
	return append([]ColumnDefinition(nil), r.columns...)
}

// Column looks a column up by id
func (r *Registry) Column(id string) (ColumnDefinition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return ColumnDefinition{}, false
	}
	return r.columns[i], true
}

// IsSortable reports whether id names a sortable column
func (r *Registry) IsSortable(id string) bool {
	c, ok := r.Column(id)
	return ok && c.Sortable
}

// IsFilterable reports whether id names a filterable column
func (r *Registry) IsFilterable(id string) bool {
	c, ok := r.Column(id)
	return ok && c.Filterable
}

// FilterableColumns returns the filter descriptors in schema order.
// Categorical descriptors depend on opts and are left out until it is
// available. Columns named in exclude are dropped from the result only.
func (r *Registry) FilterableColumns(opts *models.FilterOptions, exclude []string) []FilterableColumn {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var out []FilterableColumn
	for _, c := range r.columns {
		if !c.Filterable || skip[c.ID] {
			continue
		}
		desc := FilterableColumn{Column: c.ID, Label: c.Label, Type: c.FilterType}
		if c.FilterType == models.TypeCategorical {
			if opts == nil {
				continue
			}
			desc.Options = append([]string{}, opts.Values[c.ID]...)
		}
		out = append(out, desc)
	}
	return out
}
