package tablestate

import (
	"fmt"

	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/models"
)

// VisibilityPersister stores column visibility outside the address
type VisibilityPersister interface {
	Load(namespace string) (models.ColumnVisibilityMap, error)
	Save(namespace string, m models.ColumnVisibilityMap) error
}

// ColumnVisibility holds per-column visibility for one table namespace
type ColumnVisibility struct {
	namespace string
	persister VisibilityPersister
	current   models.ColumnVisibilityMap

	// hideable is learned from the last reconciled schema
	hideable map[string]bool
}

// NewColumnVisibility loads the persisted map for namespace. A nil persister
// keeps visibility in memory only.
func NewColumnVisibility(namespace string, persister VisibilityPersister) (*ColumnVisibility, error) {
	v := &ColumnVisibility{
		namespace: namespace,
		persister: persister,
		current:   models.ColumnVisibilityMap{},
	}
	if persister == nil {
		return v, nil
	}
	loaded, err := persister.Load(namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to load column visibility for %q: %w", namespace, err)
	}
	if loaded != nil {
		v.current = loaded.Clone()
	}
	return v, nil
}

// Get returns a copy of the visibility map
func (v *ColumnVisibility) Get() models.ColumnVisibilityMap {
	return v.current.Clone()
}

// Visible reports whether a column is shown. Unknown ids are hidden.
func (v *ColumnVisibility) Visible(id string) bool {
	return v.current[id]
}

// Set replaces the map and persists it. Columns that cannot be hidden stay
// visible.
func (v *ColumnVisibility) Set(m models.ColumnVisibilityMap) error {
	next := m.Clone()
	for id, hideable := range v.hideable {
		if !hideable {
			next[id] = true
		}
	}
	v.current = next
	return v.save()
}

// Toggle flips one hideable column
func (v *ColumnVisibility) Toggle(id string) error {
	hideable, known := v.hideable[id]
	if !known {
		return models.ErrValidation("unknown column %q", id)
	}
	if !hideable {
		return models.ErrValidation("column %q cannot be hidden", id)
	}
	next := v.current.Clone()
	next[id] = !next[id]
	return v.Set(next)
}

// Reconcile aligns the map with a schema: ids missing from the map take the
// schema default, ids no longer in the schema are dropped and surviving ids
// keep their value. The result is persisted when it changed.
func (v *ColumnVisibility) Reconcile(cols []columns.ColumnDefinition) models.ColumnVisibilityMap {
	next := make(models.ColumnVisibilityMap, len(cols))
	v.hideable = make(map[string]bool, len(cols))
	for _, c := range cols {
		v.hideable[c.ID] = c.Hideable
		visible, ok := v.current[c.ID]
		if !ok {
			visible = c.VisibleByDefault
		}
		if !c.Hideable {
			visible = true
		}
		next[c.ID] = visible
	}

	changed := len(next) != len(v.current)
	for id, visible := range next {
		if prev, ok := v.current[id]; !ok || prev != visible {
			changed = true
		}
	}
	v.current = next
	if changed {
		// a failed save keeps the reconciled map in memory
		_ = v.save()
	}
	return v.current.Clone()
}

func (v *ColumnVisibility) save() error {
	if v.persister == nil {
		return nil
	}
	if err := v.persister.Save(v.namespace, v.current.Clone()); err != nil {
		return fmt.Errorf("failed to save column visibility for %q: %w", v.namespace, err)
	}
	return nil
}
