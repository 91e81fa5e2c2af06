// Package bookmarks stores named table addresses in a YAML file.
package bookmarks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/urlstate"
)

// FileName is the bookmarks file inside the state directory
const FileName = "views.yaml"

// Manager manages saved views
type Manager struct {
	path  string
	views []models.SavedView
	now   func() time.Time
}

// NewManager creates a manager backed by dir/views.yaml
func NewManager(dir string) (*Manager, error) {
	path := filepath.Join(dir, FileName)

	m := &Manager{
		path:  path,
		views: []models.SavedView{},
		now:   time.Now,
	}

	if _, err := os.Stat(path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load saved views: %w", err)
		}
	}

	return m, nil
}

// Load loads saved views from the YAML file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read views file: %w", err)
	}

	var views []models.SavedView
	if err := yaml.Unmarshal(data, &views); err != nil {
		return fmt.Errorf("failed to parse views: %w", err)
	}
	if views == nil {
		views = []models.SavedView{}
	}
	m.views = views
	return nil
}

// Save writes saved views to the YAML file
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.views)
	if err != nil {
		return fmt.Errorf("failed to marshal views: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write views file: %w", err)
	}

	return nil
}

// normalizeAddress parses an address (bare query or full URL) and re-encodes
// it so equal views compare equal.
func normalizeAddress(address string) string {
	return urlstate.Parse(address).Encode()
}

// Add saves a new view. Names are unique per scope, case-insensitively.
func (m *Manager) Add(name, description, scope, address string) (*models.SavedView, error) {
	name = strings.TrimSpace(name)
	scope = strings.TrimSpace(scope)

	if name == "" {
		return nil, fmt.Errorf("view name cannot be empty")
	}
	if scope == "" {
		return nil, fmt.Errorf("view scope cannot be empty")
	}

	if _, ok := m.FindByName(scope, name); ok {
		return nil, fmt.Errorf("a view named '%s' already exists for %s (names are case-insensitive)", name, scope)
	}

	now := m.now()
	view := models.SavedView{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Scope:       scope,
		Address:     normalizeAddress(address),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.views = append(m.views, view)

	if err := m.Save(); err != nil {
		return nil, fmt.Errorf("failed to save view: %w", err)
	}

	return &view, nil
}

// Update replaces the address and description of a view
func (m *Manager) Update(id, description, address string) error {
	for i, v := range m.views {
		if v.ID == id {
			m.views[i].Description = strings.TrimSpace(description)
			m.views[i].Address = normalizeAddress(address)
			m.views[i].UpdatedAt = m.now()
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save view: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view with ID '%s' was not found", id)
}

// Delete deletes a view by ID
func (m *Manager) Delete(id string) error {
	for i, v := range m.views {
		if v.ID == id {
			m.views = append(m.views[:i], m.views[i+1:]...)
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save views after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view with ID '%s' was not found", id)
}

// Get returns a view by ID
func (m *Manager) Get(id string) (*models.SavedView, error) {
	for _, v := range m.views {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("view with ID '%s' was not found", id)
}

// FindByName looks a view up by scope and case-insensitive name
func (m *Manager) FindByName(scope, name string) (models.SavedView, bool) {
	for _, v := range m.views {
		if v.Scope == scope && strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return models.SavedView{}, false
}

// GetAll returns every view. An empty scope means all scopes.
func (m *Manager) GetAll(scope string) []models.SavedView {
	out := []models.SavedView{}
	for _, v := range m.views {
		if scope == "" || v.Scope == scope {
			out = append(out, v)
		}
	}
	return out
}

// RecordUsage updates usage statistics for a view
func (m *Manager) RecordUsage(id string) error {
	for i, v := range m.views {
		if v.ID == id {
			m.views[i].UsageCount++
			m.views[i].LastUsed = m.now()
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view with ID '%s' was not found", id)
}

// GetRecent returns the views of scope ordered by last use
func (m *Manager) GetRecent(scope string, limit int) []models.SavedView {
	sorted := m.GetAll(scope)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastUsed.After(sorted[j].LastUsed)
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	return sorted
}
