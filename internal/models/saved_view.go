package models

import "time"

// SavedView is a named table address the user can reopen
type SavedView struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Scope       string    `yaml:"scope" json:"scope"`
	Address     string    `yaml:"address" json:"address"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
	LastUsed    time.Time `yaml:"last_used,omitempty" json:"last_used,omitempty"`
	UsageCount  int       `yaml:"usage_count" json:"usage_count"`
}
