// Package prefs persists per-user table preferences in a local SQLite file.
package prefs

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// AddressEntry is one address the table was left at
type AddressEntry struct {
	ID       int
	Scope    string
	Address  string
	OpenedAt time.Time
}

// Store manages preference persistence
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the preference database at path
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(schemaSQL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create preference schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns the stored visibility map for namespace, or nil when nothing
// has been stored yet.
func (s *Store) Load(namespace string) (models.ColumnVisibilityMap, error) {
	rows, err := s.db.Query(`
		SELECT column_id, visible
		FROM column_visibility
		WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var m models.ColumnVisibilityMap
	for rows.Next() {
		var column string
		var visible bool
		if err := rows.Scan(&column, &visible); err != nil {
			return nil, err
		}
		if m == nil {
			m = models.ColumnVisibilityMap{}
		}
		m[column] = visible
	}
	return m, rows.Err()
}

// Save replaces the visibility map for namespace
func (s *Store) Save(namespace string, m models.ColumnVisibilityMap) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM column_visibility WHERE namespace = ?`, namespace); err != nil {
		return err
	}
	for column, visible := range m {
		_, err := tx.Exec(`
			INSERT INTO column_visibility (namespace, column_id, visible)
			VALUES (?, ?, ?)`, namespace, column, visible)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordAddress remembers the address a scope was left at
func (s *Store) RecordAddress(scope, address string) error {
	_, err := s.db.Exec(`
		INSERT INTO address_history (scope, address)
		VALUES (?, ?)`, scope, address)
	return err
}

// RecentAddresses returns the most recent addresses of scope, newest first
func (s *Store) RecentAddresses(scope string, limit int) ([]AddressEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, scope, address, opened_at
		FROM address_history
		WHERE scope = ?
		ORDER BY opened_at DESC, id DESC
		LIMIT ?`, scope, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []AddressEntry
	for rows.Next() {
		var e AddressEntry
		if err := rows.Scan(&e.ID, &e.Scope, &e.Address, &e.OpenedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
