// CLAUDE:SUMMARY SQLite handle for focus audit reports, opened through internal/dbopen with the report schema.
// Package store persists focus audit reports in SQLite.
package store

import (
	"database/sql"
	"errors"

	"github.com/hazyhaar/focuskit/internal/dbopen"
)

// ErrNotFound is returned when a report id is unknown.
var ErrNotFound = errors.New("store: report not found")

// Store is the report database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the report database at path and applies the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
