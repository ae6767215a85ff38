package localstate

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// SQLite reads a per-origin storage database: a `data` table of key/value rows, the layout
// browsers use for localStorage. The file is always opened read-only.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the storage database at path
func OpenSQLite(path string) (*SQLite, error) {
	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Get returns the value stored under key
func (s *SQLite) Get(key string) (string, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM data WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", key, err)
	}
	return string(value), nil
}

// Close closes the database
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
