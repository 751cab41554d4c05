// Package sqlite is the single durable owner of source and release state.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/halverson/repackd/internal/logger"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrURLConflict is returned when inserting a source whose URL is
	// already registered.
	ErrURLConflict = errors.New("source url already registered")
)

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	url            TEXT NOT NULL UNIQUE,
	name           TEXT NOT NULL,
	etag           TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'online',
	download_count INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS releases (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL UNIQUE,
	uris        TEXT NOT NULL,
	file_size   TEXT NOT NULL,
	repacker    TEXT NOT NULL,
	upload_date TEXT NOT NULL,
	source_id   INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_releases_source_id ON releases(source_id);
CREATE INDEX IF NOT EXISTS idx_releases_upload_date ON releases(upload_date);
`

// Store implements durable storage for sources and releases using SQLite
type Store struct {
	db     *sql.DB
	logger logger.Logger

	// raw title -> normalized title, see normalizedTitle
	normTitles sync.Map
}

// New opens (or creates) the database at dbPath and initializes the schema.
// Foreign keys are enabled so deleting a source cascades to its releases.
func New(dbPath string, log logger.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_fk=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: log,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
