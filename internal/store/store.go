// Package store persists the document corpus: one row per indexed file and
// one row per chunk, with the chunk embeddings stored as float32 blobs. It
// also implements the retrieval query: top-K chunks by cosine similarity
// above a score threshold.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB with elara-specific helpers.
type Store struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path. The pragmas go
// in the DSN so every pooled connection gets them, in particular foreign-key
// enforcement, which the chunk cascade delete depends on.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{DB: sqlDB, path: path}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing). The
// pool is capped at one connection: each in-memory connection is its own
// empty database.
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s := &Store{DB: sqlDB, path: ":memory:"}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// migrate runs all schema migrations.
func (s *Store) migrate() error {
	_, err := s.Exec(schema)
	return err
}

// schema contains the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS document_files (
    id TEXT PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    extension TEXT NOT NULL DEFAULT '',
    hash TEXT NOT NULL DEFAULT '',
    size INTEGER NOT NULL DEFAULT 0,
    indexed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS document_chunks (
    id TEXT PRIMARY KEY,
    file_id TEXT NOT NULL REFERENCES document_files(id) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    embedding BLOB NOT NULL,
    searchable INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_chunks_file ON document_chunks(file_id);
CREATE INDEX IF NOT EXISTS idx_chunks_searchable ON document_chunks(searchable);
`
