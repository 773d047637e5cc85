package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfmanIII/elara/internal/vector"
)

// DocumentFile is one indexed corpus file.
type DocumentFile struct {
	ID         string
	Path       string // relative to the corpus root, unique
	Extension  string
	Hash       string // xxhash64 hex of the file content
	Size       int64
	IndexedAt  time.Time
	ChunkCount int // populated by ListFiles
}

// Chunk is one retrievable unit of a file's text.
type Chunk struct {
	Index      int
	Content    string
	Embedding  []float32
	Searchable bool
}

// GetFileByPath returns the file record for the given relative path, or nil
// when the path has never been indexed.
func (s *Store) GetFileByPath(path string) (*DocumentFile, error) {
	row := s.QueryRow(
		`SELECT id, path, extension, hash, size, indexed_at FROM document_files WHERE path = ?`,
		path,
	)

	var f DocumentFile
	err := row.Scan(&f.ID, &f.Path, &f.Extension, &f.Hash, &f.Size, &f.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading file %s: %w", path, err)
	}
	return &f, nil
}

// CountChunksByFile returns the number of chunks stored for a file.
func (s *Store) CountChunksByFile(fileID string) (int, error) {
	var n int
	err := s.QueryRow(`SELECT COUNT(*) FROM document_chunks WHERE file_id = ?`, fileID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ReplaceFileChunks upserts the file record and replaces all of its chunks in
// a single transaction: the old chunks are deleted, the new ones inserted,
// and the file metadata refreshed together. A chunk is never visible
// half-written.
func (s *Store) ReplaceFileChunks(f *DocumentFile, chunks []Chunk) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.IndexedAt = time.Now().UTC()

	_, err = tx.Exec(
		`INSERT INTO document_files (id, path, extension, hash, size, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		     extension = excluded.extension,
		     hash = excluded.hash,
		     size = excluded.size,
		     indexed_at = excluded.indexed_at`,
		f.ID, f.Path, f.Extension, f.Hash, f.Size, f.IndexedAt,
	)
	if err != nil {
		return fmt.Errorf("saving file %s: %w", f.Path, err)
	}

	// The upsert keeps the original id on conflict; read it back so the
	// chunk rows reference the right row.
	if err := tx.QueryRow(`SELECT id FROM document_files WHERE path = ?`, f.Path).Scan(&f.ID); err != nil {
		return fmt.Errorf("resolving file id for %s: %w", f.Path, err)
	}

	if _, err := tx.Exec(`DELETE FROM document_chunks WHERE file_id = ?`, f.ID); err != nil {
		return fmt.Errorf("deleting old chunks for %s: %w", f.Path, err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO document_chunks (id, file_id, chunk_index, content, embedding, searchable)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err := stmt.Exec(uuid.NewString(), f.ID, c.Index, c.Content, vector.Encode(c.Embedding), c.Searchable)
		if err != nil {
			return fmt.Errorf("inserting chunk %d of %s: %w", c.Index, f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks for %s: %w", f.Path, err)
	}
	return nil
}

// ListFiles returns indexed files ordered by path, with chunk counts. A
// non-empty pathFilter keeps only paths containing it (case-insensitive);
// limit > 0 caps the result.
func (s *Store) ListFiles(pathFilter string, limit int) ([]DocumentFile, error) {
	query := `
		SELECT f.id, f.path, f.extension, f.hash, f.size, f.indexed_at, COUNT(c.id)
		FROM document_files f
		LEFT JOIN document_chunks c ON c.file_id = f.id`

	var args []any
	if pathFilter != "" {
		query += ` WHERE LOWER(f.path) LIKE ?`
		args = append(args, "%"+strings.ToLower(pathFilter)+"%")
	}
	query += ` GROUP BY f.id ORDER BY f.path ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []DocumentFile
	for rows.Next() {
		var f DocumentFile
		if err := rows.Scan(&f.ID, &f.Path, &f.Extension, &f.Hash, &f.Size, &f.IndexedAt, &f.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFilesMatching removes every file whose path matches the pattern,
// cascading to its chunks, and returns the removed paths.
func (s *Store) DeleteFilesMatching(pattern *regexp.Regexp) ([]string, error) {
	files, err := s.ListFiles("", 0)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, f := range files {
		if !pattern.MatchString(f.Path) {
			continue
		}
		if _, err := s.Exec(`DELETE FROM document_files WHERE id = ?`, f.ID); err != nil {
			return removed, fmt.Errorf("deleting %s: %w", f.Path, err)
		}
		removed = append(removed, f.Path)
	}
	return removed, nil
}

// EmbeddingDimensions returns the distinct vector lengths currently stored,
// ascending. More than one entry means the corpus spans profiles with
// different dimensions and needs a re-index.
func (s *Store) EmbeddingDimensions() ([]int, error) {
	rows, err := s.Query(`SELECT DISTINCT LENGTH(embedding) / 4 FROM document_chunks ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("inspecting embedding dimensions: %w", err)
	}
	defer rows.Close()

	var dims []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, rows.Err()
}
