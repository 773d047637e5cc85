package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wolfmanIII/elara/internal/vector"
)

// Match is one retrieval result: a chunk, where it came from, and how similar
// it is to the query vector. KeywordSearch results carry a zero similarity.
type Match struct {
	Content    string
	ChunkIndex int
	FilePath   string
	Similarity float64
}

// QueryTopK returns the topK most similar searchable chunks, ordered by
// descending cosine similarity, excluding any chunk whose similarity is not
// strictly greater than minScore. Placeholder chunks (searchable = false)
// never appear. The operation is read-only.
func (s *Store) QueryTopK(queryVec []float32, topK int, minScore float64) ([]Match, error) {
	if topK <= 0 || len(queryVec) == 0 {
		return nil, nil
	}

	rows, err := s.Query(`
		SELECT c.content, c.chunk_index, c.embedding, f.path
		FROM document_chunks c
		JOIN document_files f ON f.id = c.file_id
		WHERE c.searchable = 1`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m    Match
			blob []byte
		)
		if err := rows.Scan(&m.Content, &m.ChunkIndex, &blob, &m.FilePath); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}

		emb, err := vector.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s#%d: %w", m.FilePath, m.ChunkIndex, err)
		}

		m.Similarity = vector.Cosine(queryVec, emb)
		if m.Similarity > minScore {
			matches = append(matches, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// KeywordSearch returns up to limit chunks whose content contains any of the
// keywords as a case-insensitive substring, used by test mode and by the
// offline fallback path. No similarity ranking is applied.
func (s *Store) KeywordSearch(keywords []string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT c.content, c.chunk_index, f.path
		FROM document_chunks c
		JOIN document_files f ON f.id = c.file_id`

	var (
		conds []string
		args  []any
	)
	for _, kw := range keywords {
		conds = append(conds, `LOWER(c.content) LIKE ?`)
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " OR ")
	}
	query += ` ORDER BY f.path, c.chunk_index LIMIT ?`
	args = append(args, limit)

	rows, err := s.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Content, &m.ChunkIndex, &m.FilePath); err != nil {
			return nil, fmt.Errorf("scanning keyword row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
