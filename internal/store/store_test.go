package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustReplace(t *testing.T, s *Store, path string, chunks []Chunk) *DocumentFile {
	t.Helper()
	f := &DocumentFile{Path: path, Extension: "txt", Hash: "abc", Size: 42}
	if err := s.ReplaceFileChunks(f, chunks); err != nil {
		t.Fatalf("ReplaceFileChunks(%s) error: %v", path, err)
	}
	return f
}

func TestReplaceFileChunks_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	f := mustReplace(t, s, "docs/a.txt", []Chunk{
		{Index: 0, Content: "first", Embedding: []float32{1, 0}, Searchable: true},
		{Index: 1, Content: "second", Embedding: []float32{0, 1}, Searchable: true},
	})

	got, err := s.GetFileByPath("docs/a.txt")
	if err != nil {
		t.Fatalf("GetFileByPath() error: %v", err)
	}
	if got == nil || got.Hash != "abc" || got.Size != 42 {
		t.Fatalf("GetFileByPath() = %+v", got)
	}

	n, err := s.CountChunksByFile(f.ID)
	if err != nil {
		t.Fatalf("CountChunksByFile() error: %v", err)
	}
	if n != 2 {
		t.Errorf("chunk count = %d, want 2", n)
	}
}

func TestReplaceFileChunks_ReindexKeepsIdentityAndReplacesChunks(t *testing.T) {
	s := openTestStore(t)

	first := mustReplace(t, s, "docs/a.txt", []Chunk{
		{Index: 0, Content: "old", Embedding: []float32{1, 0}, Searchable: true},
		{Index: 1, Content: "older", Embedding: []float32{0, 1}, Searchable: true},
	})

	second := mustReplace(t, s, "docs/a.txt", []Chunk{
		{Index: 0, Content: "new", Embedding: []float32{1, 1}, Searchable: true},
	})

	if first.ID != second.ID {
		t.Errorf("re-index changed file identity: %s vs %s", first.ID, second.ID)
	}

	n, _ := s.CountChunksByFile(second.ID)
	if n != 1 {
		t.Errorf("chunk count after re-index = %d, want 1 (full replace)", n)
	}
}

func TestGetFileByPath_Absent(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetFileByPath("never/indexed.txt")
	if err != nil {
		t.Fatalf("GetFileByPath() error: %v", err)
	}
	if got != nil {
		t.Errorf("GetFileByPath() = %+v, want nil", got)
	}
}

func TestQueryTopK_OrderingThresholdAndTruncation(t *testing.T) {
	s := openTestStore(t)

	// Query vector (1,0): similarity to the unit vector (s, sqrt(1-s^2)) is s.
	mkVec := func(sim float64) []float32 {
		return []float32{float32(sim), float32(sqrt(1 - sim*sim))}
	}

	mustReplace(t, s, "docs/sim.txt", []Chunk{
		{Index: 0, Content: "high", Embedding: mkVec(0.9), Searchable: true},
		{Index: 1, Content: "mid", Embedding: mkVec(0.7), Searchable: true},
		{Index: 2, Content: "low", Embedding: mkVec(0.4), Searchable: true},
	})

	matches, err := s.QueryTopK([]float32{1, 0}, 2, 0.5)
	if err != nil {
		t.Fatalf("QueryTopK() error: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("QueryTopK() = %d matches, want 2", len(matches))
	}
	if matches[0].Content != "high" || matches[1].Content != "mid" {
		t.Errorf("order = %s, %s; want high, mid", matches[0].Content, matches[1].Content)
	}
	if matches[0].Similarity < matches[1].Similarity {
		t.Error("similarities not in descending order")
	}
	for _, m := range matches {
		if m.Similarity <= 0.5 {
			t.Errorf("match %q has similarity %v <= minScore", m.Content, m.Similarity)
		}
	}
}

func TestQueryTopK_ExcludesNonSearchable(t *testing.T) {
	s := openTestStore(t)

	mustReplace(t, s, "docs/mixed.txt", []Chunk{
		{Index: 0, Content: "real", Embedding: []float32{1, 0}, Searchable: true},
		{Index: 1, Content: "placeholder", Embedding: []float32{1, 0}, Searchable: false},
	})

	matches, err := s.QueryTopK([]float32{1, 0}, 10, 0)
	if err != nil {
		t.Fatalf("QueryTopK() error: %v", err)
	}
	if len(matches) != 1 || matches[0].Content != "real" {
		t.Errorf("QueryTopK() = %+v, want only the searchable chunk", matches)
	}
}

func TestQueryTopK_StrictThreshold(t *testing.T) {
	s := openTestStore(t)

	mustReplace(t, s, "docs/edge.txt", []Chunk{
		{Index: 0, Content: "exactly", Embedding: []float32{1, 0}, Searchable: true},
	})

	// Similarity is exactly 1.0; minScore 1.0 must exclude it (strictly greater).
	matches, err := s.QueryTopK([]float32{1, 0}, 5, 1.0)
	if err != nil {
		t.Fatalf("QueryTopK() error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("QueryTopK() = %d matches, want 0 at equal-to-threshold", len(matches))
	}
}

func TestKeywordSearch(t *testing.T) {
	s := openTestStore(t)

	mustReplace(t, s, "docs/kw.txt", []Chunk{
		{Index: 0, Content: "The dragon sleeps on gold.", Embedding: []float32{1}, Searchable: true},
		{Index: 1, Content: "Nothing to see here.", Embedding: []float32{1}, Searchable: true},
	})

	matches, err := s.KeywordSearch([]string{"dragon", "elf"}, 5)
	if err != nil {
		t.Fatalf("KeywordSearch() error: %v", err)
	}
	if len(matches) != 1 || matches[0].ChunkIndex != 0 {
		t.Errorf("KeywordSearch() = %+v, want the dragon chunk", matches)
	}
	if matches[0].FilePath != "docs/kw.txt" {
		t.Errorf("FilePath = %q", matches[0].FilePath)
	}
}

func TestDeleteFilesMatching_Cascades(t *testing.T) {
	s := openTestStore(t)

	keep := mustReplace(t, s, "keep/a.txt", []Chunk{{Index: 0, Content: "x", Embedding: []float32{1}, Searchable: true}})
	gone := mustReplace(t, s, "old/b.txt", []Chunk{{Index: 0, Content: "y", Embedding: []float32{1}, Searchable: true}})

	removed, err := s.DeleteFilesMatching(regexp.MustCompile(`^old/`))
	if err != nil {
		t.Fatalf("DeleteFilesMatching() error: %v", err)
	}
	if len(removed) != 1 || removed[0] != "old/b.txt" {
		t.Errorf("removed = %v", removed)
	}

	if n, _ := s.CountChunksByFile(gone.ID); n != 0 {
		t.Errorf("chunks of deleted file survived: %d", n)
	}
	if n, _ := s.CountChunksByFile(keep.ID); n != 1 {
		t.Errorf("chunks of kept file lost: %d", n)
	}
}

func openFileStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "elara.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_ForeignKeysOnEveryConnection(t *testing.T) {
	s := openFileStore(t)
	ctx := context.Background()

	// Hold several connections at once so the pool has to create fresh
	// ones; the pragma must be set on each of them.
	var conns []*sql.Conn
	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()
	for i := 0; i < 3; i++ {
		conn, err := s.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn() error: %v", err)
		}
		conns = append(conns, conn)

		var on int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatalf("PRAGMA foreign_keys: %v", err)
		}
		if on != 1 {
			t.Errorf("connection %d: foreign_keys = %d, want 1", i, on)
		}
	}
}

func TestOpen_DeleteCascadesOnFileStore(t *testing.T) {
	s := openFileStore(t)

	f := mustReplace(t, s, "old/doc.txt", []Chunk{
		{Index: 0, Content: "gone", Embedding: []float32{1}, Searchable: true},
	})

	removed, err := s.DeleteFilesMatching(regexp.MustCompile(`^old/`))
	if err != nil {
		t.Fatalf("DeleteFilesMatching() error: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("removed = %v", removed)
	}

	var orphans int
	if err := s.QueryRow(`SELECT COUNT(*) FROM document_chunks WHERE file_id = ?`, f.ID).Scan(&orphans); err != nil {
		t.Fatalf("counting chunks: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned chunk rows after file delete = %d, want 0", orphans)
	}
}

func TestListFiles_FilterAndCounts(t *testing.T) {
	s := openTestStore(t)

	mustReplace(t, s, "manuals/core.txt", []Chunk{
		{Index: 0, Content: "a", Embedding: []float32{1}, Searchable: true},
		{Index: 1, Content: "b", Embedding: []float32{1}, Searchable: true},
	})
	mustReplace(t, s, "notes/misc.md", []Chunk{
		{Index: 0, Content: "c", Embedding: []float32{1}, Searchable: true},
	})

	files, err := s.ListFiles("manuals", 0)
	if err != nil {
		t.Fatalf("ListFiles() error: %v", err)
	}
	if len(files) != 1 || files[0].ChunkCount != 2 {
		t.Errorf("ListFiles() = %+v", files)
	}
}

func TestEmbeddingDimensions(t *testing.T) {
	s := openTestStore(t)

	mustReplace(t, s, "a.txt", []Chunk{{Index: 0, Content: "a", Embedding: make([]float32, 4), Searchable: true}})
	mustReplace(t, s, "b.txt", []Chunk{{Index: 0, Content: "b", Embedding: make([]float32, 8), Searchable: true}})

	dims, err := s.EmbeddingDimensions()
	if err != nil {
		t.Fatalf("EmbeddingDimensions() error: %v", err)
	}
	if len(dims) != 2 || dims[0] != 4 || dims[1] != 8 {
		t.Errorf("EmbeddingDimensions() = %v, want [4 8]", dims)
	}
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	// Newton's method is plenty for test vectors.
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}
