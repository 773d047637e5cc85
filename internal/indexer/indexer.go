// Package indexer drives the ingestion pipeline: scan the corpus, detect
// changed files, extract and chunk their text, embed the chunks and persist
// everything through the store.
package indexer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/wolfmanIII/elara/internal/backend"
	"github.com/wolfmanIII/elara/internal/chunker"
	"github.com/wolfmanIII/elara/internal/config"
	"github.com/wolfmanIII/elara/internal/extract"
	"github.com/wolfmanIII/elara/internal/scanner"
	"github.com/wolfmanIII/elara/internal/store"
)

// Status classifies the outcome for one file.
type Status string

const (
	StatusIndexedOK         Status = "indexed_ok"
	StatusIndexedWithErrors Status = "indexed_with_errors"
	StatusSkippedUnchanged  Status = "skipped_unchanged"
	StatusSkippedExcluded   Status = "skipped_excluded"
	StatusFailed            Status = "failed"
)

// FileResult is the outcome of processing a single file.
type FileResult struct {
	Path         string // relative to the corpus root
	Extension    string
	Status       Status
	WasNew       bool
	WasReindexed bool
	ChunkCount   int
	ErrorMessage string
}

// Summary aggregates a whole indexing run.
type Summary struct {
	Files          []FileResult
	TotalFound     int
	TotalProcessed int
	TotalIndexed   int
	TotalSkipped   int
	TotalFailed    int
	DryRun         bool
	TestMode       bool
}

// Options tunes one indexing run. TestMode and OfflineFallback are tri-state:
// nil inherits the active profile's setting.
type Options struct {
	Force           bool
	DryRun          bool
	TestMode        *bool
	OfflineFallback *bool
	PathsFilter     []string
	ExcludedDirs    []string
	ExcludedNames   []string

	// OnStart receives the number of candidate files before processing
	// begins; OnFileProcessed fires after each one. Both are optional.
	OnStart         func(total int)
	OnFileProcessed func(r FileResult, current, total int)
}

// Indexer ties the pipeline stages together for one profile.
type Indexer struct {
	store     *store.Store
	extractor extract.Extractor
	client    backend.Client
	profile   config.Profile
}

func New(st *store.Store, extractor extract.Extractor, client backend.Client, profile config.Profile) *Indexer {
	return &Indexer{store: st, extractor: extractor, client: client, profile: profile}
}

// IndexDirectory scans root and indexes every candidate file. Individual file
// failures are recorded in the summary, not returned; only scan-level
// problems abort the run.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string, opts Options) (*Summary, error) {
	testMode := ix.profile.TestMode
	if opts.TestMode != nil {
		testMode = *opts.TestMode
	}
	offlineFallback := ix.profile.OfflineFallback
	if opts.OfflineFallback != nil {
		offlineFallback = *opts.OfflineFallback
	}

	scanned, err := scanner.Scan(root, scanner.Options{
		ExcludedDirs:  opts.ExcludedDirs,
		ExcludedNames: opts.ExcludedNames,
		PathsFilter:   opts.PathsFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	summary := &Summary{
		TotalFound: scanned.TotalFound,
		DryRun:     opts.DryRun,
		TestMode:   testMode,
	}

	for _, c := range scanned.Excluded {
		summary.Files = append(summary.Files, FileResult{
			Path:      c.RelPath,
			Extension: c.Extension,
			Status:    StatusSkippedExcluded,
		})
		summary.TotalSkipped++
	}

	total := len(scanned.Candidates)
	if opts.OnStart != nil {
		opts.OnStart(total)
	}

	for i, c := range scanned.Candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := ix.indexFile(ctx, c, opts.Force, opts.DryRun, testMode, offlineFallback)

		summary.Files = append(summary.Files, result)
		summary.TotalProcessed++
		switch result.Status {
		case StatusIndexedOK, StatusIndexedWithErrors:
			summary.TotalIndexed++
		case StatusFailed:
			summary.TotalFailed++
		default:
			summary.TotalSkipped++
		}

		if opts.OnFileProcessed != nil {
			opts.OnFileProcessed(result, i+1, total)
		}
	}

	return summary, nil
}

func (ix *Indexer) indexFile(ctx context.Context, c scanner.Candidate, force, dryRun, testMode, offlineFallback bool) FileResult {
	result := FileResult{Path: c.RelPath, Extension: c.Extension}

	data, err := os.ReadFile(c.AbsPath)
	if err != nil {
		result.Status = StatusFailed
		result.ErrorMessage = fmt.Sprintf("reading file: %v", err)
		return result
	}
	hash := strconv.FormatUint(xxhash.Sum64(data), 16)

	existing, err := ix.store.GetFileByPath(c.RelPath)
	if err != nil {
		result.Status = StatusFailed
		result.ErrorMessage = fmt.Sprintf("loading file record: %v", err)
		return result
	}

	// Unchanged content short-circuits before extraction: no chunking and
	// no embedding calls.
	if existing != nil && !force && existing.Hash == hash {
		n, _ := ix.store.CountChunksByFile(existing.ID)
		result.Status = StatusSkippedUnchanged
		result.ChunkCount = n
		return result
	}

	result.WasNew = existing == nil
	result.WasReindexed = existing != nil

	text, err := ix.extractor.Extract(c.AbsPath)
	if errors.Is(err, extract.ErrUnsupported) {
		result.Status = StatusSkippedExcluded
		result.ErrorMessage = "unsupported format or unreadable file"
		return result
	}
	if err != nil {
		result.Status = StatusFailed
		result.ErrorMessage = fmt.Sprintf("text extraction failed: %v", err)
		return result
	}

	ch := ix.profile.Chunking
	chunks := chunker.Chunk(text, ch.Min, ch.Target, ch.Max, ch.Overlap)
	result.ChunkCount = len(chunks)

	if dryRun {
		result.Status = StatusIndexedOK
		return result
	}

	hadErrors := false
	records := make([]store.Chunk, 0, len(chunks))
	for i, chunkText := range chunks {
		var vec []float32
		if !testMode {
			vec, err = ix.client.Embed(ctx, chunkText)
			if err != nil {
				if !offlineFallback {
					result.Status = StatusFailed
					result.ChunkCount = i
					result.ErrorMessage = fmt.Sprintf("embedding failed: %v", err)
					return result
				}
				hadErrors = true
				vec = nil
			}
		}

		// A wrong-length vector from a live backend is as bad as a
		// transport failure: fall back to a placeholder and flag it.
		searchable := true
		if len(vec) != ix.client.EmbeddingDimension() {
			if !testMode {
				hadErrors = true
			}
			vec = placeholderVector(chunkText, ix.client.EmbeddingDimension())
			searchable = false
		}

		records = append(records, store.Chunk{
			Index:      i,
			Content:    chunkText,
			Embedding:  vec,
			Searchable: searchable,
		})
	}

	file := &store.DocumentFile{
		Path:      c.RelPath,
		Extension: c.Extension,
		Hash:      hash,
		Size:      int64(len(data)),
	}
	if existing != nil {
		file.ID = existing.ID
	}
	if err := ix.store.ReplaceFileChunks(file, records); err != nil {
		result.Status = StatusFailed
		result.ErrorMessage = fmt.Sprintf("persisting chunks: %v", err)
		return result
	}

	if hadErrors {
		result.Status = StatusIndexedWithErrors
		result.ErrorMessage = "offline fallback embeddings were used for some chunks"
	} else {
		result.Status = StatusIndexedOK
	}
	return result
}

const hashNormalizer = 4294967295

// placeholderVector derives a deterministic vector from the chunk text so the
// embedding column keeps a consistent dimension even when no real embedding
// is available. Placeholder chunks are stored as non-searchable and never
// influence retrieval.
func placeholderVector(text string, dimension int) []float32 {
	vec := make([]float32, dimension)
	for i := range vec {
		sum := md5.Sum([]byte(text + "|" + strconv.Itoa(i)))
		head, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:8], 16, 64)
		vec[i] = float32(float64(head)/hashNormalizer*2 - 1)
	}
	return vec
}
