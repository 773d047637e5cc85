// Package scanner enumerates the document corpus and decides which files are
// candidates for indexing, before any file content is read.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Candidate is a regular file that passed every filter and should be
// considered for indexing.
type Candidate struct {
	AbsPath   string
	RelPath   string // slash-separated, relative to the scan root
	Extension string // lowercase, without the dot; empty when none
}

// Options narrows the scan. All filters operate on slash-separated relative
// paths and are applied in order: directory exclusion, filename-pattern
// exclusion, inclusion prefix filter.
type Options struct {
	// ExcludedDirs excludes any file whose relative path contains one of
	// these names as a path segment.
	ExcludedDirs []string

	// ExcludedNames excludes files whose base name matches one of these
	// glob patterns (doublestar syntax).
	ExcludedNames []string

	// PathsFilter, when non-empty, keeps only files equal to or nested
	// under one of these relative prefixes.
	PathsFilter []string
}

// Result is the outcome of a scan. Excluded entries were rejected by a
// filter without being opened; TotalFound counts every regular file seen.
type Result struct {
	Candidates []Candidate
	Excluded   []Candidate
	TotalFound int
}

// Scan walks root recursively and classifies every regular file. Unreadable
// entries are skipped rather than aborting the walk.
func Scan(root string, opts Options) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("scanner: resolve root: %w", err)
	}

	res := &Result{}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		res.TotalFound++

		c := Candidate{
			AbsPath:   path,
			RelPath:   rel,
			Extension: extensionOf(d.Name()),
		}

		if inExcludedDir(rel, opts.ExcludedDirs) ||
			matchesExcludedName(d.Name(), opts.ExcludedNames) ||
			!matchesPathsFilter(rel, opts.PathsFilter) {
			res.Excluded = append(res.Excluded, c)
			return nil
		}

		res.Candidates = append(res.Candidates, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: traversal: %w", err)
	}

	return res, nil
}

func extensionOf(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.ToLower(ext)
}

// inExcludedDir reports whether any directory segment of relPath matches an
// excluded name.
func inExcludedDir(relPath string, excludedDirs []string) bool {
	if len(excludedDirs) == 0 {
		return false
	}

	segments := strings.Split(relPath, "/")
	dirSegments := segments[:len(segments)-1] // drop the file name

	for _, dir := range excludedDirs {
		dir = strings.Trim(dir, "/")
		if dir == "" {
			continue
		}
		for _, seg := range dirSegments {
			if seg == dir {
				return true
			}
		}
	}
	return false
}

// matchesExcludedName reports whether the base file name matches any of the
// exclusion glob patterns.
func matchesExcludedName(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesPathsFilter reports whether relPath is equal to or nested under any
// of the filter prefixes. An empty filter matches everything.
func matchesPathsFilter(relPath string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}

	for _, f := range filters {
		f = strings.Trim(filepath.ToSlash(f), "/")
		if f == "" {
			continue
		}
		if relPath == f || strings.HasPrefix(relPath, f+"/") {
			return true
		}
	}
	return false
}
