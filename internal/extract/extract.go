// Package extract turns corpus files into plain text for chunking. Rich
// formats (PDF, DOCX, ODT) are out of scope; the Extractor seam is where a
// format-aware implementation would plug in.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported marks a file the extractor cannot handle. Callers treat it
// as a skip, not a failure.
var ErrUnsupported = errors.New("unsupported file format")

// Extractor produces plain text from a file on disk.
type Extractor interface {
	// Extract returns the file's text content. It returns ErrUnsupported
	// for formats it cannot read and any other error for files it should
	// have been able to read but could not.
	Extract(path string) (string, error)
}

// textExtensions are the formats the plain-text extractor accepts.
var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".rst":      true,
	".csv":      true,
	".log":      true,
	".json":     true,
	".yaml":     true,
	".yml":      true,
	".xml":      true,
	".html":     true,
	".htm":      true,
}

// PlainText reads text-format files as-is.
type PlainText struct{}

// NewPlainText returns an extractor for plain-text formats.
func NewPlainText() *PlainText {
	return &PlainText{}
}

func (e *PlainText) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !textExtensions[ext] {
		return "", ErrUnsupported
	}

	if isBinary(path) {
		return "", ErrUnsupported
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}

// isBinary reports whether the first 512 bytes contain a NUL byte.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false // let the read surface the real error
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}
