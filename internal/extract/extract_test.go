package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestPlainText_ReadsTextFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", []byte("hello corpus"))

	got, err := NewPlainText().Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got != "hello corpus" {
		t.Errorf("Extract() = %q", got)
	}
}

func TestPlainText_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "image.png", []byte("not really an image"))

	_, err := NewPlainText().Extract(path)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Extract() error = %v, want ErrUnsupported", err)
	}
}

func TestPlainText_BinaryContentSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fake.txt", []byte{'a', 0, 'b', 0})

	_, err := NewPlainText().Extract(path)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Extract() error = %v, want ErrUnsupported", err)
	}
}

func TestPlainText_MissingFile(t *testing.T) {
	_, err := NewPlainText().Extract(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil || errors.Is(err, ErrUnsupported) {
		t.Fatalf("Extract() error = %v, want a read error", err)
	}
}
