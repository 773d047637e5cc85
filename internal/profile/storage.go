package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists the active profile name as a single trimmed line in a
// state file. Writes go through a temp file and rename so concurrent readers
// see either the old or the new value, never a partial write.
type Storage struct {
	path string
}

// NewStorage returns a Storage backed by the given file path.
func NewStorage(path string) *Storage {
	return &Storage{path: path}
}

// Load reads the persisted profile name. A missing file yields an empty
// string, meaning no selection has been persisted yet.
func (s *Storage) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the profile name atomically, creating the parent directory on
// first use.
func (s *Storage) Save(name string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating profile state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".active-profile-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(name + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing profile state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing profile state: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing profile state: %w", err)
	}
	return nil
}
