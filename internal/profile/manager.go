// Package profile manages the process-wide active RAG profile: which backend,
// models, chunking, and retrieval tuning are in effect. The active selection
// survives restarts through a small state file.
package profile

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wolfmanIII/elara/internal/config"
)

// Info is the listing view of a profile.
type Info struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Backend string `json:"backend"`
}

// Manager holds the configured profiles and the active selection. Reads and
// switches are safe for concurrent use; a switch is last-write-wins and only
// affects operations started afterwards.
type Manager struct {
	profiles map[string]config.Profile
	storage  *Storage

	mu     sync.RWMutex
	active string
}

// NewManager builds a Manager from the configuration and restores the
// persisted active profile. Resolution order: state file, configured default,
// first profile in name order.
func NewManager(cfg *config.Config, storage *Storage) (*Manager, error) {
	if len(cfg.Profiles) == 0 {
		return nil, fmt.Errorf("no RAG profiles configured")
	}

	m := &Manager{
		profiles: cfg.Profiles,
		storage:  storage,
	}

	if storage != nil {
		if stored, err := storage.Load(); err != nil {
			return nil, fmt.Errorf("loading active profile: %w", err)
		} else if stored != "" {
			if _, ok := m.profiles[stored]; ok {
				m.active = stored
			}
		}
	}

	if m.active == "" && cfg.DefaultProfile != "" {
		if _, ok := m.profiles[cfg.DefaultProfile]; ok {
			m.active = cfg.DefaultProfile
		}
	}
	if m.active == "" {
		m.active = m.names()[0]
	}

	return m, nil
}

// Active returns a copy of the active profile.
func (m *Manager) Active() config.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[m.active]
}

// ActiveName returns the name of the active profile.
func (m *Manager) ActiveName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Get returns the named profile.
func (m *Manager) Get(name string) (config.Profile, error) {
	p, ok := m.profiles[name]
	if !ok {
		return config.Profile{}, fmt.Errorf("RAG profile %q not configured; available: %s",
			name, strings.Join(m.names(), ", "))
	}
	return p, nil
}

// Has reports whether the named profile exists.
func (m *Manager) Has(name string) bool {
	_, ok := m.profiles[name]
	return ok
}

// Use switches the active profile and persists the selection. Switching is a
// pure configuration change: vectors already stored under another dimension
// are untouched, and callers must re-index to realign them.
func (m *Manager) Use(name string) error {
	if _, ok := m.profiles[name]; !ok {
		return fmt.Errorf("RAG profile %q not found; available: %s",
			name, strings.Join(m.names(), ", "))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.storage != nil {
		if err := m.storage.Save(name); err != nil {
			return fmt.Errorf("persisting active profile: %w", err)
		}
	}
	m.active = name
	return nil
}

// List returns every configured profile, sorted by name.
func (m *Manager) List() []Info {
	infos := make([]Info, 0, len(m.profiles))
	for _, name := range m.names() {
		p := m.profiles[name]
		label := p.Label
		if label == "" {
			label = name
		}
		infos = append(infos, Info{
			Name:    name,
			Label:   label,
			Backend: string(p.Backend),
		})
	}
	return infos
}

func (m *Manager) names() []string {
	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
