package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wolfmanIII/elara/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultProfile: "beta",
		Profiles: map[string]config.Profile{
			"alpha": {Label: "Alpha", Backend: config.BackendOllama},
			"beta":  {Label: "Beta", Backend: config.BackendOpenAI},
		},
	}
}

func TestNewManager_DefaultResolution(t *testing.T) {
	storage := NewStorage(filepath.Join(t.TempDir(), "state", "active"))

	m, err := NewManager(testConfig(), storage)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	if m.ActiveName() != "beta" {
		t.Errorf("ActiveName() = %q, want beta (configured default)", m.ActiveName())
	}
}

func TestNewManager_FallsBackToFirstProfile(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultProfile = ""

	m, err := NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	if m.ActiveName() != "alpha" {
		t.Errorf("ActiveName() = %q, want alpha (first in name order)", m.ActiveName())
	}
}

func TestUse_SwitchPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active")
	storage := NewStorage(path)

	m, err := NewManager(testConfig(), storage)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	if err := m.Use("alpha"); err != nil {
		t.Fatalf("Use() error: %v", err)
	}
	if m.ActiveName() != "alpha" {
		t.Errorf("ActiveName() = %q after switch", m.ActiveName())
	}
	if m.Active().Backend != config.BackendOllama {
		t.Errorf("Active().Backend = %q", m.Active().Backend)
	}

	// Simulate a restart.
	m2, err := NewManager(testConfig(), NewStorage(path))
	if err != nil {
		t.Fatalf("NewManager() after restart: %v", err)
	}
	if m2.ActiveName() != "alpha" {
		t.Errorf("ActiveName() after restart = %q, want alpha", m2.ActiveName())
	}
}

func TestUse_UnknownProfile(t *testing.T) {
	m, err := NewManager(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	if err := m.Use("ghost"); err == nil {
		t.Fatal("Use(ghost) = nil, want error")
	}
	if m.ActiveName() != "beta" {
		t.Errorf("active changed on failed switch: %q", m.ActiveName())
	}
}

func TestNewManager_IgnoresStaleStoredName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active")
	if err := os.WriteFile(path, []byte("removed-profile\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(testConfig(), NewStorage(path))
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	if m.ActiveName() != "beta" {
		t.Errorf("ActiveName() = %q, want configured default", m.ActiveName())
	}
}

func TestList_SortedWithLabels(t *testing.T) {
	cfg := testConfig()
	p := cfg.Profiles["alpha"]
	p.Label = ""
	cfg.Profiles["alpha"] = p

	m, err := NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("List() = %d entries, want 2", len(list))
	}
	if list[0].Name != "alpha" || list[1].Name != "beta" {
		t.Errorf("List() order = %s, %s", list[0].Name, list[1].Name)
	}
	if list[0].Label != "alpha" {
		t.Errorf("empty label should fall back to name, got %q", list[0].Label)
	}
	if list[1].Backend != "openai" {
		t.Errorf("Backend = %q", list[1].Backend)
	}
}
