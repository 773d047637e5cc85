package cmd

import (
	"path/filepath"

	"github.com/wolfmanIII/elara/internal/config"
	"github.com/wolfmanIII/elara/internal/profile"
	"github.com/wolfmanIII/elara/internal/store"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(filepath.Join(cfg.DataDir, "elara.db"))
}

func newProfileManager(cfg *config.Config) (*profile.Manager, error) {
	storage := profile.NewStorage(filepath.Join(cfg.DataDir, "active_profile"))
	return profile.NewManager(cfg, storage)
}
