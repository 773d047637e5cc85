// Package config loads and validates the elara configuration: the set of RAG
// profiles, the default profile name, and the data directory.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ELARA_*). A missing file is not an error:
// the built-in defaults apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: ELARA_DATA_DIR -> data_dir, etc.
	if err := k.Load(env.Provider("ELARA_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ELARA_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// A profiles section in the file replaces the built-in presets
	// entirely instead of merging preset-by-preset.
	if k.Exists("profiles") {
		cfg.Profiles = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validBackends is the set of recognized backend values.
var validBackends = map[BackendType]bool{
	BackendOllama: true,
	BackendOpenAI: true,
	BackendGemini: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no RAG profiles configured: add at least one profile to elara.yml")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.DefaultProfile != "" {
		if _, ok := c.Profiles[c.DefaultProfile]; !ok {
			return fmt.Errorf("default_profile %q is not a configured profile", c.DefaultProfile)
		}
	}

	for _, name := range c.ProfileNames() {
		if err := c.Profiles[name].validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}

	return nil
}

func (p Profile) validate() error {
	if !validBackends[p.Backend] {
		return fmt.Errorf("invalid backend %q: must be one of ollama, openai, gemini", p.Backend)
	}
	if p.ChatModel == "" {
		return fmt.Errorf("chat_model is required")
	}
	if p.EmbedModel == "" {
		return fmt.Errorf("embed_model is required")
	}
	if p.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}
	if p.Chunking.Max <= 0 {
		return fmt.Errorf("chunking.max must be positive")
	}
	if p.Chunking.Min > p.Chunking.Max {
		return fmt.Errorf("chunking.min must not exceed chunking.max")
	}
	if p.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must be non-negative")
	}
	if p.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if p.Retrieval.MinScore < 0 || p.Retrieval.MinScore >= 1 {
		return fmt.Errorf("retrieval.min_score must be in [0, 1)")
	}
	return nil
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
