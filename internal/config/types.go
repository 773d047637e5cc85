package config

// BackendType identifies a model backend.
type BackendType string

const (
	BackendOllama BackendType = "ollama"
	BackendOpenAI BackendType = "openai"
	BackendGemini BackendType = "gemini"
)

// Chunking holds the chunk sizing parameters, in characters.
type Chunking struct {
	Min     int `yaml:"min" koanf:"min"`
	Target  int `yaml:"target" koanf:"target"`
	Max     int `yaml:"max" koanf:"max"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// Retrieval holds the similarity-search parameters.
type Retrieval struct {
	TopK     int     `yaml:"top_k" koanf:"top_k"`
	MinScore float64 `yaml:"min_score" koanf:"min_score"`
}

// Profile bundles everything that defines one RAG setup: which backend, which
// models, the embedding dimension, and the chunking/retrieval tuning. Exactly
// one profile is active at a time; switching profiles never migrates data,
// so re-index after switching to a profile with a different dimension.
type Profile struct {
	Label           string      `yaml:"label" koanf:"label"`
	Backend         BackendType `yaml:"backend" koanf:"backend"`
	ChatModel       string      `yaml:"chat_model" koanf:"chat_model"`
	EmbedModel      string      `yaml:"embed_model" koanf:"embed_model"`
	Dimension       int         `yaml:"dimension" koanf:"dimension"`
	Chunking        Chunking    `yaml:"chunking" koanf:"chunking"`
	Retrieval       Retrieval   `yaml:"retrieval" koanf:"retrieval"`
	TestMode        bool        `yaml:"test_mode" koanf:"test_mode"`
	OfflineFallback bool        `yaml:"offline_fallback" koanf:"offline_fallback"`
}

// Config is the top-level elara configuration, corresponding to elara.yml.
type Config struct {
	DefaultProfile string             `yaml:"default_profile" koanf:"default_profile"`
	DataDir        string             `yaml:"data_dir" koanf:"data_dir"`
	Profiles       map[string]Profile `yaml:"profiles" koanf:"profiles"`
}
