package config

// DefaultConfig returns the built-in configuration: a local Ollama profile as
// the default plus hosted OpenAI and Gemini presets.
func DefaultConfig() *Config {
	return &Config{
		DefaultProfile: "ollama-local",
		DataDir:        ".elara",
		Profiles: map[string]Profile{
			"ollama-local": {
				Label:      "Ollama (local)",
				Backend:    BackendOllama,
				ChatModel:  "llama3.1",
				EmbedModel: "mxbai-embed-large",
				Dimension:  1024,
				Chunking:   Chunking{Min: 300, Target: 800, Max: 1000, Overlap: 150},
				Retrieval:  Retrieval{TopK: 5, MinScore: 0.55},
				// A local server going down should degrade, not fail.
				OfflineFallback: true,
			},
			"openai": {
				Label:      "OpenAI",
				Backend:    BackendOpenAI,
				ChatModel:  "gpt-4.1-mini",
				EmbedModel: "text-embedding-3-small",
				Dimension:  1536,
				Chunking:   Chunking{Min: 300, Target: 800, Max: 1000, Overlap: 150},
				Retrieval:  Retrieval{TopK: 5, MinScore: 0.55},
			},
			"gemini": {
				Label:      "Gemini",
				Backend:    BackendGemini,
				ChatModel:  "gemini-1.5-flash",
				EmbedModel: "text-embedding-004",
				Dimension:  768,
				Chunking:   Chunking{Min: 300, Target: 800, Max: 1000, Overlap: 150},
				Retrieval:  Retrieval{TopK: 5, MinScore: 0.55},
			},
		},
	}
}
