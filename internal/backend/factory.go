package backend

import (
	"fmt"
	"os"

	"github.com/wolfmanIII/elara/internal/config"
)

// New builds the Client for a profile. API keys come from the environment, so
// a misconfigured key fails here instead of on the first request.
func New(p config.Profile) (Client, error) {
	switch p.Backend {
	case config.BackendOllama:
		return NewOllama(os.Getenv("OLLAMA_HOST"), p.ChatModel, p.EmbedModel, p.Dimension), nil

	case config.BackendOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAI(apiKey, "", p.ChatModel, p.EmbedModel, p.Dimension), nil

	case config.BackendGemini:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
		return NewGemini(apiKey, p.ChatModel, p.EmbedModel, p.Dimension), nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", p.Backend)
	}
}
