// Package backend talks to the AI providers: it turns text into embedding
// vectors and questions plus retrieved context into answers. One Client per
// configured profile.
package backend

import "context"

// Client is implemented by each provider adapter.
//
// Embed returns nil (no error) for blank input. All other failures surface as
// errors so callers can decide between aborting and falling back; adapters
// never retry on their own.
type Client interface {
	Name() string

	// Embed returns the embedding vector for a single text, with exactly
	// EmbeddingDimension components.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat answers the question using only the provided context text. A
	// non-empty sourceNote is appended to the answer.
	Chat(ctx context.Context, question, contextText, sourceNote string) (string, error)

	// ChatStream is Chat with incremental delivery: onChunk is called for
	// each answer fragment, in order, from a single goroutine. A non-empty
	// sourceNote arrives as one final chunk after the stream completes.
	ChatStream(ctx context.Context, question, contextText, sourceNote string, onChunk func(string)) error

	// EmbeddingDimension is the configured vector size for this profile.
	EmbeddingDimension() int
}
