// Package chatbot answers questions over the indexed corpus: embed the
// question, retrieve the most similar chunks, then let the backend generate
// an answer grounded in that context. Test mode and offline fallback degrade
// to a plain keyword search so the engine stays usable without an AI service.
package chatbot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfmanIII/elara/internal/backend"
	"github.com/wolfmanIII/elara/internal/config"
	"github.com/wolfmanIII/elara/internal/store"
)

const (
	previewMaxLength = 240
	excerptMaxLength = 300
)

// Source describes where a piece of the answer's context came from.
type Source struct {
	File                string  `json:"file"`
	Chunk               int     `json:"chunk"`
	Similarity          float64 `json:"similarity"`
	SimilarityFormatted string  `json:"similarity_formatted"`
	Preview             string  `json:"preview"`
}

// Answer is the complete response to one question.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Chatbot serves questions for one profile.
type Chatbot struct {
	store   *store.Store
	client  backend.Client
	profile config.Profile
}

func New(st *store.Store, client backend.Client, profile config.Profile) *Chatbot {
	return &Chatbot{store: st, client: client, profile: profile}
}

// Ask answers a question in one shot. Technical failures never escape as
// errors when offline fallback is enabled; they degrade into a keyword-based
// answer that names the failure.
func (c *Chatbot) Ask(ctx context.Context, question string) (*Answer, error) {
	if c.profile.TestMode {
		answer, err := c.answerInTestMode(question)
		if err != nil {
			return nil, err
		}
		return &Answer{Answer: answer}, nil
	}

	contextText, sources, err := c.retrieve(ctx, question)
	if err != nil {
		return c.degrade(question, err)
	}
	if len(sources) == 0 {
		return &Answer{Answer: "I cannot find relevant information in the indexed documents."}, nil
	}

	answer, err := c.client.Chat(ctx, question, contextText, "")
	if err != nil {
		return c.degrade(question, err)
	}
	if answer == "" {
		answer = "I could not generate an answer."
	}
	return &Answer{Answer: answer, Sources: sources}, nil
}

// AskStream is Ask with incremental delivery. Degraded answers arrive as a
// single chunk. The returned sources are only non-empty when the backend
// produced a real streamed answer.
func (c *Chatbot) AskStream(ctx context.Context, question string, onChunk func(string)) ([]Source, error) {
	if c.profile.TestMode {
		answer, err := c.answerInTestMode(question)
		if err != nil {
			return nil, err
		}
		onChunk(answer)
		return nil, nil
	}

	contextText, sources, err := c.retrieve(ctx, question)
	if err != nil {
		return c.degradeStream(question, err, onChunk)
	}
	if len(sources) == 0 {
		onChunk("I cannot find relevant information in the indexed documents.")
		return nil, nil
	}

	if err := c.client.ChatStream(ctx, question, contextText, "", onChunk); err != nil {
		return c.degradeStream(question, err, onChunk)
	}
	return sources, nil
}

// retrieve embeds the question and collects the top matching chunks into a
// context block for the model.
func (c *Chatbot) retrieve(ctx context.Context, question string) (string, []Source, error) {
	queryVec, err := c.client.Embed(ctx, question)
	if err != nil {
		return "", nil, err
	}

	matches, err := c.store.QueryTopK(queryVec, c.profile.Retrieval.TopK, c.profile.Retrieval.MinScore)
	if err != nil {
		return "", nil, err
	}

	var (
		b       strings.Builder
		sources []Source
	)
	for _, m := range matches {
		formatted := fmt.Sprintf("%.2f", m.Similarity)
		fmt.Fprintf(&b, "Source: %s - chunk %d - similarity %s\n%s\n\n", m.FilePath, m.ChunkIndex, formatted, m.Content)
		sources = append(sources, Source{
			File:                m.FilePath,
			Chunk:               m.ChunkIndex,
			Similarity:          m.Similarity,
			SimilarityFormatted: formatted,
			Preview:             makePreview(m.Content),
		})
	}
	return b.String(), sources, nil
}

func (c *Chatbot) degrade(question string, cause error) (*Answer, error) {
	if !c.profile.OfflineFallback {
		return &Answer{Answer: "AI service call failed: " + cause.Error()}, nil
	}
	answer, err := c.answerInOfflineFallback(question, cause)
	if err != nil {
		return nil, err
	}
	return &Answer{Answer: answer}, nil
}

func (c *Chatbot) degradeStream(question string, cause error, onChunk func(string)) ([]Source, error) {
	if !c.profile.OfflineFallback {
		onChunk("AI service call failed: " + cause.Error())
		return nil, nil
	}
	answer, err := c.answerInOfflineFallback(question, cause)
	if err != nil {
		return nil, err
	}
	onChunk(answer)
	return nil, nil
}

// answerInTestMode never calls the AI service: it answers with excerpts from
// a keyword search over the stored chunks.
func (c *Chatbot) answerInTestMode(question string) (string, error) {
	matches, err := c.keywordMatches(question)
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		return "[TEST MODE] No document seems to contain the query.\n\nQuestion: " + question, nil
	}

	var b strings.Builder
	b.WriteString("[TEST MODE] No AI service is being called.\n")
	b.WriteString("These excerpts look relevant:\n\n")
	writeExcerpts(&b, matches)
	return b.String(), nil
}

// answerInOfflineFallback still tries to be useful when the AI call failed:
// local excerpts plus the technical detail of what went wrong.
func (c *Chatbot) answerInOfflineFallback(question string, cause error) (string, error) {
	matches, err := c.keywordMatches(question)
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		return "The AI service is unreachable and nothing in the local documents matches your question.\n" +
			"Technical detail: " + cause.Error(), nil
	}

	var b strings.Builder
	b.WriteString("The AI service is unreachable right now, but I found some excerpts in the local documents:\n\n")
	writeExcerpts(&b, matches)
	b.WriteString("\n(Technical detail: " + cause.Error() + ")")
	return b.String(), nil
}

func (c *Chatbot) keywordMatches(question string) ([]store.Match, error) {
	keywords := buildKeywords(question)
	if len(keywords) == 0 {
		keywords = []string{strings.ToLower(question)}
	}
	return c.store.KeywordSearch(keywords, 5)
}

func writeExcerpts(b *strings.Builder, matches []store.Match) {
	for _, m := range matches {
		excerpt := truncateRunes(m.Content, excerptMaxLength)
		excerpt = strings.ReplaceAll(excerpt, "\n", " ")
		fmt.Fprintf(b, "- Source: %s (chunk %d)\n  Excerpt: %s…\n\n", m.FilePath, m.ChunkIndex, excerpt)
	}
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// buildKeywords extracts simple search terms from the question: lowercase,
// punctuation stripped, words shorter than three runes dropped, duplicates
// removed in first-seen order.
func buildKeywords(text string) []string {
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")

	seen := make(map[string]bool)
	var keywords []string
	for _, w := range strings.Fields(text) {
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

// makePreview collapses whitespace and truncates to a display-friendly length.
func makePreview(text string) string {
	clean := strings.Join(strings.Fields(text), " ")
	if len([]rune(clean)) <= previewMaxLength {
		return clean
	}
	return truncateRunes(clean, previewMaxLength) + "…"
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
