package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfmanIII/elara/internal/vector"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini talks to Google's Generative Language API: embedContent for
// embeddings and generateContent / streamGenerateContent for chat.
type Gemini struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	dimension  int
	httpClient *http.Client
}

// NewGemini creates a Gemini client.
func NewGemini(apiKey, chatModel, embedModel string, dimension int) *Gemini {
	return &Gemini{
		baseURL:    defaultGeminiBaseURL,
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) EmbeddingDimension() int { return g.dimension }

// nativeDimension is the full output size of the embedding model. Requesting
// fewer components makes the API truncate without renormalizing, so truncated
// vectors need an L2 normalization before cosine comparisons.
func (g *Gemini) nativeDimension() int {
	if strings.HasPrefix(g.embedModel, "gemini-embedding") {
		return 3072
	}
	return 768
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	body, err := json.Marshal(geminiEmbedRequest{
		Model:                g.embedModel,
		Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
		OutputDimensionality: g.dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini embed request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, g.embedModel, g.apiKey)
	resp, err := g.post(ctx, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result geminiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode gemini embed response: %w", err)
	}

	vec := result.Embedding.Values
	if len(vec) != g.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", g.dimension, len(vec))
	}
	if g.dimension < g.nativeDimension() {
		vec = vector.Normalize(vec)
	}
	return vec, nil
}

type geminiGenerateRequest struct {
	SystemInstruction geminiContent   `json:"system_instruction"`
	Contents          []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (r geminiGenerateResponse) text() string {
	var b strings.Builder
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		break
	}
	return b.String()
}

func (g *Gemini) Chat(ctx context.Context, question, contextText, sourceNote string) (string, error) {
	body, err := json.Marshal(g.generateRequest(question, contextText))
	if err != nil {
		return "", fmt.Errorf("marshal gemini chat request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.chatModel, g.apiKey)
	resp, err := g.post(ctx, url, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode gemini chat response: %w", err)
	}
	return appendSourceNote(result.text(), sourceNote), nil
}

// ChatStream consumes the server-sent event stream from
// streamGenerateContent, forwarding the text of each event.
func (g *Gemini) ChatStream(ctx context.Context, question, contextText, sourceNote string, onChunk func(string)) error {
	body, err := json.Marshal(g.generateRequest(question, contextText))
	if err != nil {
		return fmt.Errorf("marshal gemini chat request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", g.baseURL, g.chatModel, g.apiKey)
	resp, err := g.post(ctx, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		payload := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
		if len(payload) == 0 {
			continue
		}

		var event geminiGenerateResponse
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("decode gemini stream event: %w", err)
		}
		if text := event.text(); text != "" {
			onChunk(text)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading gemini stream: %w", err)
	}
	if sourceNote != "" {
		onChunk(sourceNote)
	}
	return nil
}

func (g *Gemini) generateRequest(question, contextText string) geminiGenerateRequest {
	return geminiGenerateRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt(question, contextText)}}},
		},
	}
}

func (g *Gemini) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return resp, nil
}
