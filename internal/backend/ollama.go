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
)

const defaultOllamaHost = "http://localhost:11434"

// Ollama talks to a local (or remote) Ollama instance over its native HTTP
// API, /api/embed for embeddings and /api/chat for completions.
type Ollama struct {
	host       string
	chatModel  string
	embedModel string
	dimension  int
	httpClient *http.Client
}

// NewOllama creates an Ollama client. host defaults to http://localhost:11434
// when empty.
func NewOllama(host, chatModel, embedModel string, dimension int) *Ollama {
	if host == "" {
		host = defaultOllamaHost
	}
	return &Ollama{
		host:       strings.TrimRight(host, "/"),
		chatModel:  chatModel,
		embedModel: embedModel,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) EmbeddingDimension() int { return o.dimension }

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: o.embedModel, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("marshal ollama embed request: %w", err)
	}

	resp, err := o.post(ctx, "/api/embed", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ollama embed response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama returned no embeddings")
	}

	vec := result.Embeddings[0]
	if len(vec) != o.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", o.dimension, len(vec))
	}
	return vec, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (o *Ollama) Chat(ctx context.Context, question, contextText, sourceNote string) (string, error) {
	body, err := json.Marshal(o.chatRequest(question, contextText, false))
	if err != nil {
		return "", fmt.Errorf("marshal ollama chat request: %w", err)
	}

	resp, err := o.post(ctx, "/api/chat", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ollama chat response: %w", err)
	}
	return appendSourceNote(result.Message.Content, sourceNote), nil
}

// ChatStream reads the NDJSON stream from /api/chat line by line, forwarding
// each non-empty message fragment until the final frame reports done.
func (o *Ollama) ChatStream(ctx context.Context, question, contextText, sourceNote string, onChunk func(string)) error {
	body, err := json.Marshal(o.chatRequest(question, contextText, true))
	if err != nil {
		return fmt.Errorf("marshal ollama chat request: %w", err)
	}

	resp, err := o.post(ctx, "/api/chat", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var frame ollamaChatResponse
		if err := json.Unmarshal(line, &frame); err != nil {
			return fmt.Errorf("decode ollama stream frame: %w", err)
		}
		if frame.Message.Content != "" {
			onChunk(frame.Message.Content)
		}
		if frame.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading ollama stream: %w", err)
	}
	if sourceNote != "" {
		onChunk(sourceNote)
	}
	return nil
}

func (o *Ollama) chatRequest(question, contextText string, stream bool) ollamaChatRequest {
	return ollamaChatRequest{
		Model: o.chatModel,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(question, contextText)},
		},
		Stream: stream,
	}
}

func (o *Ollama) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return resp, nil
}
