package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI wraps the OpenAI API for embeddings and chat completions.
type OpenAI struct {
	client     *openai.Client
	chatModel  string
	embedModel string
	dimension  int
}

// NewOpenAI creates an OpenAI client. baseURL overrides the API endpoint when
// non-empty, which also makes the adapter usable against compatible servers.
func NewOpenAI(apiKey, baseURL, chatModel, embedModel string, dimension int) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client:     openai.NewClientWithConfig(cfg),
		chatModel:  chatModel,
		embedModel: embedModel,
		dimension:  dimension,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) EmbeddingDimension() int { return o.dimension }

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(o.embedModel),
		Dimensions: o.dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}

	vec := resp.Data[0].Embedding
	if len(vec) != o.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", o.dimension, len(vec))
	}
	return vec, nil
}

func (o *OpenAI) Chat(ctx context.Context, question, contextText, sourceNote string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.chatRequest(question, contextText))
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return appendSourceNote(resp.Choices[0].Message.Content, sourceNote), nil
}

func (o *OpenAI) ChatStream(ctx context.Context, question, contextText, sourceNote string, onChunk func(string)) error {
	stream, err := o.client.CreateChatCompletionStream(ctx, o.chatRequest(question, contextText))
	if err != nil {
		return fmt.Errorf("openai chat stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading openai stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			onChunk(delta)
		}
	}

	if sourceNote != "" {
		onChunk(sourceNote)
	}
	return nil
}

func (o *OpenAI) chatRequest(question, contextText string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: o.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(question, contextText)},
		},
	}
}
