// Package ai wraps the OpenAI-compatible embedding and chat completion
// APIs behind a client the rest of the service depends on.
package ai

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Embedding is the result of embedding a single text: a fixed-length
// vector, the token usage attributed to it, and the model that produced it.
type Embedding struct {
	Vector []float32 `json:"embedding"`
	Tokens int       `json:"tokens"`
	Model  string    `json:"model"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
}

type CompletionResponse struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client struct {
	api *openai.Client
	log *zap.Logger
}

// NewClient builds a client for the given API key. A non-empty baseURL
// points the client at an OpenAI-compatible endpoint.
func NewClient(apiKey, baseURL string, log *zap.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		api: openai.NewClientWithConfig(cfg),
		log: log,
	}
}

// EmbedOne returns the embedding for a single text. Blank input fails
// with ErrEmptyInput before any network call.
func (c *Client) EmbedOne(ctx context.Context, text, model string) (Embedding, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Embedding{}, ErrEmptyInput
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: []string{text},
	})
	if err != nil {
		return Embedding{}, &ProviderError{Op: "embedding", Message: err.Error()}
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return Embedding{}, &ProviderError{Op: "embedding", Message: "empty embedding in response"}
	}

	return Embedding{
		Vector: resp.Data[0].Embedding,
		Tokens: resp.Usage.TotalTokens,
		Model:  responseModel(string(resp.Model), model),
	}, nil
}

// EmbedBatch embeds multiple texts in a single upstream call, preserving
// input order. The total reported token usage is split evenly across
// inputs: the API does not expose per-item usage in batch mode.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, model string) ([]Embedding, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	trimmed := make([]string, len(texts))
	for i, t := range texts {
		trimmed[i] = strings.TrimSpace(t)
		if trimmed[i] == "" {
			return nil, ErrEmptyInput
		}
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: trimmed,
	})
	if err != nil {
		return nil, &ProviderError{Op: "embedding", Message: err.Error()}
	}
	if len(resp.Data) != len(trimmed) {
		return nil, &ProviderError{Op: "embedding", Message: "embedding count does not match input count"}
	}

	tokensPerItem := ceilDiv(resp.Usage.TotalTokens, len(trimmed))
	respModel := responseModel(string(resp.Model), model)

	embeddings := make([]Embedding, len(trimmed))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(embeddings) {
			return nil, &ProviderError{Op: "embedding", Message: "embedding index out of range"}
		}
		embeddings[item.Index] = Embedding{
			Vector: item.Embedding,
			Tokens: tokensPerItem,
			Model:  respModel,
		}
	}

	c.log.Debug("batch embeddings generated",
		zap.Int("count", len(embeddings)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return embeddings, nil
}

// Complete calls the chat completion API and returns the generated text
// with its token usage.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return CompletionResponse{}, &ProviderError{Op: "completion", Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, &ProviderError{Op: "completion", Message: "empty choices in response"}
	}

	return CompletionResponse{
		Content:          resp.Choices[0].Message.Content,
		Model:            responseModel(resp.Model, req.Model),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// CompleteStream streams completion deltas to onDelta and returns the
// accumulated text. The streaming API does not report token usage.
func (c *Client) CompleteStream(ctx context.Context, req CompletionRequest, onDelta func(string) error) (string, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", &ProviderError{Op: "completion", Message: err.Error()}
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &ProviderError{Op: "completion", Message: err.Error()}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return "", err
		}
	}
	return full.String(), nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

func responseModel(got, requested string) string {
	if got != "" {
		return got
	}
	return requested
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
