package semantic

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when no embedding credential is supplied.
var ErrMissingAPIKey = errors.New("missing embedding API key")

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. Point
// it at api.openai.com or at a local server speaking the same protocol.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// EmbedderOption configures an OpenAIEmbedder.
type EmbedderOption func(*embedderConfig)

type embedderConfig struct {
	baseURL string
	model   openai.EmbeddingModel
}

// WithBaseURL points the embedder at an alternate OpenAI-compatible server.
func WithBaseURL(baseURL string) EmbedderOption {
	return func(c *embedderConfig) { c.baseURL = baseURL }
}

// WithModel overrides the embedding model.
func WithModel(model openai.EmbeddingModel) EmbedderOption {
	return func(c *embedderConfig) { c.model = model }
}

// NewOpenAIEmbedder creates an embedder. A missing API key is a
// configuration error surfaced immediately, not retried.
func NewOpenAIEmbedder(apiKey string, opts ...EmbedderOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := &embedderConfig{model: openai.SmallEmbedding3}
	for _, opt := range opts {
		opt(cfg)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		clientCfg.BaseURL = cfg.baseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.model,
	}, nil
}

// Embed returns one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)
