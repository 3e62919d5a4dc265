package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docquery/internal/config"
	"docquery/internal/models"
	"docquery/internal/retry"
)

// Client embeds text through a single model pinned at construction time.
// Ingestion and query embeddings always go through the same Client, so they
// cannot drift onto different models. All failures wrap
// models.ErrEmbeddingService.
type Client struct {
	embedder embeddings.Embedder
	policy   retry.Policy
	timeout  time.Duration
}

// New wraps an existing langchaingo embedder. Used directly by tests;
// production code goes through NewFromConfig.
func New(embedder embeddings.Embedder, policy retry.Policy, timeout time.Duration) *Client {
	return &Client{embedder: embedder, policy: policy, timeout: timeout}
}

// NewFromConfig builds a Client for the configured provider.
func NewFromConfig(cfg *config.LLMConfig, policy retry.Policy, timeout time.Duration) (*Client, error) {
	var embedder embeddings.Embedder
	var err error
	switch cfg.Provider {
	case config.ProviderOllama:
		embedder, err = newOllamaEmbedder(cfg)
	case config.ProviderOpenAI:
		embedder, err = newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return New(embedder, policy, timeout), nil
}

func newOllamaEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init ollama embedder: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

func newOpenAIEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai embedder: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedQuery maps one text to its vector.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := c.policy.Do(ctx, func() error {
		callCtx, cancel := c.callContext(ctx)
		defer cancel()
		var err error
		vector, err = c.embedder.EmbedQuery(callCtx, text)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", models.ErrEmbeddingService, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: embed query returned empty vector", models.ErrEmbeddingService)
	}
	return vector, nil
}

// EmbedDocuments maps texts to vectors, order preserved, one vector per
// input. The batch is all-or-nothing: a short response fails the whole call.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", models.ErrEmbeddingService)
	}
	var vectors [][]float32
	err := c.policy.Do(ctx, func() error {
		callCtx, cancel := c.callContext(ctx)
		defer cancel()
		var err error
		vectors, err = c.embedder.EmbedDocuments(callCtx, texts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed batch: %v", models.ErrEmbeddingService, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: embed batch returned %d vectors for %d inputs",
			models.ErrEmbeddingService, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: embed batch returned empty vector at %d",
				models.ErrEmbeddingService, i)
		}
	}
	return vectors, nil
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}
