package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docquery/internal/config"
	"docquery/internal/models"
	"docquery/internal/retry"
)

// Template identifiers accepted by Generate.
const (
	TemplateQA         = "qa"
	TemplateSummary    = "summary"
	TemplateFlashcards = "flashcards"
)

// NoAnswerSentinel re-exports the fixed "no answer in context" phrase the
// prompt instructs the model to emit.
const NoAnswerSentinel = models.NoAnswerSentinel

// question overrides per template; an empty override means the caller's
// question is used.
var templates = map[string]string{
	TemplateQA:         "",
	TemplateSummary:    models.SummaryInstruction,
	TemplateFlashcards: models.FlashcardsInstruction,
}

// Generator turns retrieved context and a question into a model request. It
// holds no retrieval state; every call is assembled from scratch.
type Generator struct {
	model       llms.Model
	temperature float64
	policy      retry.Policy
	timeout     time.Duration
}

// New wraps an existing langchaingo model. Used directly by tests;
// production code goes through NewFromConfig.
func New(model llms.Model, temperature float64, policy retry.Policy, timeout time.Duration) *Generator {
	return &Generator{model: model, temperature: temperature, policy: policy, timeout: timeout}
}

// NewFromConfig builds a Generator for the configured provider.
func NewFromConfig(cfg *config.LLMConfig, temperature float64, policy retry.Policy, timeout time.Duration) (*Generator, error) {
	var model llms.Model
	var err error
	switch cfg.Provider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s llm: %w", cfg.Provider, err)
	}
	return New(model, temperature, policy, timeout), nil
}

// Generate answers the question from the given context chunks using the
// named template. For the summary and flashcards templates the question
// argument is ignored and the template's fixed instruction is used instead.
func (g *Generator) Generate(ctx context.Context, contextChunks []string, question, templateID string) (string, error) {
	instruction, ok := templates[templateID]
	if !ok {
		return "", fmt.Errorf("unknown template: %q", templateID)
	}
	if instruction != "" {
		question = instruction
	}
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question must not be empty for template %q", templateID)
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate,
		strings.Join(contextChunks, "\n\n"), question)
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	var answer string
	err := g.policy.Do(ctx, func() error {
		callCtx, cancel := g.callContext(ctx)
		defer cancel()
		resp, err := g.model.GenerateContent(callCtx, messages, llms.WithTemperature(g.temperature))
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("model returned no choices")
		}
		answer = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationService, err)
	}
	return answer, nil
}

func (g *Generator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}
