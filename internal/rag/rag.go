package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"docquery/internal/chunker"
	"docquery/internal/embedding"
	"docquery/internal/extractor"
	"docquery/internal/generator"
	"docquery/internal/helper"
	"docquery/internal/models"
	"docquery/internal/retriever"
	"docquery/internal/vectorstore"
)

// Options are the pipeline knobs the orchestrator owns.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// RAG sequences the ingestion path (extract, chunk, embed, index) and the
// query path (retrieve, generate). Conflicting operations on one tenant are
// serialized; independent tenants run concurrently.
type RAG struct {
	embedder  *embedding.Client
	store     vectorstore.Store
	retriever *retriever.Retriever
	generator *generator.Generator
	opts      Options

	tenantLocks sync.Map // sanitized tenant id -> *sync.Mutex
}

func New(embedder *embedding.Client, store vectorstore.Store, gen *generator.Generator, opts Options) (*RAG, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", opts.ChunkSize)
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", opts.ChunkOverlap)
	}
	if opts.TopK <= 0 {
		return nil, fmt.Errorf("top k must be positive, got %d", opts.TopK)
	}
	return &RAG{
		embedder:  embedder,
		store:     store,
		retriever: retriever.New(embedder, store, opts.TopK),
		generator: gen,
		opts:      opts,
	}, nil
}

// Ingest runs the full ingestion path for one document and returns the number
// of indexed chunks. A failure at any stage leaves the tenant's previous
// index untouched.
func (r *RAG) Ingest(ctx context.Context, tenantID, filename string, data []byte) (int, error) {
	tenant := helper.SanitizeTenantID(tenantID)
	mu := r.lockFor(tenant)
	mu.Lock()
	defer mu.Unlock()

	text, err := extractor.Extract(filename, data)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: %s", models.ErrNoExtractableText, filename)
	}

	chunks := chunker.Split(text, r.opts.ChunkSize, r.opts.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s", models.ErrEmptyChunkSet, filename)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, err
	}

	if err := r.store.Build(ctx, tenant, chunks, vectors); err != nil {
		return 0, err
	}

	log.Info().Str("tenant", tenant).Str("file", filename).Int("chunks", len(chunks)).Msg("document ingested")
	return len(chunks), nil
}

// Ask answers a free-text question from the tenant's indexed document.
func (r *RAG) Ask(ctx context.Context, tenantID, question string) (string, error) {
	return r.answer(ctx, tenantID, question, generator.TemplateQA)
}

// Summary produces a summary of the tenant's indexed document.
func (r *RAG) Summary(ctx context.Context, tenantID string) (string, error) {
	return r.answer(ctx, tenantID, models.SummaryInstruction, generator.TemplateSummary)
}

// Flashcards produces study flashcards from the tenant's indexed document.
func (r *RAG) Flashcards(ctx context.Context, tenantID string) (string, error) {
	return r.answer(ctx, tenantID, models.FlashcardsInstruction, generator.TemplateFlashcards)
}

func (r *RAG) answer(ctx context.Context, tenantID, question, templateID string) (string, error) {
	tenant := helper.SanitizeTenantID(tenantID)

	// Missing index is checked up front so an unready tenant never costs an
	// embedding call.
	exists, err := r.store.Exists(ctx, tenant)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", models.ErrIndexNotFound, tenant)
	}

	// The fixed task instruction doubles as the retrieval query for the
	// summary and flashcards templates, same as a user question does for qa.
	results, err := r.retriever.Retrieve(ctx, tenant, question, r.opts.TopK)
	if err != nil {
		return "", err
	}

	contextChunks := make([]string, len(results))
	for i, result := range results {
		contextChunks[i] = result.Content
	}
	return r.generator.Generate(ctx, contextChunks, question, templateID)
}

func (r *RAG) lockFor(tenant string) *sync.Mutex {
	mu, _ := r.tenantLocks.LoadOrStore(tenant, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
