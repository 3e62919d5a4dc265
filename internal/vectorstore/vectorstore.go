package vectorstore

import (
	"context"
	"fmt"

	"docquery/internal/models"
)

// SearchResult is one retrieved chunk with its similarity score, higher is
// closer.
type SearchResult struct {
	Content string
	Score   float32
}

// Store is a per-tenant persisted vector index. Build replaces a tenant's
// whole index atomically; there is no incremental merge. Implementations must
// keep a failed Build from ever being readable by Search.
type Store interface {
	Build(ctx context.Context, tenantID string, chunks []models.Chunk, vectors [][]float32) error
	Search(ctx context.Context, tenantID string, vector []float32, k int) ([]SearchResult, error)
	Exists(ctx context.Context, tenantID string) (bool, error)
}

// validateBuild enforces the shared Build preconditions: non-empty input,
// 1:1 chunk/vector pairing, uniform vector dimension.
func validateBuild(chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return models.ErrEmptyIndex
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("vector dimension is zero")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector dimension mismatch at %d: %d != %d", i, len(v), dim)
		}
	}
	return nil
}
