package retriever

import (
	"context"

	"docquery/internal/embedding"
	"docquery/internal/vectorstore"
)

// Retriever embeds a query and returns the tenant's most similar stored
// chunks. Embedding and index errors propagate unchanged - there is no
// fallback path.
type Retriever struct {
	embedder *embedding.Client
	store    vectorstore.Store
	topK     int
}

func New(embedder *embedding.Client, store vectorstore.Store, topK int) *Retriever {
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns up to k chunks ordered by descending similarity. k <= 0
// falls back to the configured default.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string, k int) ([]vectorstore.SearchResult, error) {
	if k <= 0 {
		k = r.topK
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.store.Search(ctx, tenantID, vector, k)
}
