package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docquery/internal/helper"
	"docquery/internal/models"
)

const (
	collectionName = "chunks"
	currentDirName = "current"
	compress       = false
)

// ChromemStore keeps one persistent chromem-go database per tenant under
// root/tenants/<tenantID>. A build is written to a staging directory and
// swapped into place by rename, so a crashed or failed build never leaves a
// half-written index where Search can see it.
type ChromemStore struct {
	root string

	mu    sync.RWMutex
	cache map[string]*chromem.Collection
}

func NewChromemStore(root string) (*ChromemStore, error) {
	if err := helper.CreateFolder(filepath.Join(root, "tenants")); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &ChromemStore{
		root:  root,
		cache: make(map[string]*chromem.Collection),
	}, nil
}

func (s *ChromemStore) tenantDir(tenantID string) string {
	return filepath.Join(s.root, "tenants", tenantID)
}

func (s *ChromemStore) Build(ctx context.Context, tenantID string, chunks []models.Chunk, vectors [][]float32) error {
	if err := validateBuild(chunks, vectors); err != nil {
		return err
	}

	tenantDir := s.tenantDir(tenantID)
	if err := helper.CreateFolder(tenantDir); err != nil {
		return fmt.Errorf("create tenant dir: %w", err)
	}

	stagingID, err := helper.GenerateUUID()
	if err != nil {
		return err
	}
	staging := filepath.Join(tenantDir, "staging-"+stagingID)

	col, err := s.writeStaging(ctx, staging, chunks, vectors)
	if err != nil {
		os.RemoveAll(staging)
		return err
	}

	if err := s.swap(tenantID, staging, col); err != nil {
		os.RemoveAll(staging)
		return err
	}

	log.Debug().Str("tenant", tenantID).Int("chunks", len(chunks)).Msg("built vector index")
	return nil
}

func (s *ChromemStore) writeStaging(ctx context.Context, staging string, chunks []models.Chunk, vectors [][]float32) (*chromem.Collection, error) {
	db, err := chromem.NewPersistentDB(staging, compress)
	if err != nil {
		return nil, fmt.Errorf("create staging database: %w", err)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%06d", chunk.Ordinal),
			Content:   chunk.Content,
			Embedding: vectors[i],
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("add documents: %w", err)
	}
	return col, nil
}

// swap publishes the staging directory as the tenant's current index. The
// window between the two renames can lose the previous index on a crash, but
// can never expose a partial one.
func (s *ChromemStore) swap(tenantID, staging string, col *chromem.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := filepath.Join(s.tenantDir(tenantID), currentDirName)
	old := current + ".old"
	os.RemoveAll(old)
	if _, err := os.Stat(current); err == nil {
		if err := os.Rename(current, old); err != nil {
			return fmt.Errorf("retire current index: %w", err)
		}
	}
	if err := os.Rename(staging, current); err != nil {
		return fmt.Errorf("publish staging index: %w", err)
	}
	os.RemoveAll(old)

	s.cache[tenantID] = col
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, tenantID string, vector []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search k must be positive, got %d", k)
	}
	col, err := s.collection(tenantID)
	if err != nil {
		return nil, err
	}

	if n := col.Count(); k > n {
		k = n
	}
	results, err := col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{Content: r.Content, Score: r.Similarity}
	}
	return out, nil
}

func (s *ChromemStore) Exists(ctx context.Context, tenantID string) (bool, error) {
	s.mu.RLock()
	_, ok := s.cache[tenantID]
	s.mu.RUnlock()
	if ok {
		return true, nil
	}
	_, err := os.Stat(filepath.Join(s.tenantDir(tenantID), currentDirName))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// collection returns the tenant's loaded collection, reading it from disk on
// first use after a restart.
func (s *ChromemStore) collection(tenantID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.cache[tenantID]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.cache[tenantID]; ok {
		return col, nil
	}

	current := filepath.Join(s.tenantDir(tenantID), currentDirName)
	if _, err := os.Stat(current); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrIndexNotFound, tenantID)
		}
		return nil, err
	}
	db, err := chromem.NewPersistentDB(current, compress)
	if err != nil {
		return nil, fmt.Errorf("open tenant database: %w", err)
	}
	col = db.GetCollection(collectionName, nil)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrIndexNotFound, tenantID)
	}
	s.cache[tenantID] = col
	return col, nil
}
