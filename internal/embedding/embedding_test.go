package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"docquery/internal/models"
	"docquery/internal/retry"
)

// fakeEmbedder implements langchaingo's embeddings.Embedder.
type fakeEmbedder struct {
	queryCalls int
	batchCalls int
	failUntil  int
	vectors    [][]float32
	short      bool
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queryCalls++
	if f.queryCalls <= f.failUntil {
		return nil, errors.New("connection refused")
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	if f.batchCalls <= f.failUntil {
		return nil, errors.New("connection refused")
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func TestEmbedQuery(t *testing.T) {
	c := New(&fakeEmbedder{}, retry.Default(), 0)
	v, err := c.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(v) != 3 {
		t.Errorf("vector length = %d, want 3", len(v))
	}
}

func TestEmbedQuery_ServiceError(t *testing.T) {
	c := New(&fakeEmbedder{failUntil: 100}, retry.Default(), 0)
	_, err := c.EmbedQuery(context.Background(), "hello")
	if !errors.Is(err, models.ErrEmbeddingService) {
		t.Errorf("EmbedQuery() error = %v, want ErrEmbeddingService", err)
	}
}

func TestEmbedQuery_RetriesPerPolicy(t *testing.T) {
	fake := &fakeEmbedder{failUntil: 2}
	c := New(fake, retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, 0)
	_, err := c.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v, want success on third attempt", err)
	}
	if fake.queryCalls != 3 {
		t.Errorf("queryCalls = %d, want 3", fake.queryCalls)
	}
}

func TestEmbedDocuments_OrderPreserving(t *testing.T) {
	c := New(&fakeEmbedder{}, retry.Default(), 0)
	vs, err := c.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	if len(vs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vs))
	}
	for i, v := range vs {
		if v[0] != float32(i) {
			t.Errorf("vector %d out of order: %v", i, v)
		}
	}
}

func TestEmbedDocuments_NoPartialResults(t *testing.T) {
	c := New(&fakeEmbedder{short: true}, retry.Default(), 0)
	vs, err := c.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	if !errors.Is(err, models.ErrEmbeddingService) {
		t.Errorf("EmbedDocuments() error = %v, want ErrEmbeddingService", err)
	}
	if vs != nil {
		t.Errorf("got partial results: %v", vs)
	}
}

func TestEmbedDocuments_EmptyVectorRejected(t *testing.T) {
	c := New(&fakeEmbedder{vectors: [][]float32{{1, 0}, {}}}, retry.Default(), 0)
	_, err := c.EmbedDocuments(context.Background(), []string{"a", "b"})
	if !errors.Is(err, models.ErrEmbeddingService) {
		t.Errorf("EmbedDocuments() error = %v, want ErrEmbeddingService", err)
	}
}

func TestEmbedDocuments_EmptyInput(t *testing.T) {
	c := New(&fakeEmbedder{}, retry.Default(), 0)
	_, err := c.EmbedDocuments(context.Background(), nil)
	if !errors.Is(err, models.ErrEmbeddingService) {
		t.Errorf("EmbedDocuments() error = %v, want ErrEmbeddingService", err)
	}
}
