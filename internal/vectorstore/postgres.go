package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docquery/internal/config"
	"docquery/internal/models"
)

const vectorSize = 768

type chunkRow struct {
	bun.BaseModel `bun:"table:rag_chunks,alias:rc"`
	ID            int64     `bun:"id,pk,autoincrement"`
	TenantID      string    `bun:"tenant_id,notnull"`
	Ordinal       int       `bun:"ordinal,notnull"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
}

// PostgresStore keeps tenant indexes as rows in a pgvector table. Replace-on-
// build is a single transaction, so it is atomic without any file juggling.
type PostgresStore struct {
	db *bun.DB
}

func ConnectPostgres(cfg *config.DatabaseConfig) (*bun.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Key)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

func NewPostgresStore(ctx context.Context, db *bun.DB) (*PostgresStore, error) {
	if _, err := db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("create rag_chunks table: %w", err)
	}
	if _, err := db.NewCreateIndex().Model((*chunkRow)(nil)).
		Index("rag_chunks_tenant_idx").Column("tenant_id").IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("create tenant index: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Build(ctx context.Context, tenantID string, chunks []models.Chunk, vectors [][]float32) error {
	if err := validateBuild(chunks, vectors); err != nil {
		return err
	}
	if dim := len(vectors[0]); dim != vectorSize {
		return fmt.Errorf("vector dimension %d does not match index schema %d", dim, vectorSize)
	}

	rows := make([]chunkRow, len(chunks))
	for i, chunk := range chunks {
		rows[i] = chunkRow{
			TenantID:  tenantID,
			Ordinal:   chunk.Ordinal,
			Content:   chunk.Content,
			Embedding: vectors[i],
		}
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*chunkRow)(nil)).
			Where("tenant_id = ?", tenantID).Exec(ctx); err != nil {
			return fmt.Errorf("clear tenant index: %w", err)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Search(ctx context.Context, tenantID string, vector []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search k must be positive, got %d", k)
	}
	exists, err := s.Exists(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrIndexNotFound, tenantID)
	}

	var results []SearchResult
	err = s.db.NewSelect().Model((*chunkRow)(nil)).
		ColumnExpr("content").
		ColumnExpr("1 - (embedding <=> ?) AS score", vector).
		Where("tenant_id = ?", tenantID).
		OrderExpr("embedding <=> ?", vector).
		Limit(k).
		Scan(ctx, &results)
	if err != nil {
		return nil, fmt.Errorf("search tenant index: %w", err)
	}
	return results, nil
}

func (s *PostgresStore) Exists(ctx context.Context, tenantID string) (bool, error) {
	count, err := s.db.NewSelect().Model((*chunkRow)(nil)).
		Where("tenant_id = ?", tenantID).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count tenant chunks: %w", err)
	}
	return count > 0, nil
}
