package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/MereWhiplash/semfind/internal/types"
)

// Postgres implements Storage using PostgreSQL with pgvector
type Postgres struct {
	pool   *pgxpool.Pool
	dims   int
	logger *slog.Logger

	beforeVectorInsert func(id int64) error
}

// NewPostgres creates a new Postgres storage holding dims-wide embeddings
func NewPostgres(ctx context.Context, dsn string, dims int) (*Postgres, error) {
	if dims <= 0 {
		return nil, types.StoreError("open", fmt.Errorf("invalid dimensions %d", dims))
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, types.StoreError("open", fmt.Errorf("failed to connect to postgres: %w", err))
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, types.StoreError("open", fmt.Errorf("failed to ping postgres: %w", err))
	}

	p := &Postgres{
		pool:   pool,
		dims:   dims,
		logger: slog.Default().With("component", "postgres-store"),
	}
	if err := p.initSchema(ctx); err != nil {
		pool.Close()
		return nil, types.StoreError("init schema", err)
	}

	return p, nil
}

func (p *Postgres) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS files (
			id BIGSERIAL PRIMARY KEY,
			file_path TEXT NOT NULL CHECK(file_path <> ''),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS file_vectors (
			file_id BIGINT PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
			embedding vector(%d) NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_files_path ON files(file_path);

		CREATE INDEX IF NOT EXISTS idx_file_vectors_embedding
		ON file_vectors USING hnsw (embedding vector_cosine_ops);
	`, p.dims)
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return err
	}

	// pgvector stores the declared width in atttypmod
	var existing int
	err := p.pool.QueryRow(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'file_vectors'::regclass AND attname = 'embedding'
	`).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to read vector column: %w", err)
	}
	if existing != p.dims {
		return fmt.Errorf("%w: index was created with %d dimensions, configured %d",
			types.ErrDimensionMismatch, existing, p.dims)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Insert(ctx context.Context, path string, embedding types.Embedding) (*types.FileRecord, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	if err := checkDims("insert", p.dims, embedding); err != nil {
		return nil, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	rec := types.FileRecord{Path: path}
	err = tx.QueryRow(ctx,
		`INSERT INTO files (file_path) VALUES ($1) RETURNING id, created_at`,
		path,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to insert file: %w", err))
	}

	if p.beforeVectorInsert != nil {
		if err := p.beforeVectorInsert(rec.ID); err != nil {
			return nil, types.StoreError("insert", err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO file_vectors (file_id, embedding) VALUES ($1, $2)`,
		rec.ID, pgvector.NewVector(embedding),
	)
	if err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to insert embedding: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to commit: %w", err))
	}

	return &rec, nil
}

func (p *Postgres) Search(ctx context.Context, embedding types.Embedding, k int) ([]types.Match, error) {
	if err := checkDims("search", p.dims, embedding); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 1
	}

	rows, err := p.pool.Query(ctx, `
		SELECT f.id, f.file_path, e.embedding <=> $1 AS distance
		FROM file_vectors e
		JOIN files f ON f.id = e.file_id
		ORDER BY distance, f.id
		LIMIT $2
	`, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, types.StoreError("search", err)
	}
	defer rows.Close()

	var matches []types.Match
	for rows.Next() {
		var m types.Match
		if err := rows.Scan(&m.ID, &m.Path, &m.Distance); err != nil {
			return nil, types.StoreError("search", err)
		}
		m.Similarity = 1 - m.Distance
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, types.StoreError("search", err)
	}

	return matches, nil
}

func (p *Postgres) List(ctx context.Context, opts types.ListOpts) ([]types.FileRecord, error) {
	limit, offset := listLimit(opts)

	rows, err := p.pool.Query(ctx,
		`SELECT id, file_path, created_at FROM files ORDER BY id DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, types.StoreError("list", err)
	}
	defer rows.Close()

	var files []types.FileRecord
	for rows.Next() {
		var f types.FileRecord
		if err := rows.Scan(&f.ID, &f.Path, &f.CreatedAt); err != nil {
			return nil, types.StoreError("list", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, types.StoreError("list", err)
	}

	return files, nil
}

func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, types.StoreError("count", err)
	}
	return n, nil
}
