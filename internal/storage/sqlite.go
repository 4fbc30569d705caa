//go:build cgo

// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MereWhiplash/semfind/internal/codec"
	"github.com/MereWhiplash/semfind/internal/types"
)

// SQLite implements Storage using SQLite with sqlite-vec
type SQLite struct {
	conn   *sql.DB
	dims   int
	logger *slog.Logger

	// beforeVectorInsert runs inside the insert transaction between the two
	// writes. Tests use it to inject failures.
	beforeVectorInsert func(id int64) error
}

var vecDimsPattern = regexp.MustCompile(`(?i)embedding\s+float\[(\d+)\]`)

// NewSQLite creates a new SQLite storage holding dims-wide embeddings
func NewSQLite(path string, dims int) (*SQLite, error) {
	if dims <= 0 {
		return nil, types.StoreError("open", fmt.Errorf("invalid dimensions %d", dims))
	}

	sqlite_vec.Auto()

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, types.StoreError("open", fmt.Errorf("failed to open database: %w", err))
	}
	// one connection keeps :memory: databases shared and writes serialized
	conn.SetMaxOpenConns(1)

	s := &SQLite{
		conn:   conn,
		dims:   dims,
		logger: slog.Default().With("component", "sqlite-store"),
	}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, types.StoreError("init schema", err)
	}

	return s, nil
}

func (s *SQLite) initSchema() error {
	var version string
	if err := s.conn.QueryRow(`SELECT vec_version()`).Scan(&version); err != nil {
		return fmt.Errorf("sqlite-vec extension is not available: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL CHECK(file_path <> ''),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_files_path ON files(file_path);

		CREATE VIRTUAL TABLE IF NOT EXISTS file_vectors USING vec0(
			file_id INTEGER PRIMARY KEY,
			embedding FLOAT[%d] distance_metric=cosine
		);
	`, s.dims)
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}

	existing, err := s.schemaDims()
	if err != nil {
		return err
	}
	if existing != s.dims {
		return fmt.Errorf("%w: index was created with %d dimensions, configured %d",
			types.ErrDimensionMismatch, existing, s.dims)
	}

	s.logger.Debug("schema ready", "sqlite_vec", version, "dims", s.dims)
	return nil
}

func (s *SQLite) schemaDims() (int, error) {
	var ddl string
	err := s.conn.QueryRow(`SELECT sql FROM sqlite_master WHERE name = 'file_vectors'`).Scan(&ddl)
	if err != nil {
		return 0, fmt.Errorf("failed to read vector table schema: %w", err)
	}
	m := vecDimsPattern.FindStringSubmatch(ddl)
	if m == nil {
		return 0, fmt.Errorf("unrecognized vector table schema: %s", ddl)
	}
	return strconv.Atoi(m[1])
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) Insert(ctx context.Context, path string, embedding types.Embedding) (*types.FileRecord, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	if err := checkDims("insert", s.dims, embedding); err != nil {
		return nil, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO files (file_path, created_at) VALUES (?, ?)`,
		path, now,
	)
	if err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to insert file: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, types.StoreError("insert", err)
	}

	if s.beforeVectorInsert != nil {
		if err := s.beforeVectorInsert(id); err != nil {
			return nil, types.StoreError("insert", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO file_vectors (file_id, embedding) VALUES (?, ?)`,
		id, codec.Encode(embedding),
	)
	if err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to insert embedding: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to commit: %w", err))
	}

	return &types.FileRecord{
		ID:        id,
		Path:      path,
		CreatedAt: now,
	}, nil
}

func (s *SQLite) Search(ctx context.Context, embedding types.Embedding, k int) ([]types.Match, error) {
	if err := checkDims("search", s.dims, embedding); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 1
	}

	query := `
		WITH knn AS (
			SELECT file_id, distance
			FROM file_vectors
			WHERE embedding MATCH ? AND k = ?
		)
		SELECT f.id, f.file_path, knn.distance
		FROM knn
		JOIN files f ON f.id = knn.file_id
		ORDER BY knn.distance, f.id
		LIMIT ?
	`

	// vec0 cuts at k before the id ordering applies, so equal-distance rows
	// past the cut would be lost to an arbitrary pick.
	rows, err := s.conn.QueryContext(ctx, query, codec.Encode(embedding), k+tieSlack, k)
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

func (s *SQLite) List(ctx context.Context, opts types.ListOpts) ([]types.FileRecord, error) {
	limit, offset := listLimit(opts)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, file_path, created_at FROM files ORDER BY id DESC LIMIT ? OFFSET ?`,
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

func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, types.StoreError("count", err)
	}
	return n, nil
}
