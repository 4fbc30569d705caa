package storage_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MereWhiplash/semfind/internal/storage"
	"github.com/MereWhiplash/semfind/internal/types"
)

const pgDims = 4

// postgresDSN returns TEST_POSTGRES_DSN if set, otherwise starts a pgvector
// container. Tests are skipped if neither is available.
func postgresDSN(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping Postgres tests")
	}

	// Run panics rather than failing when no container runtime is reachable
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"pgvector/pgvector:pg16",
		pgmodule.WithDatabase("semfind_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start Postgres container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}
	return dsn
}

// cleanupPostgres drops the test tables so each test starts from an empty schema
func cleanupPostgres(t *testing.T, dsn string) {
	t.Helper()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect for cleanup: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS file_vectors, files"); err != nil {
		t.Fatalf("failed to cleanup tables: %v", err)
	}
}

func newPostgres(t *testing.T) (*storage.Postgres, string) {
	t.Helper()
	dsn := postgresDSN(t)
	cleanupPostgres(t, dsn)

	store, err := storage.NewPostgres(context.Background(), dsn, pgDims)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dsn
}

func TestPostgresStorage(t *testing.T) {
	store, dsn := newPostgres(t)
	ctx := context.Background()

	t.Run("empty search is not found", func(t *testing.T) {
		_, err := storage.SearchTop1(ctx, store, types.Embedding{1, 0, 0, 0})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("atomic insert", func(t *testing.T) {
		injected := errors.New("injected")
		store.SetBeforeVectorInsert(func(int64) error { return injected })
		defer store.SetBeforeVectorInsert(nil)

		_, err := store.Insert(ctx, "/docs/broken.txt", types.Embedding{1, 0, 0, 0})
		assert.ErrorIs(t, err, types.ErrStore)

		files, vectors, err := store.CountRows(ctx)
		require.NoError(t, err)
		assert.Zero(t, files)
		assert.Zero(t, vectors)
	})

	t.Run("insert then search", func(t *testing.T) {
		a, err := store.Insert(ctx, "/docs/a.txt", types.Embedding{1, 0.1, 0, 0})
		require.NoError(t, err)
		b, err := store.Insert(ctx, "/docs/b.txt", types.Embedding{0, 1, 0.1, 0})
		require.NoError(t, err)
		assert.Greater(t, b.ID, a.ID)
		assert.False(t, a.CreatedAt.IsZero())

		path, err := storage.SearchTop1(ctx, store, types.Embedding{0, 1, 0.1, 0})
		require.NoError(t, err)
		assert.Equal(t, "/docs/b.txt", path)

		matches, err := store.Search(ctx, types.Embedding{1, 0.1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "/docs/a.txt", matches[0].Path)
		assert.InDelta(t, 1, matches[0].Similarity, 1e-5)
	})

	t.Run("list and count", func(t *testing.T) {
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		files, err := store.List(ctx, types.ListOpts{Limit: 1})
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "/docs/b.txt", files[0].Path)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := store.Insert(ctx, "/docs/c.txt", types.Embedding{1, 2})
		assert.ErrorIs(t, err, types.ErrDimensionMismatch)

		_, err = storage.NewPostgres(ctx, dsn, pgDims+1)
		assert.ErrorIs(t, err, types.ErrDimensionMismatch)
	})
}
