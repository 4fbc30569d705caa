package storage_test

import (
	"context"
	"os"
	"testing"

	"github.com/MereWhiplash/semfind/internal/storage"
	"github.com/MereWhiplash/semfind/internal/types"
)

func TestMongoDBStorage_Insert(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set, skipping MongoDB tests")
	}

	ctx := context.Background()
	store, err := storage.NewMongoDB(ctx, uri, "semfind_test", 4)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	first, err := store.Insert(ctx, "/docs/a.txt", types.Embedding{0.5, 0, 0, 0})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	second, err := store.Insert(ctx, "/docs/b.txt", types.Embedding{0, 0.5, 0, 0})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if first.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if second.ID <= first.ID {
		t.Errorf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
}

func TestMongoDBStorage_List(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set, skipping MongoDB tests")
	}

	ctx := context.Background()
	store, err := storage.NewMongoDB(ctx, uri, "semfind_test", 4)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	rec, err := store.Insert(ctx, "/docs/listed.txt", types.Embedding{0, 0, 0.5, 0})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	files, err := store.List(ctx, types.ListOpts{Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 || files[0].ID != rec.ID {
		t.Errorf("expected newest file %d first, got %+v", rec.ID, files)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n < 1 {
		t.Errorf("expected at least one file, got %d", n)
	}
}

func TestMongoDBStorage_DimensionMismatch(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set, skipping MongoDB tests")
	}

	ctx := context.Background()
	store, err := storage.NewMongoDB(ctx, uri, "semfind_test", 4)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	if _, err := store.Insert(ctx, "/docs/short.txt", types.Embedding{1}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
