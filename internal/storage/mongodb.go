package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MereWhiplash/semfind/internal/types"
)

// VectorIndexName is the Atlas Vector Search index queried by MongoDB.Search.
// It must be defined on files.embedding with cosine similarity.
const VectorIndexName = "file_vectors_index"

// MongoDB implements Storage using MongoDB with Atlas Vector Search.
// The embedding lives in the file document, so the pair is written atomically.
type MongoDB struct {
	client   *mongo.Client
	db       *mongo.Database
	files    *mongo.Collection
	counters *mongo.Collection
	dims     int
	logger   *slog.Logger
}

// fileDoc is the MongoDB document structure
type fileDoc struct {
	ID        int64     `bson:"_id"`
	Path      string    `bson:"file_path"`
	CreatedAt time.Time `bson:"created_at"`
	Embedding []float32 `bson:"embedding,omitempty"`
	Score     float64   `bson:"score,omitempty"`
}

// NewMongoDB creates a new MongoDB storage holding dims-wide embeddings
func NewMongoDB(ctx context.Context, uri, database string, dims int) (*MongoDB, error) {
	if dims <= 0 {
		return nil, types.StoreError("open", fmt.Errorf("invalid dimensions %d", dims))
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, types.StoreError("open", fmt.Errorf("failed to connect to mongodb: %w", err))
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, types.StoreError("open", fmt.Errorf("failed to ping mongodb: %w", err))
	}

	db := client.Database(database)
	m := &MongoDB{
		client:   client,
		db:       db,
		files:    db.Collection("files"),
		counters: db.Collection("counters"),
		dims:     dims,
		logger:   slog.Default().With("component", "mongodb-store"),
	}

	if err := m.initIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, types.StoreError("init schema", fmt.Errorf("failed to create indexes: %w", err))
	}

	if err := m.checkExistingDims(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, types.StoreError("init schema", err)
	}

	return m, nil
}

func (m *MongoDB) initIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "file_path", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := m.files.Indexes().CreateMany(ctx, indexes)
	return err
}

func (m *MongoDB) checkExistingDims(ctx context.Context) error {
	var doc fileDoc
	err := m.files.FindOne(ctx, bson.D{}, options.FindOne().SetProjection(bson.D{{Key: "embedding", Value: 1}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read existing document: %w", err)
	}
	if len(doc.Embedding) != m.dims {
		return fmt.Errorf("%w: index was created with %d dimensions, configured %d",
			types.ErrDimensionMismatch, len(doc.Embedding), m.dims)
	}
	return nil
}

// nextID increments a persistent counter so ids are never reused, even
// across processes sharing the database.
func (m *MongoDB) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: "files"}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) Insert(ctx context.Context, path string, embedding types.Embedding) (*types.FileRecord, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	if err := checkDims("insert", m.dims, embedding); err != nil {
		return nil, err
	}

	id, err := m.nextID(ctx)
	if err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to allocate id: %w", err))
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := fileDoc{
		ID:        id,
		Path:      path,
		CreatedAt: now,
		Embedding: embedding,
	}
	if _, err := m.files.InsertOne(ctx, doc); err != nil {
		return nil, types.StoreError("insert", fmt.Errorf("failed to insert file: %w", err))
	}

	return &types.FileRecord{ID: id, Path: path, CreatedAt: now}, nil
}

func (m *MongoDB) Search(ctx context.Context, embedding types.Embedding, k int) ([]types.Match, error) {
	if err := checkDims("search", m.dims, embedding); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 1
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: VectorIndexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: []float32(embedding)},
			{Key: "numCandidates", Value: (k + tieSlack) * 10},
			{Key: "limit", Value: k + tieSlack},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "file_path", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: k}},
	}

	cursor, err := m.files.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, types.StoreError("search", fmt.Errorf("vector search failed (requires Atlas index %q): %w", VectorIndexName, err))
	}
	defer cursor.Close(ctx)

	var matches []types.Match
	for cursor.Next(ctx) {
		var doc fileDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, types.StoreError("search", err)
		}
		// Atlas normalizes cosine scores to (1 + cos) / 2
		sim := 2*doc.Score - 1
		matches = append(matches, types.Match{
			ID:         doc.ID,
			Path:       doc.Path,
			Similarity: sim,
			Distance:   1 - sim,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, types.StoreError("search", err)
	}

	return matches, nil
}

func (m *MongoDB) List(ctx context.Context, opts types.ListOpts) ([]types.FileRecord, error) {
	limit, offset := listLimit(opts)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "embedding", Value: 0}})

	cursor, err := m.files.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, types.StoreError("list", err)
	}
	defer cursor.Close(ctx)

	var files []types.FileRecord
	for cursor.Next(ctx) {
		var doc fileDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, types.StoreError("list", err)
		}
		files = append(files, types.FileRecord{ID: doc.ID, Path: doc.Path, CreatedAt: doc.CreatedAt})
	}
	if err := cursor.Err(); err != nil {
		return nil, types.StoreError("list", err)
	}

	return files, nil
}

func (m *MongoDB) Count(ctx context.Context) (int64, error) {
	n, err := m.files.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, types.StoreError("count", err)
	}
	return n, nil
}
