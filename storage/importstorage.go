package storage

import (
	"context"
	"fmt"

	"argus/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImportStorage handles bulk import history persistence
type ImportStorage struct {
	coll *mongo.Collection
}

// NewImportStorage creates a new import history storage handler
func NewImportStorage(mongoDB *MongoDB) *ImportStorage {
	return &ImportStorage{coll: mongoDB.Database.Collection("import_records")}
}

// CreateImportRecord inserts a new import history record
func (s *ImportStorage) CreateImportRecord(ctx context.Context, record *core.ImportRecord) error {
	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert import record: %w", err)
	}
	return nil
}

// ListImportRecords retrieves the most recent import records
func (s *ImportStorage) ListImportRecords(ctx context.Context, limit int) ([]*core.ImportRecord, error) {
	if limit <= 0 {
		limit = core.DefaultImportHistoryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find import records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*core.ImportRecord, 0)
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode import records: %w", err)
	}
	return records, nil
}

// EnsureIndexes creates necessary indexes for the import_records collection
func (s *ImportStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create import record indexes: %w", err)
	}
	return nil
}
