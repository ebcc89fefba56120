package storage

import (
	"context"
	"errors"
	"fmt"

	"argus/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CorrelationStorage handles correlation persistence and retrieval
type CorrelationStorage struct {
	coll *mongo.Collection
}

// NewCorrelationStorage creates a new correlation storage handler
func NewCorrelationStorage(mongoDB *MongoDB) *CorrelationStorage {
	return &CorrelationStorage{coll: mongoDB.Database.Collection("correlations")}
}

// UpsertCorrelation inserts the correlation unless one already exists for the
// same source/target pair. The unique index on the key fields plus a single
// FindOneAndUpdate with $setOnInsert keeps the check-and-insert atomic, so
// concurrent identical requests resolve to one document.
func (s *CorrelationStorage) UpsertCorrelation(ctx context.Context, c *core.Correlation) (string, bool, error) {
	filter := bson.M{
		"source_kind": c.SourceKind,
		"source_id":   c.SourceID,
		"target_kind": c.TargetKind,
		"target_id":   c.TargetID,
	}
	update := bson.M{"$setOnInsert": c}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var existing core.Correlation
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&existing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// No prior document, the upsert inserted ours
			return c.ID, true, nil
		}
		return "", false, fmt.Errorf("failed to upsert correlation: %w", err)
	}
	return existing.ID, false, nil
}

// GetCorrelationsForEntity returns correlations where the entity appears as
// source or target
func (s *CorrelationStorage) GetCorrelationsForEntity(ctx context.Context, kind core.EntityKind, id string) ([]*core.Correlation, error) {
	filter := bson.M{"$or": []bson.M{
		{"source_kind": kind, "source_id": id},
		{"target_kind": kind, "target_id": id},
	}}
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find correlations: %w", err)
	}
	defer cursor.Close(ctx)

	correlations := make([]*core.Correlation, 0)
	if err = cursor.All(ctx, &correlations); err != nil {
		return nil, fmt.Errorf("failed to decode correlations: %w", err)
	}
	return correlations, nil
}

// GetAllCorrelations retrieves every correlation
func (s *CorrelationStorage) GetAllCorrelations(ctx context.Context) ([]*core.Correlation, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find correlations: %w", err)
	}
	defer cursor.Close(ctx)

	correlations := make([]*core.Correlation, 0)
	if err = cursor.All(ctx, &correlations); err != nil {
		return nil, fmt.Errorf("failed to decode correlations: %w", err)
	}
	return correlations, nil
}

// GetCorrelationStats aggregates correlation counts
func (s *CorrelationStorage) GetCorrelationStats(ctx context.Context) (*core.CorrelationStats, error) {
	correlations, err := s.GetAllCorrelations(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeCorrelationStats(correlations), nil
}

// EnsureIndexes creates necessary indexes for the correlations collection.
// The unique compound index backs the atomic upsert.
func (s *CorrelationStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "source_kind", Value: 1},
				{Key: "source_id", Value: 1},
				{Key: "target_kind", Value: 1},
				{Key: "target_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "target_kind", Value: 1}, {Key: "target_id", Value: 1}}},
		{Keys: bson.D{{Key: "detected_at", Value: -1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create correlation indexes: %w", err)
	}
	return nil
}
