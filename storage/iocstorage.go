package storage

import (
	"context"
	"errors"
	"fmt"

	"argus/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IOCStorage handles indicator persistence and retrieval
type IOCStorage struct {
	coll *mongo.Collection
}

// NewIOCStorage creates a new IOC storage handler
func NewIOCStorage(mongoDB *MongoDB) *IOCStorage {
	return &IOCStorage{coll: mongoDB.Database.Collection("iocs")}
}

// CreateIOC inserts a new indicator
func (s *IOCStorage) CreateIOC(ctx context.Context, ioc *core.IOC) error {
	if _, err := s.coll.InsertOne(ctx, ioc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert ioc: %w", err)
	}
	return nil
}

// GetIOC retrieves a single indicator by ID
func (s *IOCStorage) GetIOC(ctx context.Context, id string) (*core.IOC, error) {
	var ioc core.IOC
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&ioc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrIOCNotFound
		}
		return nil, fmt.Errorf("failed to find ioc: %w", err)
	}
	return &ioc, nil
}

// UpdateIOC replaces an existing indicator document
func (s *IOCStorage) UpdateIOC(ctx context.Context, ioc *core.IOC) error {
	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": ioc.ID}, ioc)
	if err != nil {
		return fmt.Errorf("failed to update ioc: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrIOCNotFound
	}
	return nil
}

// DeleteIOC removes an indicator by ID
func (s *IOCStorage) DeleteIOC(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete ioc: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrIOCNotFound
	}
	return nil
}

// ListIOCs retrieves indicators matching the filters, newest first
func (s *IOCStorage) ListIOCs(ctx context.Context, filters *core.IOCFilters) ([]*core.IOC, error) {
	iocs, err := s.GetAllIOCs(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterIOCs(iocs, filters), nil
}

// GetAllIOCs retrieves every indicator
func (s *IOCStorage) GetAllIOCs(ctx context.Context) ([]*core.IOC, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find iocs: %w", err)
	}
	defer cursor.Close(ctx)

	iocs := make([]*core.IOC, 0)
	if err = cursor.All(ctx, &iocs); err != nil {
		return nil, fmt.Errorf("failed to decode iocs: %w", err)
	}
	return iocs, nil
}

// GetIOCStats aggregates indicator counts
func (s *IOCStorage) GetIOCStats(ctx context.Context) (*core.IOCStats, error) {
	iocs, err := s.GetAllIOCs(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeIOCStats(iocs), nil
}

// EnsureIndexes creates necessary indexes for the iocs collection
func (s *IOCStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "severity", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create ioc indexes: %w", err)
	}
	return nil
}
