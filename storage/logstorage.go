package storage

import (
	"context"
	"fmt"
	"time"

	"argus/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LogStorage handles security log persistence and retrieval
type LogStorage struct {
	coll *mongo.Collection
}

// NewLogStorage creates a new security log storage handler
func NewLogStorage(mongoDB *MongoDB) *LogStorage {
	return &LogStorage{coll: mongoDB.Database.Collection("security_logs")}
}

// CreateLog inserts a new security log entry
func (s *LogStorage) CreateLog(ctx context.Context, log *core.SecurityLog) error {
	if _, err := s.coll.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to insert security log: %w", err)
	}
	return nil
}

// ListLogs retrieves log entries matching the filters, newest first
func (s *LogStorage) ListLogs(ctx context.Context, filters *core.LogFilters) ([]*core.SecurityLog, error) {
	logs, err := s.GetAllLogs(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterLogs(logs, filters), nil
}

// GetAllLogs retrieves every log entry
func (s *LogStorage) GetAllLogs(ctx context.Context) ([]*core.SecurityLog, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find security logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := make([]*core.SecurityLog, 0)
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode security logs: %w", err)
	}
	return logs, nil
}

// GetLogStats aggregates log counts
func (s *LogStorage) GetLogStats(ctx context.Context) (*core.LogStats, error) {
	logs, err := s.GetAllLogs(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeLogStats(logs, time.Now().UTC()), nil
}

// EnsureIndexes creates necessary indexes for the security_logs collection
func (s *LogStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "source", Value: 1}}},
		{Keys: bson.D{{Key: "anomaly_score", Value: -1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create security log indexes: %w", err)
	}
	return nil
}
