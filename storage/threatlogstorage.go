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

// ThreatLogStorage handles raw threat log persistence and retrieval
type ThreatLogStorage struct {
	coll *mongo.Collection
}

// NewThreatLogStorage creates a new threat log storage handler
func NewThreatLogStorage(mongoDB *MongoDB) *ThreatLogStorage {
	return &ThreatLogStorage{coll: mongoDB.Database.Collection("threat_logs")}
}

// CreateThreatLog inserts a raw threat log entry
func (s *ThreatLogStorage) CreateThreatLog(ctx context.Context, log *core.ThreatLog) error {
	if _, err := s.coll.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to insert threat log: %w", err)
	}
	return nil
}

// GetThreatLog retrieves a single threat log by ID
func (s *ThreatLogStorage) GetThreatLog(ctx context.Context, id string) (*core.ThreatLog, error) {
	var log core.ThreatLog
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrThreatLogNotFound
		}
		return nil, fmt.Errorf("failed to find threat log: %w", err)
	}
	return &log, nil
}

// ListThreatLogs retrieves threat logs matching the filters, newest first
func (s *ThreatLogStorage) ListThreatLogs(ctx context.Context, filters *core.ThreatLogFilters) ([]*core.ThreatLog, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find threat logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := make([]*core.ThreatLog, 0)
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode threat logs: %w", err)
	}
	return core.FilterThreatLogs(logs, filters), nil
}

// GetAllThreatLogs retrieves every threat log entry
func (s *ThreatLogStorage) GetAllThreatLogs(ctx context.Context) ([]*core.ThreatLog, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find threat logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := make([]*core.ThreatLog, 0)
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode threat logs: %w", err)
	}
	return logs, nil
}

// GetLatestThreatLog retrieves the most recent threat log entry
func (s *ThreatLogStorage) GetLatestThreatLog(ctx context.Context) (*core.ThreatLog, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	var log core.ThreatLog
	err := s.coll.FindOne(ctx, bson.M{}, opts).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrThreatLogNotFound
		}
		return nil, fmt.Errorf("failed to find latest threat log: %w", err)
	}
	return &log, nil
}

// MarkAnalyzed flips the analyzed flag and links the analysis in one patch
func (s *ThreatLogStorage) MarkAnalyzed(ctx context.Context, id, analysisID string, severity core.Severity) error {
	update := bson.M{"$set": bson.M{
		"analyzed":       true,
		"ai_analysis_id": analysisID,
		"severity":       severity,
	}}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark threat log analyzed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrThreatLogNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes for the threat_logs collection
func (s *ThreatLogStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "analyzed", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create threat log indexes: %w", err)
	}
	return nil
}
