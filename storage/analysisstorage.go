package storage

import (
	"context"
	"errors"
	"fmt"

	"argus/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AnalysisStorage handles AI analysis persistence and retrieval
type AnalysisStorage struct {
	coll *mongo.Collection
}

// NewAnalysisStorage creates a new analysis storage handler
func NewAnalysisStorage(mongoDB *MongoDB) *AnalysisStorage {
	return &AnalysisStorage{coll: mongoDB.Database.Collection("ai_analyses")}
}

// CreateAnalysis inserts a new analysis
func (s *AnalysisStorage) CreateAnalysis(ctx context.Context, analysis *core.AIAnalysis) error {
	if _, err := s.coll.InsertOne(ctx, analysis); err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves a single analysis by ID
func (s *AnalysisStorage) GetAnalysis(ctx context.Context, id string) (*core.AIAnalysis, error) {
	var analysis core.AIAnalysis
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&analysis)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// ListAnalyses retrieves analyses matching the filters, newest first
func (s *AnalysisStorage) ListAnalyses(ctx context.Context, filters *core.AnalysisFilters) ([]*core.AIAnalysis, error) {
	analyses, err := s.GetAllAnalyses(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterAnalyses(analyses, filters), nil
}

// GetAllAnalyses retrieves every analysis
func (s *AnalysisStorage) GetAllAnalyses(ctx context.Context) ([]*core.AIAnalysis, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find analyses: %w", err)
	}
	defer cursor.Close(ctx)

	analyses := make([]*core.AIAnalysis, 0)
	if err = cursor.All(ctx, &analyses); err != nil {
		return nil, fmt.Errorf("failed to decode analyses: %w", err)
	}
	return analyses, nil
}

// GetAnalysisStats aggregates analysis counts
func (s *AnalysisStorage) GetAnalysisStats(ctx context.Context, liveOnly bool) (*core.AnalysisStats, error) {
	analyses, err := s.GetAllAnalyses(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeAnalysisStats(analyses, liveOnly), nil
}

// EnsureIndexes creates necessary indexes for the ai_analyses collection
func (s *AnalysisStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "analysis_type", Value: 1}}},
		{Keys: bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create analysis indexes: %w", err)
	}
	return nil
}
