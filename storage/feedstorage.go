package storage

import (
	"context"
	"errors"
	"fmt"

	"argus/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FeedStorage handles threat feed configuration persistence
type FeedStorage struct {
	coll *mongo.Collection
}

// NewFeedStorage creates a new feed storage handler
func NewFeedStorage(mongoDB *MongoDB) *FeedStorage {
	return &FeedStorage{coll: mongoDB.Database.Collection("threat_feeds")}
}

// CreateFeed inserts a new feed configuration
func (s *FeedStorage) CreateFeed(ctx context.Context, feed *core.ThreatFeed) error {
	if _, err := s.coll.InsertOne(ctx, feed); err != nil {
		return fmt.Errorf("failed to insert feed: %w", err)
	}
	return nil
}

// GetFeed retrieves a single feed configuration by ID
func (s *FeedStorage) GetFeed(ctx context.Context, id string) (*core.ThreatFeed, error) {
	var feed core.ThreatFeed
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&feed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrFeedNotFound
		}
		return nil, fmt.Errorf("failed to find feed: %w", err)
	}
	return &feed, nil
}

// ListFeeds retrieves every feed configuration, newest first
func (s *FeedStorage) ListFeeds(ctx context.Context) ([]*core.ThreatFeed, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find feeds: %w", err)
	}
	defer cursor.Close(ctx)

	feeds := make([]*core.ThreatFeed, 0)
	if err = cursor.All(ctx, &feeds); err != nil {
		return nil, fmt.Errorf("failed to decode feeds: %w", err)
	}
	core.SortFeedsByRecency(feeds)
	return feeds, nil
}

// SetFeedEnabled toggles a feed configuration
func (s *FeedStorage) SetFeedEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"enabled": enabled}})
	if err != nil {
		return fmt.Errorf("failed to toggle feed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrFeedNotFound
	}
	return nil
}

// DeleteFeed removes a feed configuration by ID
func (s *FeedStorage) DeleteFeed(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrFeedNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes for the threat_feeds collection
func (s *FeedStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "enabled", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create feed indexes: %w", err)
	}
	return nil
}
