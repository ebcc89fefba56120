package core

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FeedType represents the format of a configured threat feed
type FeedType string

const (
	FeedTypeJSON FeedType = "json"
	FeedTypeCSV  FeedType = "csv"
	FeedTypeSTIX FeedType = "stix"
)

// AllFeedTypes returns all valid feed types
var AllFeedTypes = []FeedType{FeedTypeJSON, FeedTypeCSV, FeedTypeSTIX}

// IsValid checks if the feed type is valid
func (t FeedType) IsValid() bool {
	for _, valid := range AllFeedTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// ThreatFeed is a configured external feed. Feeds are configuration only:
// nothing in this codebase fetches them.
type ThreatFeed struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	URL          string     `json:"url" bson:"url"`
	FeedType     FeedType   `json:"feed_type" bson:"feed_type"`
	Enabled      bool       `json:"enabled" bson:"enabled"`
	LastSync     *time.Time `json:"last_sync,omitempty" bson:"last_sync,omitempty"`
	SyncInterval int        `json:"sync_interval" bson:"sync_interval"` // minutes
	Reputation   int        `json:"reputation" bson:"reputation"`       // 0-100, scales imported confidence
	Description  string     `json:"description,omitempty" bson:"description,omitempty"`
	Provider     string     `json:"provider,omitempty" bson:"provider,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}

// NewThreatFeed creates a feed config with generated ID and validation
func NewThreatFeed(name, feedURL string, feedType FeedType, syncInterval, reputation int) (*ThreatFeed, error) {
	if name == "" {
		return nil, fmt.Errorf("feed name is required")
	}
	if _, err := url.ParseRequestURI(feedURL); err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	if !feedType.IsValid() {
		return nil, fmt.Errorf("invalid feed type: %s", feedType)
	}
	if syncInterval <= 0 {
		return nil, fmt.Errorf("sync interval must be positive")
	}
	if reputation == 0 {
		reputation = 75
	}
	if reputation < 0 || reputation > 100 {
		return nil, fmt.Errorf("reputation must be between 0 and 100")
	}

	return &ThreatFeed{
		ID:           uuid.New().String(),
		Name:         name,
		URL:          feedURL,
		FeedType:     feedType,
		Enabled:      true,
		SyncInterval: syncInterval,
		Reputation:   reputation,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// FeedStats contains aggregated feed metrics
type FeedStats struct {
	TotalFeeds    int        `json:"total_feeds"`
	EnabledFeeds  int        `json:"enabled_feeds"`
	TotalFeedIOCs int        `json:"total_feed_iocs"`
	TodayFeedIOCs int        `json:"today_feed_iocs"`
	LastSync      *time.Time `json:"last_sync,omitempty"`
}

// ComputeFeedStats aggregates feed config counts plus feed-attributed IOC
// counts over the last 24 hours.
func ComputeFeedStats(feeds []*ThreatFeed, iocs []*IOC, now time.Time) *FeedStats {
	stats := &FeedStats{}
	for _, f := range feeds {
		stats.TotalFeeds++
		if f.Enabled {
			stats.EnabledFeeds++
		}
		if f.LastSync != nil && (stats.LastSync == nil || f.LastSync.After(*stats.LastSync)) {
			stats.LastSync = f.LastSync
		}
	}
	cutoff := now.Add(-24 * time.Hour)
	for _, ioc := range iocs {
		if ioc.FeedID == "" {
			continue
		}
		stats.TotalFeedIOCs++
		if ioc.FirstSeen.After(cutoff) {
			stats.TodayFeedIOCs++
		}
	}
	return stats
}

// SortFeedsByRecency orders feeds newest-first in place.
func SortFeedsByRecency(feeds []*ThreatFeed) {
	sort.SliceStable(feeds, func(i, j int) bool {
		return feeds[i].CreatedAt.After(feeds[j].CreatedAt)
	})
}

// FeedStorage defines the interface for threat feed config persistence
type FeedStorage interface {
	CreateFeed(ctx context.Context, feed *ThreatFeed) error
	GetFeed(ctx context.Context, id string) (*ThreatFeed, error)
	ListFeeds(ctx context.Context) ([]*ThreatFeed, error)
	SetFeedEnabled(ctx context.Context, id string, enabled bool) error
	DeleteFeed(ctx context.Context, id string) error
}
