package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ThreatLogMetadata carries optional request context for a raw threat event
type ThreatLogMetadata struct {
	SourceIP  string `json:"source_ip,omitempty" bson:"source_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" bson:"endpoint,omitempty"`
}

// ThreatLog represents a raw ingested security event awaiting AI analysis.
// A threat log is mutated exactly once: when its analysis completes, the
// analyzed flag flips and the analysis link is set.
type ThreatLog struct {
	ID        string             `json:"id" bson:"_id"`
	RawData   string             `json:"raw_data" bson:"raw_data"`
	Source    string             `json:"source" bson:"source"`
	EventType string             `json:"event_type" bson:"event_type"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
	Analyzed  bool               `json:"analyzed" bson:"analyzed"`
	// AIAnalysisID is set iff Analyzed is true
	AIAnalysisID string             `json:"ai_analysis_id,omitempty" bson:"ai_analysis_id,omitempty"`
	Severity     Severity           `json:"severity,omitempty" bson:"severity,omitempty"`
	Metadata     *ThreatLogMetadata `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// NewThreatLog creates a raw threat event record with generated ID
func NewThreatLog(rawData, source, eventType string) (*ThreatLog, error) {
	if rawData == "" {
		return nil, fmt.Errorf("raw data is required")
	}
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if eventType == "" {
		return nil, fmt.Errorf("event type is required")
	}

	return &ThreatLog{
		ID:        uuid.New().String(),
		RawData:   rawData,
		Source:    source,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Analyzed:  false,
	}, nil
}

// DefaultThreatLogListLimit is the default truncation for threat log queries
const DefaultThreatLogListLimit = 50

// ThreatLogFilters defines filters for listing threat logs
type ThreatLogFilters struct {
	Analyzed *bool `json:"analyzed"`
	Limit    int   `json:"limit"`
}

// FilterThreatLogs returns the subset of threat logs satisfying the filter,
// ordered by descending timestamp and truncated to the limit.
func FilterThreatLogs(logs []*ThreatLog, f *ThreatLogFilters) []*ThreatLog {
	matched := make([]*ThreatLog, 0, len(logs))
	for _, log := range logs {
		if f != nil && f.Analyzed != nil && log.Analyzed != *f.Analyzed {
			continue
		}
		matched = append(matched, log)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	limit := DefaultThreatLogListLimit
	if f != nil && f.Limit > 0 {
		limit = f.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// ThreatLogStorage defines the interface for raw threat event persistence
type ThreatLogStorage interface {
	CreateThreatLog(ctx context.Context, log *ThreatLog) error
	GetThreatLog(ctx context.Context, id string) (*ThreatLog, error)
	ListThreatLogs(ctx context.Context, filters *ThreatLogFilters) ([]*ThreatLog, error)
	GetAllThreatLogs(ctx context.Context) ([]*ThreatLog, error)
	GetLatestThreatLog(ctx context.Context) (*ThreatLog, error)

	// MarkAnalyzed flips the analyzed flag and links the analysis in one patch
	MarkAnalyzed(ctx context.Context, id, analysisID string, severity Severity) error
}
