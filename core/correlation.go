package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityKind identifies the record kind referenced by correlations and
// incident evidence
type EntityKind string

const (
	EntityKindIOC      EntityKind = "ioc"
	EntityKindLog      EntityKind = "log"
	EntityKindIncident EntityKind = "incident"
	EntityKindAnalysis EntityKind = "analysis"
)

// AllEntityKinds returns all valid entity kinds
var AllEntityKinds = []EntityKind{
	EntityKindIOC, EntityKindLog, EntityKindIncident, EntityKindAnalysis,
}

// IsValid checks if the entity kind is valid
func (k EntityKind) IsValid() bool {
	for _, valid := range AllEntityKinds {
		if k == valid {
			return true
		}
	}
	return false
}

// Correlation represents a detected relationship between two entities.
// Correlations are read-only after creation and unique on their composite
// key (SourceKind, SourceID, TargetKind, TargetID).
type Correlation struct {
	ID              string     `json:"id" bson:"_id"`
	SourceKind      EntityKind `json:"source_kind" bson:"source_kind"`
	SourceID        string     `json:"source_id" bson:"source_id"`
	TargetKind      EntityKind `json:"target_kind" bson:"target_kind"`
	TargetID        string     `json:"target_id" bson:"target_id"`
	CorrelationType string     `json:"correlation_type" bson:"correlation_type"` // ip_match, domain_match, hash_match, temporal, behavioral
	Confidence      int        `json:"confidence" bson:"confidence"`             // 0-100
	DetectedAt      time.Time  `json:"detected_at" bson:"detected_at"`

	MatchedValue string `json:"matched_value,omitempty" bson:"matched_value,omitempty"`
	Reason       string `json:"reason,omitempty" bson:"reason,omitempty"`
}

// NewCorrelation creates a correlation record with generated ID and validation
func NewCorrelation(sourceKind EntityKind, sourceID string, targetKind EntityKind, targetID, correlationType string, confidence int) (*Correlation, error) {
	if !sourceKind.IsValid() {
		return nil, fmt.Errorf("invalid source kind: %s", sourceKind)
	}
	if !targetKind.IsValid() {
		return nil, fmt.Errorf("invalid target kind: %s", targetKind)
	}
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("source and target IDs are required")
	}
	if correlationType == "" {
		return nil, fmt.Errorf("correlation type is required")
	}
	if confidence < 0 || confidence > 100 {
		return nil, fmt.Errorf("confidence must be between 0 and 100")
	}

	return &Correlation{
		ID:              uuid.New().String(),
		SourceKind:      sourceKind,
		SourceID:        sourceID,
		TargetKind:      targetKind,
		TargetID:        targetID,
		CorrelationType: correlationType,
		Confidence:      confidence,
		DetectedAt:      time.Now().UTC(),
	}, nil
}

// Key returns the composite uniqueness key for deduplication.
func (c *Correlation) Key() string {
	return CorrelationKey(c.SourceKind, c.SourceID, c.TargetKind, c.TargetID)
}

// CorrelationKey builds the composite uniqueness key for a correlation pair.
func CorrelationKey(sourceKind EntityKind, sourceID string, targetKind EntityKind, targetID string) string {
	return fmt.Sprintf("%s:%s->%s:%s", sourceKind, sourceID, targetKind, targetID)
}

// CorrelationStats contains aggregated correlation metrics
type CorrelationStats struct {
	Total          int            `json:"total"`
	ByType         map[string]int `json:"by_type"`
	HighConfidence int            `json:"high_confidence"`
}

// ComputeCorrelationStats aggregates counts over the correlation collection.
func ComputeCorrelationStats(correlations []*Correlation) *CorrelationStats {
	stats := &CorrelationStats{
		ByType: make(map[string]int),
	}
	for _, c := range correlations {
		stats.Total++
		stats.ByType[c.CorrelationType]++
		if c.Confidence > HighConfidenceThreshold {
			stats.HighConfidence++
		}
	}
	return stats
}

// CorrelationStorage defines the interface for correlation persistence.
type CorrelationStorage interface {
	// UpsertCorrelation inserts the correlation unless one already exists for
	// the same composite key, in which case it returns the existing ID. The
	// check-and-insert must be atomic so concurrent identical requests cannot
	// create duplicates.
	UpsertCorrelation(ctx context.Context, correlation *Correlation) (id string, created bool, err error)

	// GetCorrelationsForEntity returns correlations where the entity appears
	// as source or target.
	GetCorrelationsForEntity(ctx context.Context, kind EntityKind, id string) ([]*Correlation, error)

	GetAllCorrelations(ctx context.Context) ([]*Correlation, error)
	GetCorrelationStats(ctx context.Context) (*CorrelationStats, error)
}
