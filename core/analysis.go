package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnalysisTypeAIThreat is the analysis type produced by the AI pipeline
const AnalysisTypeAIThreat = "ai_threat_analysis"

// DefaultTargetType is used when the caller supplies no classification tag
const DefaultTargetType = "custom_analysis"

// AIAnalysis represents a stored structured threat assessment. Analyses are
// immutable once stored; threat logs reference them by ID.
type AIAnalysis struct {
	ID              string   `json:"id" bson:"_id"`
	TargetType      string   `json:"target_type" bson:"target_type"`
	TargetID        string   `json:"target_id,omitempty" bson:"target_id,omitempty"`
	AnalysisType    string   `json:"analysis_type" bson:"analysis_type"`
	Summary         string   `json:"summary" bson:"summary"`
	Details         string   `json:"details" bson:"details"`
	Recommendations []string `json:"recommendations" bson:"recommendations"`
	Severity        Severity `json:"severity" bson:"severity"`
	Confidence      int      `json:"confidence" bson:"confidence"` // 0-100

	// Model records which completion model produced the result, when known
	Model string `json:"model,omitempty" bson:"model,omitempty"`

	MitreTechniques []string  `json:"mitre_techniques,omitempty" bson:"mitre_techniques,omitempty"`
	IsDemo          bool      `json:"is_demo,omitempty" bson:"is_demo,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// NewAIAnalysis creates a stored analysis record with generated ID and
// validation. Recommendations keep their caller-supplied priority order.
func NewAIAnalysis(targetType, analysisType, summary, details string, recommendations []string, severity Severity, confidence int) (*AIAnalysis, error) {
	if targetType == "" {
		targetType = DefaultTargetType
	}
	if analysisType == "" {
		return nil, fmt.Errorf("analysis type is required")
	}
	if summary == "" {
		return nil, fmt.Errorf("summary is required")
	}
	if !severity.IsValid() {
		return nil, fmt.Errorf("invalid severity: %s", severity)
	}
	if confidence < 0 || confidence > 100 {
		return nil, fmt.Errorf("confidence must be between 0 and 100")
	}
	if recommendations == nil {
		recommendations = []string{}
	}

	return &AIAnalysis{
		ID:              uuid.New().String(),
		TargetType:      targetType,
		AnalysisType:    analysisType,
		Summary:         summary,
		Details:         details,
		Recommendations: recommendations,
		Severity:        severity,
		Confidence:      confidence,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// DefaultAnalysisListLimit is the default truncation for analysis list queries
const DefaultAnalysisListLimit = 50

// AnalysisFilters defines filters for listing AI analyses
type AnalysisFilters struct {
	AnalysisType  string `json:"analysis_type"` // "" or "all" = any
	TargetType    string `json:"target_type"`   // "" or "all" = any
	MinConfidence *int   `json:"min_confidence"`
	LiveOnly      bool   `json:"live_only"` // exclude demo/seed records
	Limit         int    `json:"limit"`
}

// Matches reports whether the analysis satisfies every active predicate.
func (f *AnalysisFilters) Matches(a *AIAnalysis) bool {
	if f.LiveOnly && a.IsDemo {
		return false
	}
	if f.AnalysisType != "" && f.AnalysisType != FilterAll && a.AnalysisType != f.AnalysisType {
		return false
	}
	if f.TargetType != "" && f.TargetType != FilterAll && a.TargetType != f.TargetType {
		return false
	}
	if f.MinConfidence != nil && a.Confidence < *f.MinConfidence {
		return false
	}
	return true
}

// FilterAnalyses returns the subset of analyses satisfying the filter
// conjunction, ordered by descending creation time and truncated to the limit.
func FilterAnalyses(analyses []*AIAnalysis, f *AnalysisFilters) []*AIAnalysis {
	matched := make([]*AIAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if f == nil || f.Matches(a) {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	limit := DefaultAnalysisListLimit
	if f != nil && f.Limit > 0 {
		limit = f.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// HighConfidenceThreshold marks analyses confident enough to surface
// prominently in aggregate views
const HighConfidenceThreshold = 80

// AnalysisStats contains aggregated analysis metrics
type AnalysisStats struct {
	Total          int            `json:"total"`
	HighConfidence int            `json:"high_confidence"`
	BySeverity     map[string]int `json:"by_severity"`
	ByTargetType   map[string]int `json:"by_target_type"`
}

// ComputeAnalysisStats aggregates counts over the analysis collection,
// optionally excluding demo records.
func ComputeAnalysisStats(analyses []*AIAnalysis, liveOnly bool) *AnalysisStats {
	stats := &AnalysisStats{
		BySeverity:   make(map[string]int, len(AllSeverities)),
		ByTargetType: make(map[string]int),
	}
	for _, s := range AllSeverities {
		stats.BySeverity[string(s)] = 0
	}
	for _, a := range analyses {
		if liveOnly && a.IsDemo {
			continue
		}
		stats.Total++
		if a.Confidence > HighConfidenceThreshold {
			stats.HighConfidence++
		}
		stats.BySeverity[string(a.Severity)]++
		stats.ByTargetType[a.TargetType]++
	}
	return stats
}

// TitleForFeed returns a short human-readable title for activity feeds.
func (a *AIAnalysis) TitleForFeed() string {
	summary := strings.TrimSpace(a.Summary)
	if summary == "" {
		return fmt.Sprintf("AI Analysis: %s", a.AnalysisType)
	}
	return summary
}

// AnalysisStorage defines the interface for AI analysis persistence
type AnalysisStorage interface {
	CreateAnalysis(ctx context.Context, analysis *AIAnalysis) error
	GetAnalysis(ctx context.Context, id string) (*AIAnalysis, error)
	ListAnalyses(ctx context.Context, filters *AnalysisFilters) ([]*AIAnalysis, error)
	GetAllAnalyses(ctx context.Context) ([]*AIAnalysis, error)
	GetAnalysisStats(ctx context.Context, liveOnly bool) (*AnalysisStats, error)
}
