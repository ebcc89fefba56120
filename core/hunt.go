package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultHuntLimit is the default truncation for hunt searches
const DefaultHuntLimit = 100

// HuntFilters defines the cross-kind hunt search parameters. Each predicate
// is applied per-kind where it makes sense: anomaly score only constrains
// logs, confidence only constrains IOCs and analyses.
type HuntFilters struct {
	Keyword       string     `json:"keyword"`
	Source        string     `json:"source"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	MinSeverity   string     `json:"min_severity"`
	MinConfidence *int       `json:"min_confidence"`
	MinAnomaly    *int       `json:"min_anomaly"`
	Limit         int        `json:"limit"`
}

// HuntResult is the common shape every surviving record maps into
type HuntResult struct {
	ID           string     `json:"id"`
	Kind         EntityKind `json:"kind"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Severity     Severity   `json:"severity"`
	Timestamp    time.Time  `json:"timestamp"`
	Source       string     `json:"source"`
	Confidence   *int       `json:"confidence,omitempty"`
	AnomalyScore *int       `json:"anomaly_score,omitempty"`
}

func (f *HuntFilters) minSeverityOrdinal() int {
	if f.MinSeverity == "" || f.MinSeverity == FilterAll {
		return 0
	}
	return Severity(f.MinSeverity).Ordinal()
}

func (f *HuntFilters) matchesIOC(ioc *IOC) bool {
	if f.Keyword != "" &&
		!strings.Contains(ioc.Value, f.Keyword) &&
		!strings.Contains(ioc.Description, f.Keyword) {
		return false
	}
	if f.Source != "" && ioc.Source != f.Source {
		return false
	}
	if f.StartTime != nil && ioc.FirstSeen.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && ioc.LastSeen.After(*f.EndTime) {
		return false
	}
	if ioc.Severity.Ordinal() < f.minSeverityOrdinal() {
		return false
	}
	if f.MinConfidence != nil && ioc.Confidence < *f.MinConfidence {
		return false
	}
	return true
}

func (f *HuntFilters) matchesLog(log *SecurityLog) bool {
	if f.Keyword != "" && !strings.Contains(log.Message, f.Keyword) {
		return false
	}
	if f.Source != "" && log.Source != f.Source {
		return false
	}
	if f.StartTime != nil && log.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && log.Timestamp.After(*f.EndTime) {
		return false
	}
	if f.MinAnomaly != nil && log.AnomalyScore < *f.MinAnomaly {
		return false
	}
	return true
}

func (f *HuntFilters) matchesAnalysis(a *AIAnalysis) bool {
	if f.Keyword != "" &&
		!strings.Contains(a.Summary, f.Keyword) &&
		!strings.Contains(a.Details, f.Keyword) {
		return false
	}
	if a.Severity.Ordinal() < f.minSeverityOrdinal() {
		return false
	}
	if f.MinConfidence != nil && a.Confidence < *f.MinConfidence {
		return false
	}
	return true
}

// HuntSearch applies per-kind filtering to IOCs, logs and analyses, maps
// each surviving record into the common HuntResult shape, merges the three
// sets, orders the union by descending timestamp and truncates to the limit.
func HuntSearch(iocs []*IOC, logs []*SecurityLog, analyses []*AIAnalysis, f *HuntFilters) []*HuntResult {
	if f == nil {
		f = &HuntFilters{}
	}
	results := make([]*HuntResult, 0, len(iocs)+len(logs)+len(analyses))

	for _, ioc := range iocs {
		if !f.matchesIOC(ioc) {
			continue
		}
		confidence := ioc.Confidence
		results = append(results, &HuntResult{
			ID:          ioc.ID,
			Kind:        EntityKindIOC,
			Title:       fmt.Sprintf("%s: %s", strings.ToUpper(string(ioc.Type)), ioc.Value),
			Description: ioc.Description,
			Severity:    ioc.Severity,
			Timestamp:   ioc.LastSeen,
			Source:      ioc.Source,
			Confidence:  &confidence,
		})
	}

	for _, log := range logs {
		if !f.matchesLog(log) {
			continue
		}
		score := log.AnomalyScore
		results = append(results, &HuntResult{
			ID:           log.ID,
			Kind:         EntityKindLog,
			Title:        log.Message,
			Description:  fmt.Sprintf("%s - %s", log.Source, log.Level),
			Severity:     log.Level.Severity(),
			Timestamp:    log.Timestamp,
			Source:       log.Source,
			AnomalyScore: &score,
		})
	}

	for _, a := range analyses {
		if !f.matchesAnalysis(a) {
			continue
		}
		confidence := a.Confidence
		results = append(results, &HuntResult{
			ID:          a.ID,
			Kind:        EntityKindAnalysis,
			Title:       a.Summary,
			Description: a.Details,
			Severity:    a.Severity,
			Timestamp:   a.CreatedAt,
			Source:      a.TargetType,
			Confidence:  &confidence,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	limit := DefaultHuntLimit
	if f.Limit > 0 {
		limit = f.Limit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// HuntStats summarizes the searchable surface for the hunt view
type HuntStats struct {
	TotalIOCs              int `json:"total_iocs"`
	TotalLogs              int `json:"total_logs"`
	TotalAnalyses          int `json:"total_analyses"`
	HighSeverityIOCs       int `json:"high_severity_iocs"`
	AnomalousLogs          int `json:"anomalous_logs"`
	HighConfidenceAnalyses int `json:"high_confidence_analyses"`
}

// ComputeHuntStats aggregates counts over the three searchable collections.
func ComputeHuntStats(iocs []*IOC, logs []*SecurityLog, analyses []*AIAnalysis) *HuntStats {
	stats := &HuntStats{
		TotalIOCs:     len(iocs),
		TotalLogs:     len(logs),
		TotalAnalyses: len(analyses),
	}
	for _, ioc := range iocs {
		if ioc.Severity.AtLeast(SeverityHigh) {
			stats.HighSeverityIOCs++
		}
	}
	for _, log := range logs {
		if log.AnomalyScore > AnomalyThreshold {
			stats.AnomalousLogs++
		}
	}
	for _, a := range analyses {
		if a.Confidence > HighConfidenceThreshold {
			stats.HighConfidenceAnalyses++
		}
	}
	return stats
}
