package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// LogLevel represents the severity level of a security log entry
type LogLevel string

const (
	LogLevelInfo     LogLevel = "info"
	LogLevelWarn     LogLevel = "warn"
	LogLevelError    LogLevel = "error"
	LogLevelCritical LogLevel = "critical"
)

// AllLogLevels returns all valid log levels for validation
var AllLogLevels = []LogLevel{
	LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelCritical,
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	for _, valid := range AllLogLevels {
		if l == valid {
			return true
		}
	}
	return false
}

// Severity maps a log level onto the shared severity scale for cross-kind
// views: critical stays critical, error counts as high, everything else as
// medium.
func (l LogLevel) Severity() Severity {
	switch l {
	case LogLevelCritical:
		return SeverityCritical
	case LogLevelError:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// AnomalyThreshold is the anomaly score above which a log counts as anomalous
const AnomalyThreshold = 70

// LogMetadata carries optional request context captured with a log entry
type LogMetadata struct {
	UserAgent  string `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	Endpoint   string `json:"endpoint,omitempty" bson:"endpoint,omitempty"`
	Method     string `json:"method,omitempty" bson:"method,omitempty"`
	StatusCode int    `json:"status_code,omitempty" bson:"status_code,omitempty"`
}

// SecurityLog represents a single security log event. Logs are immutable
// once stored.
type SecurityLog struct {
	ID           string       `json:"id" bson:"_id"`
	Source       string       `json:"source" bson:"source"`
	Level        LogLevel     `json:"level" bson:"level"`
	Message      string       `json:"message" bson:"message"`
	Timestamp    time.Time    `json:"timestamp" bson:"timestamp"`
	SourceIP     string       `json:"source_ip,omitempty" bson:"source_ip,omitempty"`
	Metadata     *LogMetadata `json:"metadata,omitempty" bson:"metadata,omitempty"`
	AnomalyScore int          `json:"anomaly_score" bson:"anomaly_score"` // 0-100
	IsDemo       bool         `json:"is_demo,omitempty" bson:"is_demo,omitempty"`
}

// NewSecurityLog creates a new log entry with generated ID and validation
func NewSecurityLog(source string, level LogLevel, message string, anomalyScore int) (*SecurityLog, error) {
	if source == "" {
		return nil, fmt.Errorf("log source is required")
	}
	if !level.IsValid() {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	if message == "" {
		return nil, fmt.Errorf("log message is required")
	}
	if anomalyScore < 0 || anomalyScore > 100 {
		return nil, fmt.Errorf("anomaly score must be between 0 and 100")
	}

	return &SecurityLog{
		ID:           uuid.New().String(),
		Source:       source,
		Level:        level,
		Message:      message,
		Timestamp:    time.Now().UTC(),
		AnomalyScore: anomalyScore,
	}, nil
}

// DefaultLogListLimit is the default truncation for log list queries
const DefaultLogListLimit = 100

// LogFilters defines filters for listing security logs
type LogFilters struct {
	Source          string     `json:"source"` // "" or "all" = any
	Level           string     `json:"level"`  // "" or "all" = any
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	MinAnomalyScore *int       `json:"min_anomaly_score"`
	Limit           int        `json:"limit"`
}

// Matches reports whether the log satisfies every active predicate.
func (f *LogFilters) Matches(log *SecurityLog) bool {
	if f.Source != "" && f.Source != FilterAll && log.Source != f.Source {
		return false
	}
	if f.Level != "" && f.Level != FilterAll && string(log.Level) != f.Level {
		return false
	}
	if f.StartTime != nil && log.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && log.Timestamp.After(*f.EndTime) {
		return false
	}
	if f.MinAnomalyScore != nil && log.AnomalyScore < *f.MinAnomalyScore {
		return false
	}
	return true
}

// FilterLogs returns the subset of logs satisfying the filter conjunction,
// ordered by descending timestamp and truncated to the limit.
func FilterLogs(logs []*SecurityLog, f *LogFilters) []*SecurityLog {
	matched := make([]*SecurityLog, 0, len(logs))
	for _, log := range logs {
		if f == nil || f.Matches(log) {
			matched = append(matched, log)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	limit := DefaultLogListLimit
	if f != nil && f.Limit > 0 {
		limit = f.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// LogStats contains aggregated log metrics
type LogStats struct {
	Total     int            `json:"total"`
	Last24h   int            `json:"last_24h"`
	Anomalies int            `json:"anomalies"`
	ByLevel   map[string]int `json:"by_level"`
	BySource  map[string]int `json:"by_source"`
}

// ComputeLogStats aggregates counts over the full log collection.
func ComputeLogStats(logs []*SecurityLog, now time.Time) *LogStats {
	stats := &LogStats{
		ByLevel:  make(map[string]int, len(AllLogLevels)),
		BySource: make(map[string]int),
	}
	for _, l := range AllLogLevels {
		stats.ByLevel[string(l)] = 0
	}
	cutoff := now.Add(-24 * time.Hour)
	for _, log := range logs {
		stats.Total++
		if log.Timestamp.After(cutoff) {
			stats.Last24h++
		}
		if log.AnomalyScore > AnomalyThreshold {
			stats.Anomalies++
		}
		stats.ByLevel[string(log.Level)]++
		stats.BySource[log.Source]++
	}
	return stats
}

// SampleLogs returns a fixed set of demo log entries for seeding empty
// deployments. Messages mirror typical SOC noise so dashboards have content.
func SampleLogs() []*SecurityLog {
	now := time.Now().UTC()
	samples := []struct {
		source  string
		level   LogLevel
		message string
		ip      string
		score   int
	}{
		{"firewall", LogLevelWarn, "Suspicious connection attempt from 192.168.1.100", "192.168.1.100", 75},
		{"web_server", LogLevelError, "SQL injection attempt detected in login form", "203.0.113.45", 95},
		{"ids", LogLevelCritical, "Malware signature detected in network traffic", "198.51.100.23", 98},
		{"auth_system", LogLevelInfo, "User login successful", "10.0.0.15", 10},
	}

	logs := make([]*SecurityLog, 0, len(samples))
	for i, s := range samples {
		logs = append(logs, &SecurityLog{
			ID:           uuid.New().String(),
			Source:       s.source,
			Level:        s.level,
			Message:      s.message,
			Timestamp:    now.Add(-time.Duration(i+1) * time.Hour),
			SourceIP:     s.ip,
			AnomalyScore: s.score,
			IsDemo:       true,
		})
	}
	return logs
}

// LogStorage defines the interface for security log persistence
type LogStorage interface {
	CreateLog(ctx context.Context, log *SecurityLog) error
	ListLogs(ctx context.Context, filters *LogFilters) ([]*SecurityLog, error)
	GetAllLogs(ctx context.Context) ([]*SecurityLog, error)
	GetLogStats(ctx context.Context) (*LogStats, error)
}
