package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultDashboardFeedLimit is the default truncation for the activity feed
const DefaultDashboardFeedLimit = 20

// feedPerKindTake caps how many recent records each kind contributes before
// the merged feed is sorted and truncated
const feedPerKindTake = 10

// DashboardTrends counts records created within the trailing 7 days
type DashboardTrends struct {
	Threats  int `json:"threats"`
	Logs     int `json:"logs"`
	Analyses int `json:"analyses"`
}

// DashboardMetrics is the headline summary for the dashboard view
type DashboardMetrics struct {
	ActiveThreats int             `json:"active_threats"`
	LogEvents     int             `json:"log_events"`
	AIAnalyses    int             `json:"ai_analyses"`
	RecentThreats int             `json:"recent_threats"`
	Trends        DashboardTrends `json:"trends"`
}

// ComputeDashboardMetrics aggregates the four collections into headline
// counts. Active threats are active critical IOCs, log and threat-log
// counts cover the trailing 24 hours, trends cover the trailing 7 days.
func ComputeDashboardMetrics(iocs []*IOC, logs []*SecurityLog, analyses []*AIAnalysis, threatLogs []*ThreatLog, now time.Time) *DashboardMetrics {
	last24h := now.Add(-24 * time.Hour)
	last7d := now.Add(-7 * 24 * time.Hour)

	metrics := &DashboardMetrics{AIAnalyses: len(analyses)}
	for _, ioc := range iocs {
		if ioc.IsActive && ioc.Severity == SeverityCritical {
			metrics.ActiveThreats++
		}
		if ioc.FirstSeen.After(last7d) {
			metrics.Trends.Threats++
		}
	}
	for _, log := range logs {
		if log.Timestamp.After(last24h) {
			metrics.LogEvents++
		}
		if log.Timestamp.After(last7d) {
			metrics.Trends.Logs++
		}
	}
	for _, a := range analyses {
		if a.CreatedAt.After(last7d) {
			metrics.Trends.Analyses++
		}
	}
	for _, tl := range threatLogs {
		if tl.Timestamp.After(last24h) {
			metrics.RecentThreats++
		}
	}
	return metrics
}

// FeedItem is one entry in the merged dashboard activity feed
type FeedItem struct {
	ID          string     `json:"id"`
	Kind        EntityKind `json:"kind"`
	Title       string     `json:"title"`
	Severity    Severity   `json:"severity"`
	Timestamp   time.Time  `json:"timestamp"`
	Description string     `json:"description"`
}

// BuildDashboardFeed merges the most recent IOCs, analyses and logs into a
// single activity feed. Each kind contributes at most ten records; the merged
// set is ordered by descending timestamp and truncated to the limit.
func BuildDashboardFeed(iocs []*IOC, analyses []*AIAnalysis, logs []*SecurityLog, limit int) []*FeedItem {
	recentIOCs := recentIOCsByCreation(iocs, feedPerKindTake)
	recentAnalyses := recentAnalysesByCreation(analyses, feedPerKindTake)
	recentLogs := recentLogsByTimestamp(logs, feedPerKindTake)

	feed := make([]*FeedItem, 0, len(recentIOCs)+len(recentAnalyses)+len(recentLogs))
	for _, ioc := range recentIOCs {
		description := ioc.Description
		if description == "" {
			description = fmt.Sprintf("%s indicator detected", ioc.Type)
		}
		feed = append(feed, &FeedItem{
			ID:          ioc.ID,
			Kind:        EntityKindIOC,
			Title:       fmt.Sprintf("%s: %s", strings.ToUpper(string(ioc.Type)), ioc.Value),
			Severity:    ioc.Severity,
			Timestamp:   ioc.LastSeen,
			Description: description,
		})
	}
	for _, a := range recentAnalyses {
		feed = append(feed, &FeedItem{
			ID:          a.ID,
			Kind:        EntityKindAnalysis,
			Title:       a.Summary,
			Severity:    a.Severity,
			Timestamp:   a.CreatedAt,
			Description: fmt.Sprintf("AI Analysis: %s", a.AnalysisType),
		})
	}
	for _, log := range recentLogs {
		feed = append(feed, &FeedItem{
			ID:          log.ID,
			Kind:        EntityKindLog,
			Title:       log.Message,
			Severity:    log.Level.Severity(),
			Timestamp:   log.Timestamp,
			Description: fmt.Sprintf("%s: %s", log.Source, log.Level),
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})
	if limit <= 0 {
		limit = DefaultDashboardFeedLimit
	}
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

func recentIOCsByCreation(iocs []*IOC, take int) []*IOC {
	sorted := make([]*IOC, len(iocs))
	copy(sorted, iocs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > take {
		sorted = sorted[:take]
	}
	return sorted
}

func recentAnalysesByCreation(analyses []*AIAnalysis, take int) []*AIAnalysis {
	sorted := make([]*AIAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > take {
		sorted = sorted[:take]
	}
	return sorted
}

func recentLogsByTimestamp(logs []*SecurityLog, take int) []*SecurityLog {
	sorted := make([]*SecurityLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > take {
		sorted = sorted[:take]
	}
	return sorted
}
