package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDashboardMetrics(t *testing.T) {
	now := time.Now().UTC()

	activeCritical := mustIOC(t, IOCTypeIP, "10.0.0.1", SeverityCritical, "firewall")
	inactiveCritical := mustIOC(t, IOCTypeIP, "10.0.0.2", SeverityCritical, "firewall")
	inactiveCritical.IsActive = false
	activeHigh := mustIOC(t, IOCTypeDomain, "evil.example.com", SeverityHigh, "osint")
	oldIOC := mustIOC(t, IOCTypeIP, "10.0.0.3", SeverityLow, "firewall")
	oldIOC.FirstSeen = now.Add(-10 * 24 * time.Hour)

	recentLog := mustLog(t, "ids", LogLevelWarn, "recent", 10, 1*time.Hour)
	weekOldLog := mustLog(t, "ids", LogLevelWarn, "this week", 10, 3*24*time.Hour)
	ancientLog := mustLog(t, "ids", LogLevelWarn, "ancient", 10, 30*24*time.Hour)

	analysis, err := NewAIAnalysis("", AnalysisTypeAIThreat, "summary", "details", nil, SeverityLow, 50)
	require.NoError(t, err)
	oldAnalysis, err := NewAIAnalysis("", AnalysisTypeAIThreat, "old", "details", nil, SeverityLow, 50)
	require.NoError(t, err)
	oldAnalysis.CreatedAt = now.Add(-8 * 24 * time.Hour)

	recentThreat, err := NewThreatLog(`{"x":1}`, "sensor", "scan")
	require.NoError(t, err)
	oldThreat, err := NewThreatLog(`{"x":2}`, "sensor", "scan")
	require.NoError(t, err)
	oldThreat.Timestamp = now.Add(-48 * time.Hour)

	metrics := ComputeDashboardMetrics(
		[]*IOC{activeCritical, inactiveCritical, activeHigh, oldIOC},
		[]*SecurityLog{recentLog, weekOldLog, ancientLog},
		[]*AIAnalysis{analysis, oldAnalysis},
		[]*ThreatLog{recentThreat, oldThreat},
		now,
	)

	// Only active critical IOCs count as active threats
	assert.Equal(t, 1, metrics.ActiveThreats)
	assert.Equal(t, 1, metrics.LogEvents)
	assert.Equal(t, 2, metrics.AIAnalyses)
	assert.Equal(t, 1, metrics.RecentThreats)
	assert.Equal(t, 3, metrics.Trends.Threats)
	assert.Equal(t, 2, metrics.Trends.Logs)
	assert.Equal(t, 1, metrics.Trends.Analyses)
}

func TestComputeDashboardMetrics_Empty(t *testing.T) {
	metrics := ComputeDashboardMetrics(nil, nil, nil, nil, time.Now().UTC())
	assert.Equal(t, 0, metrics.ActiveThreats)
	assert.Equal(t, 0, metrics.LogEvents)
	assert.Equal(t, 0, metrics.AIAnalyses)
	assert.Equal(t, 0, metrics.RecentThreats)
}

func TestBuildDashboardFeed(t *testing.T) {
	ioc := mustIOC(t, IOCTypeDomain, "evil.example.com", SeverityHigh, "osint")
	bare := mustIOC(t, IOCTypeIP, "10.0.0.1", SeverityLow, "firewall")
	ioc.Description = "phishing landing page"

	log := mustLog(t, "ids", LogLevelError, "signature matched", 60, 1*time.Hour)

	analysis, err := NewAIAnalysis("", AnalysisTypeAIThreat, "campaign assessment", "details", nil, SeverityMedium, 70)
	require.NoError(t, err)

	feed := BuildDashboardFeed([]*IOC{ioc, bare}, []*AIAnalysis{analysis}, []*SecurityLog{log}, 0)
	require.Len(t, feed, 4)

	byID := map[string]*FeedItem{}
	for _, item := range feed {
		byID[item.ID] = item
	}

	assert.Equal(t, "DOMAIN: evil.example.com", byID[ioc.ID].Title)
	assert.Equal(t, "phishing landing page", byID[ioc.ID].Description)
	assert.Equal(t, "ip indicator detected", byID[bare.ID].Description)
	assert.Equal(t, "AI Analysis: ai_threat_analysis", byID[analysis.ID].Description)
	assert.Equal(t, SeverityHigh, byID[log.ID].Severity)
	assert.Equal(t, "ids: error", byID[log.ID].Description)

	// Newest first
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].Timestamp.After(feed[i-1].Timestamp))
	}
}

func TestBuildDashboardFeed_PerKindCap(t *testing.T) {
	now := time.Now().UTC()
	var logs []*SecurityLog
	for i := 0; i < 30; i++ {
		log := mustLog(t, "ids", LogLevelInfo, fmt.Sprintf("event %d", i), 0, time.Duration(i)*time.Minute)
		log.Timestamp = now.Add(-time.Duration(i) * time.Minute)
		logs = append(logs, log)
	}

	feed := BuildDashboardFeed(nil, nil, logs, 50)
	// Each kind contributes at most ten records
	assert.Len(t, feed, 10)
	assert.Equal(t, "event 0", feed[0].Title)
}

func TestBuildDashboardFeed_Limit(t *testing.T) {
	var logs []*SecurityLog
	for i := 0; i < 8; i++ {
		logs = append(logs, mustLog(t, "ids", LogLevelInfo, fmt.Sprintf("event %d", i), 0, time.Duration(i)*time.Hour))
	}
	feed := BuildDashboardFeed(nil, nil, logs, 3)
	assert.Len(t, feed, 3)
}
