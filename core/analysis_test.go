package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAIAnalysis(t *testing.T) {
	a, err := NewAIAnalysis("threat_log", AnalysisTypeAIThreat, "summary", "details",
		[]string{"isolate the host"}, SeverityHigh, 80)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "threat_log", a.TargetType)
	assert.Equal(t, []string{"isolate the host"}, a.Recommendations)
}

func TestNewAIAnalysis_Defaults(t *testing.T) {
	a, err := NewAIAnalysis("", AnalysisTypeAIThreat, "summary", "details", nil, SeverityLow, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetType, a.TargetType)
	assert.NotNil(t, a.Recommendations)
	assert.Empty(t, a.Recommendations)
}

func TestNewAIAnalysis_Invalid(t *testing.T) {
	testCases := []struct {
		name         string
		analysisType string
		summary      string
		severity     Severity
		confidence   int
	}{
		{"Missing analysis type", "", "summary", SeverityLow, 50},
		{"Missing summary", AnalysisTypeAIThreat, "", SeverityLow, 50},
		{"Bad severity", AnalysisTypeAIThreat, "summary", Severity("extreme"), 50},
		{"Confidence out of range", AnalysisTypeAIThreat, "summary", SeverityLow, 101},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAIAnalysis("x", tc.analysisType, tc.summary, "details", nil, tc.severity, tc.confidence)
			assert.Error(t, err)
		})
	}
}

func TestFilterAnalyses(t *testing.T) {
	live, err := NewAIAnalysis("threat_log", AnalysisTypeAIThreat, "live", "d", nil, SeverityHigh, 90)
	require.NoError(t, err)
	demo, err := NewAIAnalysis("custom_analysis", AnalysisTypeAIThreat, "demo", "d", nil, SeverityLow, 40)
	require.NoError(t, err)
	demo.IsDemo = true

	analyses := []*AIAnalysis{live, demo}

	out := FilterAnalyses(analyses, &AnalysisFilters{LiveOnly: true})
	require.Len(t, out, 1)
	assert.Equal(t, live.ID, out[0].ID)

	out = FilterAnalyses(analyses, &AnalysisFilters{TargetType: "custom_analysis"})
	require.Len(t, out, 1)
	assert.Equal(t, demo.ID, out[0].ID)

	min := 80
	out = FilterAnalyses(analyses, &AnalysisFilters{MinConfidence: &min})
	assert.Len(t, out, 1)
}

func TestComputeAnalysisStats(t *testing.T) {
	confident, err := NewAIAnalysis("threat_log", AnalysisTypeAIThreat, "a", "d", nil, SeverityCritical, 95)
	require.NoError(t, err)
	tentative, err := NewAIAnalysis("threat_log", AnalysisTypeAIThreat, "b", "d", nil, SeverityLow, 30)
	require.NoError(t, err)
	demo, err := NewAIAnalysis("custom_analysis", AnalysisTypeAIThreat, "c", "d", nil, SeverityLow, 90)
	require.NoError(t, err)
	demo.IsDemo = true

	all := ComputeAnalysisStats([]*AIAnalysis{confident, tentative, demo}, false)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 2, all.HighConfidence)
	assert.Equal(t, 2, all.ByTargetType["threat_log"])

	liveOnly := ComputeAnalysisStats([]*AIAnalysis{confident, tentative, demo}, true)
	assert.Equal(t, 2, liveOnly.Total)
	assert.Equal(t, 1, liveOnly.HighConfidence)
}

func TestFilterThreatLogs(t *testing.T) {
	pending, err := NewThreatLog(`{"a":1}`, "sensor", "scan")
	require.NoError(t, err)
	done, err := NewThreatLog(`{"b":2}`, "sensor", "scan")
	require.NoError(t, err)
	done.Analyzed = true

	analyzed := false
	out := FilterThreatLogs([]*ThreatLog{pending, done}, &ThreatLogFilters{Analyzed: &analyzed})
	require.Len(t, out, 1)
	assert.Equal(t, pending.ID, out[0].ID)

	out = FilterThreatLogs([]*ThreatLog{pending, done}, nil)
	assert.Len(t, out, 2)
}

func TestNewImportRecord(t *testing.T) {
	rec, err := NewImportRecord("analyst-1", ImportFileTypeCSV)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Contains(t, rec.BatchID, "import_")
	assert.Contains(t, rec.BatchID, "analyst-1")

	_, err = NewImportRecord("", ImportFileTypeCSV)
	assert.Error(t, err)
	_, err = NewImportRecord("analyst-1", ImportFileType("xlsx"))
	assert.Error(t, err)
}
