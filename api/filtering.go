package api

import (
	"net/http"
	"strconv"
	"time"

	"argus/core"
)

const maxListLimit = 1000

// parseLimit reads a bounded list limit from the query string, 0 meaning
// "use the default"
func parseLimit(r *http.Request) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxListLimit {
			return parsed
		}
	}
	return 0
}

func parseBoolPtr(r *http.Request, key string) *bool {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return &parsed
		}
	}
	return nil
}

func parseIntPtr(r *http.Request, key string) *int {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return &parsed
		}
	}
	return nil
}

func parseTimePtr(r *http.Request, key string) *time.Time {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}

func parseIOCFilters(r *http.Request) *core.IOCFilters {
	q := r.URL.Query()
	return &core.IOCFilters{
		Type:     q.Get("type"),
		Severity: q.Get("severity"),
		IsActive: parseBoolPtr(r, "is_active"),
		Search:   q.Get("search"),
		Limit:    parseLimit(r),
	}
}

func parseLogFilters(r *http.Request) *core.LogFilters {
	q := r.URL.Query()
	return &core.LogFilters{
		Source:          q.Get("source"),
		Level:           q.Get("level"),
		StartTime:       parseTimePtr(r, "start_time"),
		EndTime:         parseTimePtr(r, "end_time"),
		MinAnomalyScore: parseIntPtr(r, "min_anomaly_score"),
		Limit:           parseLimit(r),
	}
}

func parseAnalysisFilters(r *http.Request) *core.AnalysisFilters {
	q := r.URL.Query()
	liveOnly := false
	if v := parseBoolPtr(r, "live_only"); v != nil {
		liveOnly = *v
	}
	return &core.AnalysisFilters{
		AnalysisType:  q.Get("analysis_type"),
		TargetType:    q.Get("target_type"),
		MinConfidence: parseIntPtr(r, "min_confidence"),
		LiveOnly:      liveOnly,
		Limit:         parseLimit(r),
	}
}

func parseThreatLogFilters(r *http.Request) *core.ThreatLogFilters {
	return &core.ThreatLogFilters{
		Analyzed: parseBoolPtr(r, "analyzed"),
		Limit:    parseLimit(r),
	}
}

func parseIncidentFilters(r *http.Request) *core.IncidentFilters {
	return &core.IncidentFilters{
		Status: r.URL.Query().Get("status"),
		Limit:  parseLimit(r),
	}
}

func parseHuntFilters(r *http.Request) *core.HuntFilters {
	q := r.URL.Query()
	return &core.HuntFilters{
		Keyword:       q.Get("keyword"),
		Source:        q.Get("source"),
		StartTime:     parseTimePtr(r, "start_time"),
		EndTime:       parseTimePtr(r, "end_time"),
		MinSeverity:   q.Get("min_severity"),
		MinConfidence: parseIntPtr(r, "min_confidence"),
		MinAnomaly:    parseIntPtr(r, "min_anomaly"),
		Limit:         parseLimit(r),
	}
}
