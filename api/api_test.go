package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"argus/ai"
	"argus/config"
	"argus/core"
	"argus/mitre"
	"argus/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testJWTSecret     = "0123456789abcdef0123456789abcdef"
	testAnalyzeSecret = "hook-secret"
)

const testAIReply = `{"summary":"Active brute force campaign","details":"Cause: exposed SSH endpoint. Sustained login attempts from one source.","recommendations":["Block the source IP"],"severity":"high","confidence":90}`

type testEnv struct {
	api   *API
	store *storage.MemoryStore
	cfg   *config.Config
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.RateLimit.RequestsPerSecond = 1000
	cfg.Server.RateLimit.Burst = 1000
	cfg.Auth.JWTSecret = testJWTSecret

	hash, err := bcrypt.GenerateFromPassword([]byte(testAnalyzeSecret), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.Auth.AnalyzeSecretHash = string(hash)
	return cfg
}

// newTestEnv builds an API over the in-memory store. aiContent of "" leaves
// the analyzer unconfigured.
func newTestEnv(t *testing.T, cfg *config.Config, aiContent string) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = newTestConfig(t)
	}
	sugar := zap.NewNop().Sugar()

	clientOpts := ai.ClientOptions{}
	if aiContent != "" {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := ai.ChatResponse{Choices: []ai.ChatChoice{{Message: ai.ChatMessage{Role: "assistant", Content: aiContent}}}}
			_ = json.NewEncoder(w).Encode(resp)
		}))
		t.Cleanup(server.Close)
		clientOpts = ai.ClientOptions{APIKey: "test-key", BaseURL: server.URL}
	}
	analyzer, err := ai.NewAnalyzer(ai.NewClient(clientOpts), []string{"test-model"}, 8, sugar)
	require.NoError(t, err)

	registry := mitre.NewRegistry(sugar)
	registry.Seed()

	store := storage.NewMemoryStore()
	stores := Stores{
		IOCs:         store,
		Logs:         store,
		Analyses:     store,
		ThreatLogs:   store,
		Incidents:    store,
		Correlations: store,
		Feeds:        store,
		Imports:      store,
	}

	a := NewAPI(stores, registry, analyzer, cfg, sugar)
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	return &testEnv{api: a, store: store, cfg: cfg}
}

func signToken(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst))
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil, "")
	rr := env.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestCreateIOC_RequiresIdentity(t *testing.T) {
	env := newTestEnv(t, nil, "")
	body := map[string]interface{}{"type": "ip", "value": "10.0.0.1"}

	rr := env.do(t, "POST", "/api/iocs", "", body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateIOC_SystemFallbackDoesNotApply(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Auth.AllowSystemFallback = true
	env := newTestEnv(t, cfg, "")

	// Creation demands a real caller even with the fallback enabled
	rr := env.do(t, "POST", "/api/iocs", "", map[string]interface{}{"type": "ip", "value": "10.0.0.1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestIOCLifecycle(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/iocs", token, map[string]interface{}{
		"type":             "ip",
		"value":            "185.220.101.34",
		"severity":         "high",
		"source":           "firewall",
		"description":      "tor exit node",
		"confidence":       80,
		"mitre_techniques": []string{"T1110"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created core.IOC
	decodeBody(t, rr, &created)
	assert.Equal(t, "analyst-1", created.CreatedBy)
	assert.Equal(t, 80, created.Confidence)

	rr = env.do(t, "GET", "/api/iocs/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "GET", "/api/iocs?type=ip&severity=high", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []core.IOC
	decodeBody(t, rr, &listed)
	require.Len(t, listed, 1)

	rr = env.do(t, "PUT", "/api/iocs/"+created.ID, token, map[string]interface{}{"is_active": false})
	require.Equal(t, http.StatusOK, rr.Code)
	var updated core.IOC
	decodeBody(t, rr, &updated)
	assert.False(t, updated.IsActive)

	rr = env.do(t, "GET", "/api/iocs/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats core.IOCStats
	decodeBody(t, rr, &stats)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Active)
}

func TestCreateIOC_RejectsBadValue(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/iocs", token, map[string]interface{}{"type": "ip", "value": "not-an-ip"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "POST", "/api/iocs", token, map[string]interface{}{"value": "10.0.0.1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteIOC_CreatorOrAdminOnly(t *testing.T) {
	env := newTestEnv(t, nil, "")
	creator := signToken(t, "analyst-1", "analyst")
	other := signToken(t, "analyst-2", "analyst")
	admin := signToken(t, "admin-1", "admin")

	create := func() string {
		rr := env.do(t, "POST", "/api/iocs", creator, map[string]interface{}{"type": "domain", "value": "evil.example.com"})
		require.Equal(t, http.StatusCreated, rr.Code)
		var ioc core.IOC
		decodeBody(t, rr, &ioc)
		return ioc.ID
	}

	id := create()
	rr := env.do(t, "DELETE", "/api/iocs/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, "DELETE", "/api/iocs/"+id, creator, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	id = create()
	rr = env.do(t, "DELETE", "/api/iocs/"+id, admin, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "DELETE", "/api/iocs/"+id, admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInvalidToken(t *testing.T) {
	env := newTestEnv(t, nil, "")
	rr := env.do(t, "GET", "/api/iocs", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBulkImport(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/iocs/import", token, map[string]interface{}{
		"file_type": "csv",
		"iocs": []map[string]interface{}{
			{"type": "ip", "value": "10.0.0.1", "severity": "high", "confidence": 95},
			{"type": "ip", "value": "not-an-ip"},
			{"type": "domain", "value": "evil.example.com", "tags": []string{"phishing"}},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp bulkImportResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, 2, resp.SuccessCount)
	assert.Equal(t, 1, resp.FailureCount)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 2, resp.Errors[0].Row)
	assert.NotEmpty(t, resp.Errors[0].Error)
	assert.Contains(t, resp.BatchID, "import_")

	iocs, err := env.store.GetAllIOCs(context.Background())
	require.NoError(t, err)
	require.Len(t, iocs, 2)
	for _, ioc := range iocs {
		assert.Equal(t, resp.BatchID, ioc.ImportBatch)
		assert.Contains(t, ioc.Tags, "bulk_import")
		assert.Contains(t, ioc.Tags, resp.BatchID)
		switch ioc.Value {
		case "10.0.0.1":
			assert.Equal(t, 95, ioc.Confidence)
		case "evil.example.com":
			// Unset confidence defaults to 75
			assert.Equal(t, 75, ioc.Confidence)
			assert.Contains(t, ioc.Tags, "phishing")
			assert.Equal(t, "bulk_import", ioc.Source)
		}
	}

	rr = env.do(t, "GET", "/api/iocs/imports", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var records []core.ImportRecord
	decodeBody(t, rr, &records)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].TotalRecords)
	assert.Equal(t, 2, records[0].SuccessCount)
	assert.Equal(t, 1, records[0].FailureCount)
}

func TestBulkImport_EmptyBatchRejected(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/iocs/import", token, map[string]interface{}{
		"file_type": "csv",
		"iocs":      []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "POST", "/api/iocs/import", token, map[string]interface{}{
		"file_type": "xlsx",
		"iocs":      []map[string]interface{}{{"type": "ip", "value": "10.0.0.1"}},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogsEndpoints(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Auth.AllowSystemFallback = true
	env := newTestEnv(t, cfg, "")

	rr := env.do(t, "POST", "/api/logs/seed", "", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"created":4}`, rr.Body.String())

	rr = env.do(t, "POST", "/api/logs", "", map[string]interface{}{
		"source":        "web_server",
		"level":         "error",
		"message":       "SQL injection attempt",
		"anomaly_score": 92,
		"source_ip":     "203.0.113.45",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(t, "GET", "/api/logs?level=error", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var logs []core.SecurityLog
	decodeBody(t, rr, &logs)
	assert.Len(t, logs, 2)

	rr = env.do(t, "GET", "/api/logs/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats core.LogStats
	decodeBody(t, rr, &stats)
	assert.Equal(t, 5, stats.Total)
}

func TestAnalyzeWebhook(t *testing.T) {
	env := newTestEnv(t, nil, testAIReply)

	t.Run("Rejects wrong secret", func(t *testing.T) {
		rr := env.do(t, "POST", "/analyze", "wrong-secret", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Rejects missing header", func(t *testing.T) {
		rr := env.do(t, "POST", "/analyze", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("No threat logs", func(t *testing.T) {
		rr := env.do(t, "POST", "/analyze", testAnalyzeSecret, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Analyzes latest log", func(t *testing.T) {
		threatLog, err := core.NewThreatLog(`{"src_ip":"185.220.101.34","attempts":412}`, "sensor", "ssh_bruteforce")
		require.NoError(t, err)
		require.NoError(t, env.store.CreateThreatLog(context.Background(), threatLog))

		rr := env.do(t, "POST", "/analyze", testAnalyzeSecret, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp analyzeResponse
		decodeBody(t, rr, &resp)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "Active brute force campaign", resp.Summary)
		assert.Equal(t, "high", resp.Severity)
		assert.Equal(t, 90, resp.Confidence)

		updated, err := env.store.GetThreatLog(context.Background(), threatLog.ID)
		require.NoError(t, err)
		assert.True(t, updated.Analyzed)
		assert.Equal(t, resp.ID, updated.AIAnalysisID)
		assert.Equal(t, core.SeverityHigh, updated.Severity)

		analysis, err := env.store.GetAnalysis(context.Background(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, threatLog.ID, analysis.TargetID)
		assert.Equal(t, "threat_log", analysis.TargetType)
	})
}

func TestAnalyzeWebhook_NoSecretConfigured(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Auth.AnalyzeSecretHash = ""
	env := newTestEnv(t, cfg, testAIReply)

	rr := env.do(t, "POST", "/analyze", testAnalyzeSecret, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGenerateAnalysis(t *testing.T) {
	env := newTestEnv(t, nil, testAIReply)
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/analyses/generate", token, map[string]interface{}{
		"content":     "suspicious outbound traffic to 185.220.101.34",
		"target_type": "custom_analysis",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var analysis core.AIAnalysis
	decodeBody(t, rr, &analysis)
	assert.Equal(t, "Active brute force campaign", analysis.Summary)
	assert.Equal(t, "test-model", analysis.Model)

	rr = env.do(t, "GET", "/api/analyses/"+analysis.ID, "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGenerateAnalysis_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/analyses/generate", token, map[string]interface{}{"content": "data"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "AI analysis is not configured")
}

func TestIncidentWorkflow(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/incidents", token, map[string]interface{}{
		"title":    "Phishing wave",
		"severity": "high",
		"tags":     []string{"phishing"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var incident core.Incident
	decodeBody(t, rr, &incident)
	assert.Equal(t, core.IncidentStatusOpen, incident.Status)

	rr = env.do(t, "PUT", "/api/incidents/"+incident.ID+"/status", token, map[string]interface{}{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "PUT", "/api/incidents/"+incident.ID+"/status", token, map[string]interface{}{"status": "closed"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "POST", "/api/incidents/"+incident.ID+"/evidence", token, map[string]interface{}{
		"kind":   "ioc",
		"ref_id": "ioc-1",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "POST", "/api/incidents/"+incident.ID+"/evidence", token, map[string]interface{}{
		"kind":   "user",
		"ref_id": "u-1",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "GET", "/api/incidents/"+incident.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got core.Incident
	decodeBody(t, rr, &got)
	assert.Equal(t, core.IncidentStatusInProgress, got.Status)
	require.Len(t, got.Evidence, 1)

	rr = env.do(t, "GET", "/api/incidents?status=in_progress", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []core.Incident
	decodeBody(t, rr, &listed)
	assert.Len(t, listed, 1)
}

func TestCorrelationEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	body := map[string]interface{}{
		"source_kind":      "ioc",
		"source_id":        "ioc-1",
		"target_kind":      "log",
		"target_id":        "log-1",
		"correlation_type": "ip_match",
		"confidence":       85,
		"matched_value":    "185.220.101.34",
	}

	rr := env.do(t, "POST", "/api/correlations", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var first upsertCorrelationResponse
	decodeBody(t, rr, &first)
	assert.True(t, first.Created)

	// Same pair resolves to the existing correlation
	rr = env.do(t, "POST", "/api/correlations", token, body)
	require.Equal(t, http.StatusOK, rr.Code)
	var second upsertCorrelationResponse
	decodeBody(t, rr, &second)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	rr = env.do(t, "GET", "/api/correlations/ioc/ioc-1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var correlations []core.Correlation
	decodeBody(t, rr, &correlations)
	assert.Len(t, correlations, 1)

	rr = env.do(t, "GET", "/api/correlations/user/u-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "GET", "/api/correlations/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats core.CorrelationStats
	decodeBody(t, rr, &stats)
	assert.Equal(t, 1, stats.Total)
}

func TestFeedEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/feeds", token, map[string]interface{}{
		"name":          "Demo Feed",
		"url":           "https://feeds.example.com/indicators.json",
		"feed_type":     "json",
		"sync_interval": 60,
		"reputation":    80,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var feed core.ThreatFeed
	decodeBody(t, rr, &feed)
	assert.True(t, feed.Enabled)

	rr = env.do(t, "PUT", "/api/feeds/"+feed.ID+"/enabled", token, map[string]interface{}{"enabled": false})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "GET", "/api/feeds", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var feeds []core.ThreatFeed
	decodeBody(t, rr, &feeds)
	require.Len(t, feeds, 1)
	assert.False(t, feeds[0].Enabled)

	rr = env.do(t, "GET", "/api/feeds/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats core.FeedStats
	decodeBody(t, rr, &stats)
	assert.Equal(t, 1, stats.TotalFeeds)
	assert.Equal(t, 0, stats.EnabledFeeds)

	rr = env.do(t, "DELETE", "/api/feeds/"+feed.ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, "DELETE", "/api/feeds/"+feed.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHuntEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()

	ioc, err := core.NewIOC(core.IOCTypeIP, "185.220.101.34", core.SeverityCritical, "firewall", "analyst-1")
	require.NoError(t, err)
	ioc.Description = "tor exit node"
	require.NoError(t, env.store.CreateIOC(ctx, ioc))

	log, err := core.NewSecurityLog("ids", core.LogLevelCritical, "tor relay connection", 88)
	require.NoError(t, err)
	require.NoError(t, env.store.CreateLog(ctx, log))

	rr := env.do(t, "GET", "/api/hunt?keyword=tor&min_severity=high", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var results []core.HuntResult
	decodeBody(t, rr, &results)
	assert.Len(t, results, 2)

	rr = env.do(t, "GET", "/api/hunt/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats core.HuntStats
	decodeBody(t, rr, &stats)
	assert.Equal(t, 1, stats.TotalIOCs)
	assert.Equal(t, 1, stats.TotalLogs)
	assert.Equal(t, 1, stats.AnomalousLogs)
}

func TestDashboardEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()

	ioc, err := core.NewIOC(core.IOCTypeIP, "10.0.0.1", core.SeverityCritical, "firewall", "analyst-1")
	require.NoError(t, err)
	require.NoError(t, env.store.CreateIOC(ctx, ioc))
	for _, log := range core.SampleLogs() {
		require.NoError(t, env.store.CreateLog(ctx, log))
	}

	rr := env.do(t, "GET", "/api/dashboard/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var metrics core.DashboardMetrics
	decodeBody(t, rr, &metrics)
	assert.Equal(t, 1, metrics.ActiveThreats)
	assert.Equal(t, 4, metrics.LogEvents)

	rr = env.do(t, "GET", "/api/dashboard/feed?limit=3", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var feed []core.FeedItem
	decodeBody(t, rr, &feed)
	assert.Len(t, feed, 3)
}

func TestMitreEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()

	rr := env.do(t, "GET", "/api/mitre/techniques", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var techniques []mitre.Technique
	decodeBody(t, rr, &techniques)
	assert.Len(t, techniques, 6)

	rr = env.do(t, "GET", "/api/mitre/techniques?tactic=Initial+Access", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &techniques)
	assert.Len(t, techniques, 2)

	rr = env.do(t, "GET", "/api/mitre/tactics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var tactics []string
	decodeBody(t, rr, &tactics)
	assert.Len(t, tactics, 5)

	ioc, err := core.NewIOC(core.IOCTypeIP, "10.0.0.1", core.SeverityHigh, "firewall", "analyst-1")
	require.NoError(t, err)
	ioc.MitreTechniques = []string{"T1566", "T1110", "T1059"}
	require.NoError(t, env.store.CreateIOC(ctx, ioc))

	rr = env.do(t, "GET", "/api/mitre/coverage", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var coverage mitre.CoverageStats
	decodeBody(t, rr, &coverage)
	assert.Equal(t, 6, coverage.TotalTechniques)
	assert.Equal(t, 3, coverage.DetectedTechniques)
	assert.Equal(t, 50, coverage.CoveragePercent)

	// Registry already seeded
	rr = env.do(t, "POST", "/api/mitre/seed", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "already seeded")
}

func TestCORSPreflightAndHeaders(t *testing.T) {
	env := newTestEnv(t, nil, "")

	req := httptest.NewRequest("OPTIONS", "/api/iocs", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rr := httptest.NewRecorder()
	env.api.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestRateLimiting(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.RateLimit.RequestsPerSecond = 1
	cfg.Server.RateLimit.Burst = 2
	env := newTestEnv(t, cfg, "")

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rr := env.do(t, "GET", "/health", "", nil)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func TestUnknownJSONFieldRejected(t *testing.T) {
	env := newTestEnv(t, nil, "")
	token := signToken(t, "analyst-1", "analyst")

	rr := env.do(t, "POST", "/api/iocs", token, map[string]interface{}{
		"type":    "ip",
		"value":   "10.0.0.1",
		"unknown": true,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListThreatLogs(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Auth.AllowSystemFallback = true
	env := newTestEnv(t, cfg, "")

	for i := 0; i < 3; i++ {
		rr := env.do(t, "POST", "/api/threat-logs", "", map[string]interface{}{
			"raw_data":   fmt.Sprintf(`{"event":%d}`, i),
			"source":     "sensor",
			"event_type": "scan",
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := env.do(t, "GET", "/api/threat-logs?analyzed=false&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var logs []core.ThreatLog
	decodeBody(t, rr, &logs)
	assert.Len(t, logs, 2)
	for _, log := range logs {
		assert.False(t, log.Analyzed)
	}
}

func TestLatestThreatAnalysis(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()

	t.Run("No threat logs", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/threat-logs/latest-analysis", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	threatLog, err := core.NewThreatLog(`{"event":"scan"}`, "sensor", "port_scan")
	require.NoError(t, err)
	require.NoError(t, env.store.CreateThreatLog(ctx, threatLog))

	t.Run("Latest log unanalyzed", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/threat-logs/latest-analysis", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	analysis, err := core.NewAIAnalysis("threat_log", core.AnalysisTypeAIThreat,
		"Port scan from a single source", "Sequential connection attempts across 1024 ports.",
		[]string{"Block the scanning host"}, core.SeverityMedium, 72)
	require.NoError(t, err)
	require.NoError(t, env.store.CreateAnalysis(ctx, analysis))
	require.NoError(t, env.store.MarkAnalyzed(ctx, threatLog.ID, analysis.ID, analysis.Severity))

	t.Run("Resolves linked analysis", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/threat-logs/latest-analysis", "", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var got core.AIAnalysis
		decodeBody(t, rr, &got)
		assert.Equal(t, analysis.ID, got.ID)
		assert.Equal(t, "Port scan from a single source", got.Summary)
	})
}
