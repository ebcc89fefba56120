package api

import (
	"errors"
	"net/http"
	"strings"

	"argus/metrics"
	"argus/storage"
	"golang.org/x/crypto/bcrypt"
)

// analyzeResponse is the webhook reply body
type analyzeResponse struct {
	ID              string   `json:"id"`
	Summary         string   `json:"summary"`
	Details         string   `json:"details"`
	Recommendations []string `json:"recommendations"`
	Severity        string   `json:"severity"`
	Confidence      int      `json:"confidence"`
}

// analyzeWebhook is the shared-secret ingress: it fetches the newest threat
// log, runs the AI pipeline over its raw data, persists the analysis and
// links it back to the log.
func (a *API) analyzeWebhook(w http.ResponseWriter, r *http.Request) {
	if !a.checkAnalyzeSecret(r) {
		metrics.AnalyzeRequests.WithLabelValues("unauthorized").Inc()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	latest, err := a.stores.ThreatLogs.GetLatestThreatLog(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrThreatLogNotFound) {
			metrics.AnalyzeRequests.WithLabelValues("no_logs").Inc()
			http.Error(w, "No threat logs found", http.StatusNotFound)
			return
		}
		metrics.AnalyzeRequests.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Internal server error", err, a.logger)
		return
	}

	result, err := a.analyzer.Analyze(r.Context(), latest.RawData, "threat_log")
	if err != nil {
		metrics.AnalyzeRequests.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Internal server error", err, a.logger)
		return
	}

	analysis, err := a.saveResult(r, result, latest.ID)
	if err != nil {
		metrics.AnalyzeRequests.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Internal server error", err, a.logger)
		return
	}

	if err := a.stores.ThreatLogs.MarkAnalyzed(r.Context(), latest.ID, analysis.ID, analysis.Severity); err != nil {
		metrics.AnalyzeRequests.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Internal server error", err, a.logger)
		return
	}

	metrics.AnalyzeRequests.WithLabelValues("ok").Inc()
	a.respondJSON(w, analyzeResponse{
		ID:              analysis.ID,
		Summary:         analysis.Summary,
		Details:         analysis.Details,
		Recommendations: analysis.Recommendations,
		Severity:        string(analysis.Severity),
		Confidence:      analysis.Confidence,
	}, http.StatusOK)
}

// checkAnalyzeSecret verifies the webhook bearer secret. A deployment
// without a configured secret rejects every request.
func (a *API) checkAnalyzeSecret(r *http.Request) bool {
	if a.config.Auth.AnalyzeSecretHash == "" {
		return false
	}
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	presented := strings.TrimPrefix(authHeader, "Bearer ")
	return bcrypt.CompareHashAndPassword([]byte(a.config.Auth.AnalyzeSecretHash), []byte(presented)) == nil
}
