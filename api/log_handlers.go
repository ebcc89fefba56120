package api

import (
	"net/http"

	"argus/core"
)

// createLogRequest is the body for POST /api/logs
type createLogRequest struct {
	Source       string            `json:"source"`
	Level        string            `json:"level"`
	Message      string            `json:"message"`
	SourceIP     string            `json:"source_ip"`
	AnomalyScore int               `json:"anomaly_score"`
	Metadata     *core.LogMetadata `json:"metadata"`
}

func (a *API) listLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := a.stores.Logs.ListLogs(r.Context(), parseLogFilters(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list logs", err, a.logger)
		return
	}
	a.respondJSON(w, logs, http.StatusOK)
}

func (a *API) getLogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.stores.Logs.GetLogStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get log stats", err, a.logger)
		return
	}
	a.respondJSON(w, stats, http.StatusOK)
}

func (a *API) createLog(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}

	log, err := core.NewSecurityLog(req.Source, core.LogLevel(req.Level), req.Message, req.AnomalyScore)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid log entry", err, a.logger)
		return
	}
	log.SourceIP = req.SourceIP
	log.Metadata = req.Metadata

	if err := a.stores.Logs.CreateLog(r.Context(), log); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create log", err, a.logger)
		return
	}
	a.respondJSON(w, log, http.StatusCreated)
}

// seedSampleLogs inserts the built-in demo log entries
func (a *API) seedSampleLogs(w http.ResponseWriter, r *http.Request) {
	samples := core.SampleLogs()
	for _, log := range samples {
		if err := a.stores.Logs.CreateLog(r.Context(), log); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed sample logs", err, a.logger)
			return
		}
	}
	a.respondJSON(w, map[string]int{"created": len(samples)}, http.StatusCreated)
}
