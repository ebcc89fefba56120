package api

import (
	"errors"
	"net/http"

	"argus/core"
	"argus/storage"
)

// createThreatLogRequest is the body for POST /api/threat-logs
type createThreatLogRequest struct {
	RawData   string                  `json:"raw_data"`
	Source    string                  `json:"source"`
	EventType string                  `json:"event_type"`
	Metadata  *core.ThreatLogMetadata `json:"metadata"`
}

func (a *API) listThreatLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := a.stores.ThreatLogs.ListThreatLogs(r.Context(), parseThreatLogFilters(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list threat logs", err, a.logger)
		return
	}
	a.respondJSON(w, logs, http.StatusOK)
}

func (a *API) createThreatLog(w http.ResponseWriter, r *http.Request) {
	var req createThreatLogRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}

	log, err := core.NewThreatLog(req.RawData, req.Source, req.EventType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid threat log", err, a.logger)
		return
	}
	log.Metadata = req.Metadata

	if err := a.stores.ThreatLogs.CreateThreatLog(r.Context(), log); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create threat log", err, a.logger)
		return
	}
	a.respondJSON(w, log, http.StatusCreated)
}

// latestThreatAnalysis resolves the newest threat log to its linked analysis
func (a *API) latestThreatAnalysis(w http.ResponseWriter, r *http.Request) {
	latest, err := a.stores.ThreatLogs.GetLatestThreatLog(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrThreatLogNotFound) {
			writeError(w, http.StatusNotFound, "No threat logs found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get latest threat log", err, a.logger)
		return
	}
	if latest.AIAnalysisID == "" {
		writeError(w, http.StatusNotFound, "Latest threat log has not been analyzed", nil, a.logger)
		return
	}

	analysis, err := a.stores.Analyses.GetAnalysis(r.Context(), latest.AIAnalysisID)
	if err != nil {
		if errors.Is(err, storage.ErrAnalysisNotFound) {
			writeError(w, http.StatusNotFound, "Analysis not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get analysis", err, a.logger)
		return
	}
	a.respondJSON(w, analysis, http.StatusOK)
}
