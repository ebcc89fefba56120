package api

import (
	"net/http"
	"time"

	"argus/core"
)

func (a *API) getDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	iocs, err := a.stores.IOCs.GetAllIOCs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get dashboard metrics", err, a.logger)
		return
	}
	logs, err := a.stores.Logs.GetAllLogs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get dashboard metrics", err, a.logger)
		return
	}
	analyses, err := a.stores.Analyses.GetAllAnalyses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get dashboard metrics", err, a.logger)
		return
	}
	threatLogs, err := a.stores.ThreatLogs.GetAllThreatLogs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get dashboard metrics", err, a.logger)
		return
	}

	metrics := core.ComputeDashboardMetrics(iocs, logs, analyses, threatLogs, time.Now().UTC())
	a.respondJSON(w, metrics, http.StatusOK)
}

func (a *API) getDashboardFeed(w http.ResponseWriter, r *http.Request) {
	iocs, err := a.stores.IOCs.GetAllIOCs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get dashboard feed", err, a.logger)
		return
	}
	analyses, err := a.stores.Analyses.GetAllAnalyses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get dashboard feed", err, a.logger)
		return
	}
	logs, err := a.stores.Logs.GetAllLogs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get dashboard feed", err, a.logger)
		return
	}

	feed := core.BuildDashboardFeed(iocs, analyses, logs, parseLimit(r))
	a.respondJSON(w, feed, http.StatusOK)
}
