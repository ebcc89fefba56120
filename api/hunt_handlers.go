package api

import (
	"net/http"

	"argus/core"
)

// huntSources loads the three searchable collections
func (a *API) huntSources(r *http.Request) ([]*core.IOC, []*core.SecurityLog, []*core.AIAnalysis, error) {
	iocs, err := a.stores.IOCs.GetAllIOCs(r.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	logs, err := a.stores.Logs.GetAllLogs(r.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	analyses, err := a.stores.Analyses.GetAllAnalyses(r.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	return iocs, logs, analyses, nil
}

func (a *API) huntSearch(w http.ResponseWriter, r *http.Request) {
	iocs, logs, analyses, err := a.huntSources(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to run hunt search", err, a.logger)
		return
	}
	results := core.HuntSearch(iocs, logs, analyses, parseHuntFilters(r))
	a.respondJSON(w, results, http.StatusOK)
}

func (a *API) getHuntStats(w http.ResponseWriter, r *http.Request) {
	iocs, logs, analyses, err := a.huntSources(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get hunt stats", err, a.logger)
		return
	}
	a.respondJSON(w, core.ComputeHuntStats(iocs, logs, analyses), http.StatusOK)
}
