package api

import (
	"net/http"
)

func (a *API) getMitreTechniques(w http.ResponseWriter, r *http.Request) {
	tactic := r.URL.Query().Get("tactic")
	a.respondJSON(w, a.registry.Techniques(tactic), http.StatusOK)
}

func (a *API) getMitreTactics(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, a.registry.Tactics(), http.StatusOK)
}

func (a *API) getMitreCoverage(w http.ResponseWriter, r *http.Request) {
	iocs, err := a.stores.IOCs.GetAllIOCs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get coverage stats", err, a.logger)
		return
	}
	analyses, err := a.stores.Analyses.GetAllAnalyses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get coverage stats", err, a.logger)
		return
	}
	incidents, err := a.stores.Incidents.GetAllIncidents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get coverage stats", err, a.logger)
		return
	}

	a.respondJSON(w, a.registry.ComputeCoverage(iocs, analyses, incidents), http.StatusOK)
}

func (a *API) seedMitreTechniques(w http.ResponseWriter, r *http.Request) {
	created := a.registry.Seed()
	if created == 0 {
		a.respondJSON(w, map[string]string{"message": "MITRE techniques already seeded"}, http.StatusOK)
		return
	}
	a.respondJSON(w, map[string]int{"created": created}, http.StatusCreated)
}
