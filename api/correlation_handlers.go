package api

import (
	"net/http"

	"argus/core"
	"argus/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// upsertCorrelationRequest is the body for POST /api/correlations
type upsertCorrelationRequest struct {
	SourceKind      string `json:"source_kind" validate:"required"`
	SourceID        string `json:"source_id" validate:"required"`
	TargetKind      string `json:"target_kind" validate:"required"`
	TargetID        string `json:"target_id" validate:"required"`
	CorrelationType string `json:"correlation_type" validate:"required"`
	Confidence      int    `json:"confidence" validate:"min=0,max=100"`
	MatchedValue    string `json:"matched_value"`
	Reason          string `json:"reason"`
}

// upsertCorrelationResponse reports the resolved correlation ID and whether
// the request created it
type upsertCorrelationResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

func (a *API) upsertCorrelation(w http.ResponseWriter, r *http.Request) {
	if _, err := a.actor(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", err, a.logger)
		return
	}

	var req upsertCorrelationRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}
	validate := validator.New()
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid correlation request", err, a.logger)
		return
	}

	correlation, err := core.NewCorrelation(
		core.EntityKind(req.SourceKind), req.SourceID,
		core.EntityKind(req.TargetKind), req.TargetID,
		req.CorrelationType, req.Confidence,
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid correlation", err, a.logger)
		return
	}
	correlation.MatchedValue = req.MatchedValue
	correlation.Reason = req.Reason

	id, created, err := a.stores.Correlations.UpsertCorrelation(r.Context(), correlation)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upsert correlation", err, a.logger)
		return
	}

	status := http.StatusOK
	if created {
		metrics.CorrelationsDetected.WithLabelValues(req.CorrelationType).Inc()
		status = http.StatusCreated
	}
	a.respondJSON(w, upsertCorrelationResponse{ID: id, Created: created}, status)
}

func (a *API) getCorrelationsForEntity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := core.EntityKind(vars["kind"])
	if !kind.IsValid() {
		writeError(w, http.StatusBadRequest, "Invalid entity kind", nil, a.logger)
		return
	}

	correlations, err := a.stores.Correlations.GetCorrelationsForEntity(r.Context(), kind, vars["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get correlations", err, a.logger)
		return
	}
	a.respondJSON(w, correlations, http.StatusOK)
}

func (a *API) getCorrelationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.stores.Correlations.GetCorrelationStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get correlation stats", err, a.logger)
		return
	}
	a.respondJSON(w, stats, http.StatusOK)
}
