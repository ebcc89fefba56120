package api

import (
	"errors"
	"net/http"

	"argus/ai"
	"argus/core"
	"argus/storage"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// generateAnalysisRequest is the body for POST /api/analyses/generate
type generateAnalysisRequest struct {
	Content    string `json:"content" validate:"required"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
}

func (a *API) listAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := a.stores.Analyses.ListAnalyses(r.Context(), parseAnalysisFilters(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list analyses", err, a.logger)
		return
	}
	a.respondJSON(w, analyses, http.StatusOK)
}

func (a *API) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	analysis, err := a.stores.Analyses.GetAnalysis(r.Context(), id)
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

func (a *API) getAnalysisStats(w http.ResponseWriter, r *http.Request) {
	liveOnly := false
	if v := parseBoolPtr(r, "live_only"); v != nil {
		liveOnly = *v
	}
	stats, err := a.stores.Analyses.GetAnalysisStats(r.Context(), liveOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get analysis stats", err, a.logger)
		return
	}
	a.respondJSON(w, stats, http.StatusOK)
}

// generateAnalysis runs the AI pipeline over caller-supplied content and
// persists the result
func (a *API) generateAnalysis(w http.ResponseWriter, r *http.Request) {
	if _, err := a.actor(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", err, a.logger)
		return
	}

	var req generateAnalysisRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}
	validate := validator.New()
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid analysis request", err, a.logger)
		return
	}

	result, err := a.analyzer.Analyze(r.Context(), req.Content, req.TargetType)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "AI analysis is not configured", err, a.logger)
			return
		}
		writeError(w, http.StatusBadGateway, "AI analysis failed", err, a.logger)
		return
	}

	analysis, err := a.saveResult(r, result, req.TargetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save analysis", err, a.logger)
		return
	}
	a.respondJSON(w, analysis, http.StatusCreated)
}

// saveResult persists a pipeline result as an analysis record
func (a *API) saveResult(r *http.Request, result *ai.Result, targetID string) (*core.AIAnalysis, error) {
	analysis, err := core.NewAIAnalysis(
		result.TargetType,
		result.AnalysisType,
		result.Summary,
		result.Details,
		result.Recommendations,
		core.Severity(result.Severity),
		result.Confidence,
	)
	if err != nil {
		return nil, err
	}
	analysis.TargetID = targetID
	analysis.Model = result.Model

	if err := a.stores.Analyses.CreateAnalysis(r.Context(), analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}
