package api

import (
	"errors"
	"net/http"

	"argus/core"
	"argus/storage"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// createIncidentRequest is the body for POST /api/incidents
type createIncidentRequest struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description"`
	Severity        string   `json:"severity" validate:"required"`
	Assignee        string   `json:"assignee"`
	Tags            []string `json:"tags"`
	MitreTechniques []string `json:"mitre_techniques"`
}

// updateIncidentStatusRequest is the body for PUT /api/incidents/{id}/status
type updateIncidentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// addEvidenceRequest is the body for POST /api/incidents/{id}/evidence
type addEvidenceRequest struct {
	Kind  string `json:"kind" validate:"required"`
	RefID string `json:"ref_id" validate:"required"`
}

func (a *API) listIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := a.stores.Incidents.ListIncidents(r.Context(), parseIncidentFilters(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list incidents", err, a.logger)
		return
	}
	a.respondJSON(w, incidents, http.StatusOK)
}

func (a *API) getIncident(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	incident, err := a.stores.Incidents.GetIncident(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrIncidentNotFound) {
			writeError(w, http.StatusNotFound, "Incident not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get incident", err, a.logger)
		return
	}
	a.respondJSON(w, incident, http.StatusOK)
}

func (a *API) createIncident(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", errAuthRequired, a.logger)
		return
	}

	var req createIncidentRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}
	validate := validator.New()
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid incident request", err, a.logger)
		return
	}

	incident, err := core.NewIncident(req.Title, core.Severity(req.Severity), identity.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid incident", err, a.logger)
		return
	}
	incident.Description = req.Description
	incident.Assignee = req.Assignee
	if req.Tags != nil {
		incident.Tags = req.Tags
	}
	incident.MitreTechniques = req.MitreTechniques

	if err := a.stores.Incidents.CreateIncident(r.Context(), incident); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create incident", err, a.logger)
		return
	}
	a.respondJSON(w, incident, http.StatusCreated)
}

func (a *API) updateIncidentStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", err, a.logger)
		return
	}
	id := mux.Vars(r)["id"]

	var req updateIncidentStatusRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}
	status := core.IncidentStatus(req.Status)
	if !status.IsValid() {
		writeError(w, http.StatusBadRequest, "Invalid incident status", nil, a.logger)
		return
	}

	if err := a.stores.Incidents.UpdateIncidentStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, storage.ErrIncidentNotFound) {
			writeError(w, http.StatusNotFound, "Incident not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update incident status", err, a.logger)
		return
	}

	a.logger.Infow("Incident status updated", "id", id, "status", status, "actor", actor.ID)
	a.respondJSON(w, map[string]string{"id": id, "status": string(status)}, http.StatusOK)
}

func (a *API) addIncidentEvidence(w http.ResponseWriter, r *http.Request) {
	if _, err := a.actor(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", err, a.logger)
		return
	}
	id := mux.Vars(r)["id"]

	var req addEvidenceRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}
	kind := core.EntityKind(req.Kind)
	if !kind.IsValid() || req.RefID == "" {
		writeError(w, http.StatusBadRequest, "Invalid evidence reference", nil, a.logger)
		return
	}

	evidence := core.Evidence{Kind: kind, RefID: req.RefID}
	if err := a.stores.Incidents.AddEvidence(r.Context(), id, evidence); err != nil {
		if errors.Is(err, storage.ErrIncidentNotFound) {
			writeError(w, http.StatusNotFound, "Incident not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to add evidence", err, a.logger)
		return
	}
	a.respondJSON(w, map[string]string{"id": id, "status": "evidence added"}, http.StatusOK)
}
