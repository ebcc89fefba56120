package api

import (
	"errors"
	"net/http"

	"argus/core"
	"argus/metrics"
	"argus/storage"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// createIOCRequest is the body for POST /api/iocs
type createIOCRequest struct {
	Type            string   `json:"type" validate:"required"`
	Value           string   `json:"value" validate:"required"`
	Severity        string   `json:"severity"`
	Source          string   `json:"source"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	Confidence      *int     `json:"confidence" validate:"omitempty,min=0,max=100"`
	MitreTechniques []string `json:"mitre_techniques"`
}

func (a *API) listIOCs(w http.ResponseWriter, r *http.Request) {
	iocs, err := a.stores.IOCs.ListIOCs(r.Context(), parseIOCFilters(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list IOCs", err, a.logger)
		return
	}
	a.respondJSON(w, iocs, http.StatusOK)
}

func (a *API) getIOC(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ioc, err := a.stores.IOCs.GetIOC(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrIOCNotFound) {
			writeError(w, http.StatusNotFound, "IOC not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get IOC", err, a.logger)
		return
	}
	a.respondJSON(w, ioc, http.StatusOK)
}

func (a *API) getIOCStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.stores.IOCs.GetIOCStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get IOC stats", err, a.logger)
		return
	}
	a.respondJSON(w, stats, http.StatusOK)
}

func (a *API) createIOC(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", errAuthRequired, a.logger)
		return
	}

	var req createIOCRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}
	validate := validator.New()
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid IOC request", err, a.logger)
		return
	}

	ioc, err := core.NewIOC(core.IOCType(req.Type), req.Value, core.Severity(req.Severity), req.Source, identity.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid IOC", err, a.logger)
		return
	}
	ioc.Description = req.Description
	if req.Tags != nil {
		ioc.Tags = req.Tags
	}
	if req.Confidence != nil {
		ioc.Confidence = *req.Confidence
	}
	ioc.MitreTechniques = req.MitreTechniques

	if err := ioc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid IOC", err, a.logger)
		return
	}
	if err := a.stores.IOCs.CreateIOC(r.Context(), ioc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create IOC", err, a.logger)
		return
	}

	metrics.IOCsCreated.WithLabelValues(string(ioc.Type)).Inc()
	a.respondJSON(w, ioc, http.StatusCreated)
}

func (a *API) updateIOC(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", err, a.logger)
		return
	}
	id := mux.Vars(r)["id"]

	var update core.IOCUpdate
	if err := a.decodeJSONBody(w, r, &update); err != nil {
		return
	}

	ioc, err := a.stores.IOCs.GetIOC(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrIOCNotFound) {
			writeError(w, http.StatusNotFound, "IOC not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get IOC", err, a.logger)
		return
	}

	update.Apply(ioc)
	if err := ioc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid IOC update", err, a.logger)
		return
	}
	if err := a.stores.IOCs.UpdateIOC(r.Context(), ioc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update IOC", err, a.logger)
		return
	}

	a.logger.Infow("IOC updated", "id", id, "actor", actor.ID)
	a.respondJSON(w, ioc, http.StatusOK)
}

func (a *API) deleteIOC(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", errAuthRequired, a.logger)
		return
	}
	id := mux.Vars(r)["id"]

	ioc, err := a.stores.IOCs.GetIOC(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrIOCNotFound) {
			writeError(w, http.StatusNotFound, "IOC not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get IOC", err, a.logger)
		return
	}
	if !identity.CanDelete(ioc.CreatedBy) {
		writeError(w, http.StatusForbidden, "Only the creator or an admin can delete an IOC", nil, a.logger)
		return
	}

	if err := a.stores.IOCs.DeleteIOC(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete IOC", err, a.logger)
		return
	}
	a.respondJSON(w, map[string]string{"status": "deleted", "id": id}, http.StatusOK)
}
