package api

import (
	"errors"
	"net/http"
	"time"

	"argus/core"
	"argus/storage"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// createFeedRequest is the body for POST /api/feeds
type createFeedRequest struct {
	Name         string `json:"name" validate:"required"`
	URL          string `json:"url" validate:"required,url"`
	FeedType     string `json:"feed_type" validate:"required"`
	SyncInterval int    `json:"sync_interval" validate:"min=0"`
	Reputation   int    `json:"reputation" validate:"min=0,max=100"`
	Description  string `json:"description"`
	Provider     string `json:"provider"`
}

// setFeedEnabledRequest is the body for PUT /api/feeds/{id}/enabled
type setFeedEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (a *API) listFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := a.stores.Feeds.ListFeeds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list feeds", err, a.logger)
		return
	}
	a.respondJSON(w, feeds, http.StatusOK)
}

func (a *API) getFeedStats(w http.ResponseWriter, r *http.Request) {
	feeds, err := a.stores.Feeds.ListFeeds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get feed stats", err, a.logger)
		return
	}
	iocs, err := a.stores.IOCs.GetAllIOCs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get feed stats", err, a.logger)
		return
	}
	a.respondJSON(w, core.ComputeFeedStats(feeds, iocs, time.Now().UTC()), http.StatusOK)
}

func (a *API) createFeed(w http.ResponseWriter, r *http.Request) {
	if _, err := a.actor(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", err, a.logger)
		return
	}

	var req createFeedRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}
	validate := validator.New()
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid feed request", err, a.logger)
		return
	}

	feed, err := core.NewThreatFeed(req.Name, req.URL, core.FeedType(req.FeedType), req.SyncInterval, req.Reputation)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid feed", err, a.logger)
		return
	}
	feed.Description = req.Description
	feed.Provider = req.Provider

	if err := a.stores.Feeds.CreateFeed(r.Context(), feed); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create feed", err, a.logger)
		return
	}
	a.respondJSON(w, feed, http.StatusCreated)
}

func (a *API) setFeedEnabled(w http.ResponseWriter, r *http.Request) {
	if _, err := a.actor(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", err, a.logger)
		return
	}
	id := mux.Vars(r)["id"]

	var req setFeedEnabledRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := a.stores.Feeds.SetFeedEnabled(r.Context(), id, req.Enabled); err != nil {
		if errors.Is(err, storage.ErrFeedNotFound) {
			writeError(w, http.StatusNotFound, "Feed not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to toggle feed", err, a.logger)
		return
	}
	a.respondJSON(w, map[string]interface{}{"id": id, "enabled": req.Enabled}, http.StatusOK)
}

func (a *API) deleteFeed(w http.ResponseWriter, r *http.Request) {
	if _, err := a.actor(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", err, a.logger)
		return
	}
	id := mux.Vars(r)["id"]

	if err := a.stores.Feeds.DeleteFeed(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrFeedNotFound) {
			writeError(w, http.StatusNotFound, "Feed not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete feed", err, a.logger)
		return
	}
	a.respondJSON(w, map[string]string{"status": "deleted", "id": id}, http.StatusOK)
}
