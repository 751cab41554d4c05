package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/logger"
	"github.com/halverson/repackd/internal/store/sqlite"
)

type sourcesResponse struct {
	Count   int              `json:"count"`
	Sources []*domain.Source `json:"sources"`
}

type addSourceRequest struct {
	URL string `json:"url"`
}

// ListSources returns every registered source, newest first.
func ListSources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		srcs, err := d.Store.ListSources(r.Context())
		if err != nil {
			d.Logger.Error("failed to list sources", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to list sources")
			return
		}

		respondJSON(w, http.StatusOK, sourcesResponse{
			Count:   len(srcs),
			Sources: srcs,
		})
	}
}

// AddSource validates the candidate URL by fetching its document before
// anything is persisted; a URL that does not serve a valid document is
// rejected outright.
func AddSource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.URL = strings.TrimSpace(req.URL)
		if req.URL == "" {
			respondError(w, http.StatusBadRequest, "url is required")
			return
		}

		src, err := d.Syncer.AddSource(r.Context(), req.URL)
		if err != nil {
			if errors.Is(err, sqlite.ErrURLConflict) {
				respondError(w, http.StatusConflict, "source URL already registered")
				return
			}
			d.Logger.Warn("source rejected",
				logger.String("url", req.URL),
				logger.Error(err))
			respondError(w, http.StatusUnprocessableEntity, "source did not serve a valid document")
			return
		}

		respondJSON(w, http.StatusCreated, src)
	}
}

// RemoveSource deletes a source together with all releases imported from it.
func RemoveSource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid source id")
			return
		}

		if err := d.Syncer.RemoveSource(r.Context(), id); err != nil {
			if errors.Is(err, sqlite.ErrNotFound) {
				respondError(w, http.StatusNotFound, "source not found")
				return
			}
			d.Logger.Error("failed to remove source",
				logger.Int64("source_id", id),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to remove source")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
