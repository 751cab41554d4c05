package handlers

import (
	"net/http"
	"strings"

	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/logger"
)

type searchResponse struct {
	Query   string            `json:"query"`
	Count   int               `json:"count"`
	Results []*domain.Release `json:"results"`
}

func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			respondError(w, http.StatusBadRequest, "missing query parameter q")
			return
		}

		results := d.Catalogue.SearchReleasesByTitle(query)

		d.Logger.Debug("search request",
			logger.String("query", query),
			logger.Int("results", len(results)))

		respondJSON(w, http.StatusOK, searchResponse{
			Query:   query,
			Count:   len(results),
			Results: results,
		})
	}
}
