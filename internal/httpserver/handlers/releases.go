package handlers

import (
	"net/http"

	"github.com/halverson/repackd/internal/domain"
	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/logger"
)

type releasesResponse struct {
	Count    int               `json:"count"`
	Releases []*domain.Release `json:"releases"`
}

// Releases lists every stored release, newest upload first.
func Releases(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		releases, err := d.Store.ListReleases(r.Context())
		if err != nil {
			d.Logger.Error("failed to list releases", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to list releases")
			return
		}

		respondJSON(w, http.StatusOK, releasesResponse{
			Count:    len(releases),
			Releases: releases,
		})
	}
}
