package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/halverson/repackd/internal/catalogue"
	"github.com/halverson/repackd/internal/httpserver/deps"
)

type attachRequest struct {
	Entries []catalogue.Entry `json:"entries"`
}

type attachResponse struct {
	Entries []catalogue.EntryWithReleases `json:"entries"`
}

// CatalogueAttach joins the posted catalogue entries with the releases known
// for their titles. Entries without a match come back with an empty list.
func CatalogueAttach(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attachRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		joined := d.Catalogue.AttachReleasesToEntries(req.Entries)

		respondJSON(w, http.StatusOK, attachResponse{Entries: joined})
	}
}
