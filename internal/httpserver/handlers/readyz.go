package handlers

import (
	"net/http"

	"github.com/halverson/repackd/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports ready once the first index generation has been built, so a
// fresh process does not serve searches against nothing.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.Index.Generation() > 0

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}

		respondJSON(w, status, readyzResponse{Ready: ready})
	}
}
