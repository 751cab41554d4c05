package handlers

import (
	"net/http"

	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/logger"
)

type syncResponse struct {
	Status string `json:"status"`
}

// SyncNow requests an immediate sync cycle. The trigger is non-blocking: if
// a cycle is already pending the request is turned away with 429.
func SyncNow(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.SyncTrigger <- struct{}{}:
			d.Logger.Info("manual sync triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			respondJSON(w, http.StatusAccepted, syncResponse{Status: "sync triggered"})
		default:
			d.Logger.Warn("sync already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			respondError(w, http.StatusTooManyRequests, "sync already in progress")
		}
	}
}
