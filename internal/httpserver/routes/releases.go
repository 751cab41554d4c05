package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/httpserver/handlers"
)

func init() { Register(registerReleases) }

func registerReleases(r chi.Router, d deps.Deps) {
	r.Get("/api/releases", handlers.Releases(d))
}
