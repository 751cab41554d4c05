package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/httpserver/handlers"
)

func init() { Register(registerSources) }

func registerSources(r chi.Router, d deps.Deps) {
	r.Get("/api/sources", handlers.ListSources(d))
	r.Post("/api/sources", handlers.AddSource(d))
	r.Delete("/api/sources/{id}", handlers.RemoveSource(d))
}
