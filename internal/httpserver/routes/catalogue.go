package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/httpserver/handlers"
)

func init() { Register(registerCatalogue) }

func registerCatalogue(r chi.Router, d deps.Deps) {
	r.Post("/api/catalogue/attach", handlers.CatalogueAttach(d))
}
