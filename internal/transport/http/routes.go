// internal/transport/http/routes.go
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	for _, m := range mw {
		r.Use(m)
	}

	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Delete("/", h.Clear)

		r.Get("/count", h.Count)
		r.Delete("/all", h.ClearAll)

		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return r
}
