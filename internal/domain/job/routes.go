package job

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixline/fixline-api/internal/middleware"
)

// Routes returns job routes. The extra registrars let the claim endpoints,
// which live in another package, hang off the same /jobs subtree.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, extra ...func(chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCustomer())
			r.Post("/", h.Create)
			r.Post("/{id}/cancel", h.Cancel)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireProvider())
			r.Post("/{id}/start", h.Start)
			r.Post("/{id}/complete", h.Complete)
			r.Post("/{id}/report", h.Report)
		})

		for _, register := range extra {
			register(r)
		}
	})

	return r
}
