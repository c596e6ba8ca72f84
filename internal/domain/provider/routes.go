package provider

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixline/fixline-api/internal/middleware"
)

// Routes returns provider routes. The extra registrars let the contact
// reveal endpoint, which lives in another package, hang off /providers.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, extra ...func(chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireProvider())
			r.Get("/me", h.GetMe)
			r.Patch("/me", h.UpdateMe)
		})

		for _, register := range extra {
			register(r)
		}
	})

	return r
}
