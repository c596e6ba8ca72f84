package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixline/fixline-api/internal/middleware"
)

// Routes returns chat routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.With(middleware.RequireCustomer()).Post("/conversations", h.StartConversation)
		r.Get("/conversations", h.ListConversations)
		r.Get("/conversations/{id}/messages", h.GetMessages)
		r.Post("/conversations/{id}/messages", h.SendMessage)
		r.Post("/conversations/{id}/read", h.MarkAsRead)
	})

	return r
}
