package contact

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/middleware"
	"github.com/fixline/fixline-api/internal/pkg/response"
)

// Handler handles contact reveal HTTP requests
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register hangs the reveal endpoint off the /providers subtree.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.RequireCustomer()).Post("/{id}/reveal-contact", h.Reveal)
}

// Reveal handles POST /providers/{id}/reveal-contact
func (h *Handler) Reveal(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid provider ID")
		return
	}

	customerID := middleware.GetUserID(r.Context())
	result, err := h.service.RevealContact(r.Context(), customerID, providerID)
	if err != nil {
		var ice *ledger.InsufficientCreditsError
		switch {
		case errors.Is(err, provider.ErrProfileNotFound):
			response.NotFound(w, "Provider not found")
		case errors.As(err, &ice):
			response.PaymentRequired(w, "Not enough credits to reveal this contact", ledger.InsufficientDetails(ice))
		case errors.Is(err, ledger.ErrAccountNotFound):
			response.NotFound(w, "Account not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, RevealResponseFromResult(result))
}
