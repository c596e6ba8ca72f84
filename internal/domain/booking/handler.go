package booking

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fixline/fixline-api/internal/domain/job"
	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/middleware"
	"github.com/fixline/fixline-api/internal/pkg/response"
)

// Handler handles claim HTTP requests
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register hangs the claim endpoints off the /jobs subtree.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireProvider())
		r.Post("/{id}/accept", h.Accept)
		r.Post("/{id}/accept-emergency", h.AcceptEmergency)
	})
}

// Accept handles POST /jobs/{id}/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.service.AcceptJob, false)
}

// AcceptEmergency handles POST /jobs/{id}/accept-emergency
func (h *Handler) AcceptEmergency(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.service.AcceptEmergencyJob, true)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, jobID, providerID uuid.UUID) (*Booking, error), emergency bool) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid job ID")
		return
	}

	providerID := middleware.GetUserID(r.Context())
	b, err := fn(r.Context(), jobID, providerID)
	if err != nil {
		var ice *ledger.InsufficientCreditsError
		switch {
		case errors.Is(err, job.ErrNotFound):
			response.NotFound(w, "Job not found")
		case errors.Is(err, job.ErrAlreadyClaimed):
			response.Conflict(w, "Job has already been accepted")
		case errors.Is(err, ErrEmergencyJob):
			response.BadRequest(w, "Emergency jobs must be accepted through the emergency endpoint")
		case errors.Is(err, ErrNotEmergencyJob):
			response.BadRequest(w, "Job is not an emergency job")
		case errors.Is(err, ErrProviderNotAvailable):
			response.BadRequest(w, "Turn on availability to accept jobs")
		case errors.Is(err, job.ErrInvalidPrice):
			response.BadRequest(w, "Job has no valid price")
		case errors.Is(err, provider.ErrProfileNotFound):
			response.NotFound(w, "Provider profile not found")
		case errors.As(err, &ice) && emergency:
			// The shortfall is on the customer's account, not the caller's.
			response.BadRequest(w, "Customer no longer has enough credits for this job")
		case errors.As(err, &ice):
			response.PaymentRequired(w, "Not enough credits to accept this job", ledger.InsufficientDetails(ice))
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, BookingResponseFromEntity(b))
}
