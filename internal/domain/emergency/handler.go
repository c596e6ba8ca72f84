package emergency

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixline/fixline-api/internal/domain/job"
	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/middleware"
	"github.com/fixline/fixline-api/internal/pkg/response"
	"github.com/fixline/fixline-api/internal/pkg/validator"
)

// Handler handles emergency job HTTP requests
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register hangs the emergency endpoint off the /jobs subtree.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.RequireCustomer()).Post("/emergency", h.Create)
}

// Create handles POST /jobs/emergency
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEmergencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	customerID := middleware.GetUserID(r.Context())
	j, notified, err := h.service.CreateEmergency(r.Context(), customerID, &req)
	if err != nil {
		var ice *ledger.InsufficientCreditsError
		switch {
		case errors.As(err, &ice):
			response.PaymentRequired(w, "Not enough credits to post an emergency job", ledger.InsufficientDetails(ice))
		case errors.Is(err, job.ErrInvalidPrice):
			response.BadRequest(w, "Price must be a non-negative number")
		case errors.Is(err, ledger.ErrAccountNotFound):
			response.NotFound(w, "Account not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, CreateEmergencyResponse{
		Job:               job.JobResponseFromEntity(j),
		NotifiedProviders: notified,
	})
}
