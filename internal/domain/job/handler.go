package job

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fixline/fixline-api/internal/middleware"
	"github.com/fixline/fixline-api/internal/pkg/response"
	"github.com/fixline/fixline-api/internal/pkg/validator"
)

// Handler handles job HTTP requests
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /jobs
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	customerID := middleware.GetUserID(r.Context())
	j, err := h.service.Create(r.Context(), customerID, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidPrice) {
			response.BadRequest(w, "Price must be a non-negative number")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, JobResponseFromEntity(j))
}

// List handles GET /jobs. Providers see the open board; ?mine=true returns
// the caller's own jobs on either side.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	ctx := r.Context()

	var (
		jobs  []*Job
		total int
		err   error
	)
	if r.URL.Query().Get("mine") == "true" {
		userID := middleware.GetUserID(ctx)
		if middleware.GetRole(ctx) == middleware.RoleProvider {
			jobs, total, err = h.service.ListByProvider(ctx, userID, limit, offset)
		} else {
			jobs, total, err = h.service.ListByCustomer(ctx, userID, limit, offset)
		}
	} else {
		jobs, total, err = h.service.ListOpen(ctx, r.URL.Query().Get("category"), limit, offset)
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	page := offset/limit + 1
	response.WithMeta(w, JobResponsesFromEntities(jobs), response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   (total + limit - 1) / limit,
		HasNext: offset+limit < total,
		HasPrev: offset > 0,
	})
}

// Get handles GET /jobs/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid job ID")
		return
	}

	j, err := h.service.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Job not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, JobResponseFromEntity(j))
}

// Start handles POST /jobs/{id}/start
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(jobID, actorID uuid.UUID) (*Job, error) {
		return h.service.Start(r.Context(), jobID, actorID)
	})
}

// Complete handles POST /jobs/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(jobID, actorID uuid.UUID) (*Job, error) {
		return h.service.Complete(r.Context(), jobID, actorID)
	})
}

// Report handles POST /jobs/{id}/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	h.transition(w, r, func(jobID, actorID uuid.UUID) (*Job, error) {
		return h.service.Report(r.Context(), jobID, actorID, req.Reason)
	})
}

// Cancel handles POST /jobs/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(jobID, actorID uuid.UUID) (*Job, error) {
		return h.service.Cancel(r.Context(), jobID, actorID)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(jobID, actorID uuid.UUID) (*Job, error)) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid job ID")
		return
	}

	j, err := fn(jobID, middleware.GetUserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Job not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "Job does not belong to you")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, "Job is not in a state that allows this action")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, JobResponseFromEntity(j))
}

func pagination(r *http.Request) (int, int) {
	limit := 20
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
