package provider

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fixline/fixline-api/internal/middleware"
	"github.com/fixline/fixline-api/internal/pkg/response"
)

// Handler handles provider profile HTTP requests
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetMe handles GET /providers/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			response.NotFound(w, "Provider profile not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, ProfileResponseFromEntity(profile))
}

// UpdateMe handles PATCH /providers/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateTogglesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	userID := middleware.GetUserID(r.Context())
	profile, err := h.service.UpdateToggles(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			response.NotFound(w, "Provider profile not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, ProfileResponseFromEntity(profile))
}
