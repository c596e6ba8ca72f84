package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/fixline/fixline-api/internal/middleware"
	"github.com/fixline/fixline-api/internal/pkg/response"
	"github.com/fixline/fixline-api/internal/pkg/validator"
)

// Handler handles credit HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates credit handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetBalance handles GET /credits/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			response.NotFound(w, "Account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, BalanceResponse{AccountID: userID, Balance: balance})
}

// ListTransactions handles GET /credits/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

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

	entries, total, err := h.service.ListEntries(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	items := make([]*EntryResponse, len(entries))
	for i := range entries {
		items[i] = EntryResponseFromEntity(&entries[i])
	}

	page := offset/limit + 1
	response.WithMeta(w, items, response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   (total + limit - 1) / limit,
		HasNext: offset+limit < total,
		HasPrev: offset > 0,
	})
}

// TopUp handles POST /credits/topup
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	entry, err := h.service.Credit(r.Context(), userID, req.Amount, ReasonPurchase, uuid.NullUUID{})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "Amount must be greater than 0")
		case errors.Is(err, ErrAccountNotFound):
			response.NotFound(w, "Account not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, EntryResponseFromEntity(entry))
}

// Redeem handles POST /credits/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	entry, err := h.service.TryDebit(r.Context(), userID, req.Amount, ReasonRedemption, uuid.NullUUID{})
	if err != nil {
		var ice *InsufficientCreditsError
		switch {
		case errors.As(err, &ice):
			response.PaymentRequired(w, "Not enough credits to redeem", InsufficientDetails(ice))
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "Amount must be greater than 0")
		case errors.Is(err, ErrAccountNotFound):
			response.NotFound(w, "Account not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, EntryResponseFromEntity(entry))
}

// InsufficientDetails renders the shortfall of an InsufficientCreditsError
// for the 402 response body.
func InsufficientDetails(e *InsufficientCreditsError) map[string]string {
	return map[string]string{
		"required":  e.Required.String(),
		"available": e.Available.String(),
	}
}
