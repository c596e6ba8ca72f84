package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/middleware"
	"github.com/fixline/fixline-api/internal/pkg/response"
	"github.com/fixline/fixline-api/internal/pkg/validator"
)

// WebSocket constants
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Handler handles chat HTTP requests
type Handler struct {
	service     Service
	hub         *Hub
	rateLimiter *RateLimiter
	upgrader    websocket.Upgrader
}

// RateLimiter throttles chat sends per user over a sliding window in Redis.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  30,
		window: time.Minute,
	}
}

// Allow checks if user can send a message. Fails open without Redis.
func (rl *RateLimiter) Allow(userID uuid.UUID) bool {
	if rl.redis == nil {
		return true
	}

	key := fmt.Sprintf("ratelimit:chat:%s", userID)
	ctx := context.Background()

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return true
	}

	if count == 1 {
		rl.redis.Expire(ctx, key, rl.window)
	}

	return count <= int64(rl.limit)
}

// NewHandler creates chat handler
func NewHandler(service Service, hub *Hub, redisClient *redis.Client, allowedOrigins []string) *Handler {
	return &Handler{
		service:     service,
		hub:         hub,
		rateLimiter: NewRateLimiter(redisClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				if len(allowedOrigins) == 0 {
					return true
				}

				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}

				log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
	}
}

// StartConversation handles POST /chat/conversations
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		response.BadRequest(w, "Invalid provider ID")
		return
	}
	var jobID uuid.NullUUID
	if req.JobID != "" {
		id, err := uuid.Parse(req.JobID)
		if err != nil {
			response.BadRequest(w, "Invalid job ID")
			return
		}
		jobID = uuid.NullUUID{UUID: id, Valid: true}
	}

	customerID := middleware.GetUserID(r.Context())
	conv, err := h.service.Start(r.Context(), customerID, providerID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCannotChatSelf):
			response.BadRequest(w, "Cannot start chat with yourself")
		case errors.Is(err, provider.ErrProfileNotFound):
			response.NotFound(w, "Provider not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, ConversationResponseFromEntity(conv, 0))
}

// ListConversations handles GET /chat/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	conversations, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	items := make([]*ConversationResponse, len(conversations))
	for i, c := range conversations {
		items[i] = ConversationResponseFromEntity(c.Conversation, c.UnreadCount)
	}

	response.OK(w, items)
}

// GetMessages handles GET /chat/conversations/{id}/messages
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid conversation ID")
		return
	}

	limit := 50
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

	userID := middleware.GetUserID(r.Context())
	messages, err := h.service.GetMessages(r.Context(), userID, conversationID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			response.NotFound(w, "Conversation not found")
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, "You are not a member of this chat")
		default:
			response.InternalError(w)
		}
		return
	}

	items := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		items[i] = MessageResponseFromEntity(m)
	}

	response.OK(w, items)
}

// SendMessage handles POST /chat/conversations/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid conversation ID")
		return
	}

	userID := middleware.GetUserID(r.Context())

	if !h.rateLimiter.Allow(userID) {
		response.Error(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many messages, please slow down")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), userID, conversationID, req.Body)
	if err != nil {
		var ice *ledger.InsufficientCreditsError
		switch {
		case errors.Is(err, ErrConversationNotFound):
			response.NotFound(w, "Conversation not found")
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, "You are not a member of this chat")
		case errors.Is(err, ErrEmptyMessage):
			response.BadRequest(w, "Message body is empty")
		case errors.As(err, &ice):
			response.PaymentRequired(w, "Not enough credits to send this message", ledger.InsufficientDetails(ice))
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, MessageResponseFromEntity(msg))
}

// MarkAsRead handles POST /chat/conversations/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid conversation ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.service.MarkAsRead(r.Context(), userID, conversationID); err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			response.NotFound(w, "Conversation not found")
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, "You are not a member of this chat")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// WebSocket handles WS /ws
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Connection{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)

	// Fan-in: subscribe to every conversation the user participates in
	conversations, _ := h.service.ListConversations(r.Context(), userID)
	for _, c := range conversations {
		h.hub.Subscribe(c.Conversation.ID, userID)
	}

	go h.wsReader(client)
	go h.wsWriter(client)
}

func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("WebSocket read error")
			}
			break
		}

		if !h.rateLimiter.Allow(client.UserID) {
			continue
		}

		var event struct {
			Type           string    `json:"type"`
			ConversationID uuid.UUID `json:"conversation_id"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}

		// Sends go through the metered REST endpoint; the socket only
		// carries the cheap signals.
		switch event.Type {
		case "typing":
			h.hub.Broadcast(event.ConversationID, &WSEvent{
				Type:           EventTyping,
				ConversationID: event.ConversationID,
				SenderID:       client.UserID,
			})
		case "read":
			_ = h.service.MarkAsRead(context.Background(), client.UserID, event.ConversationID)
		}
	}
}

func (h *Handler) wsWriter(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
