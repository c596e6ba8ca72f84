package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StartConversationRequest struct {
	ProviderID string `json:"provider_id" validate:"required,uuid"`
	JobID      string `json:"job_id" validate:"omitempty,uuid"`
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type ConversationResponse struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	ProviderID    uuid.UUID  `json:"provider_id"`
	JobID         *uuid.UUID `json:"job_id,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type MessageResponse struct {
	ID             uuid.UUID       `json:"id"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	SenderID       uuid.UUID       `json:"sender_id"`
	Body           string          `json:"body"`
	Cost           decimal.Decimal `json:"cost"`
	ReadAt         *time.Time      `json:"read_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func ConversationResponseFromEntity(c *Conversation, unread int) *ConversationResponse {
	resp := &ConversationResponse{
		ID:            c.ID,
		CustomerID:    c.CustomerID,
		ProviderID:    c.ProviderID,
		UnreadCount:   unread,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
	}
	if c.JobID.Valid {
		id := c.JobID.UUID
		resp.JobID = &id
	}
	return resp
}

func MessageResponseFromEntity(m *Message) *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		Cost:           m.Cost,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}
