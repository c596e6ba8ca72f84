package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Conversation is the single chat thread between one customer and one
// provider. The pair is unique; re-opening a chat returns the same thread.
type Conversation struct {
	ID            uuid.UUID     `db:"id"`
	CustomerID    uuid.UUID     `db:"customer_id"`
	ProviderID    uuid.UUID     `db:"provider_id"`
	JobID         uuid.NullUUID `db:"job_id"`
	CreatedAt     time.Time     `db:"created_at"`
	LastMessageAt *time.Time    `db:"last_message_at"`
}

// Message is one chat message. Cost is zero for provider-authored messages:
// only the customer side is metered.
type Message struct {
	ID             uuid.UUID       `db:"id"`
	ConversationID uuid.UUID       `db:"conversation_id"`
	SenderID       uuid.UUID       `db:"sender_id"`
	Body           string          `db:"body"`
	Cost           decimal.Decimal `db:"cost"`
	ReadAt         *time.Time      `db:"read_at"`
	CreatedAt      time.Time       `db:"created_at"`
}

// IsMember reports whether userID is one of the two conversation parties.
func (c *Conversation) IsMember(userID uuid.UUID) bool {
	return c.CustomerID == userID || c.ProviderID == userID
}

// OtherParty returns the opposite side of the conversation for userID.
func (c *Conversation) OtherParty(userID uuid.UUID) uuid.UUID {
	if c.CustomerID == userID {
		return c.ProviderID
	}
	return c.CustomerID
}
