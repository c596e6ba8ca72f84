package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type identifies a domain event on the wire.
type Type string

const (
	TypeJobAccepted          Type = "job_accepted"
	TypeEmergencyJobCreated  Type = "emergency_job_created"
	TypeEmergencyJobAccepted Type = "emergency_job_accepted"
	TypeInsufficientCredits  Type = "insufficient_credits"
	TypeNewMessage           Type = "new_message"
)

// Event is the envelope relayed to the delivery layer. Exactly one event is
// produced per successful state transition.
type Event struct {
	Type       Type        `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// JobAccepted is emitted when a provider wins a claim on an ordinary job.
type JobAccepted struct {
	JobID            uuid.UUID       `json:"job_id"`
	ProviderID       uuid.UUID       `json:"provider_id"`
	RemainingCredits decimal.Decimal `json:"remaining_credits"`
}

// JobSummary carries the job fields eligible providers need to decide on an
// emergency broadcast.
type JobSummary struct {
	JobID        uuid.UUID       `json:"job_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	Category     string          `json:"category"`
	OfferedPrice decimal.Decimal `json:"offered_price"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EmergencyJobCreated is broadcast to every eligible provider.
type EmergencyJobCreated struct {
	Job JobSummary `json:"job"`
}

// EmergencyJobAccepted tells the customer (and losing providers) the job is taken.
type EmergencyJobAccepted struct {
	JobID uuid.UUID `json:"job_id"`
}

// InsufficientCreditsNotice is emitted when a metered action was rejected on
// balance, so the client can route the user to the purchase flow.
type InsufficientCreditsNotice struct {
	AccountID uuid.UUID       `json:"account_id"`
	Available decimal.Decimal `json:"available"`
	Required  decimal.Decimal `json:"required"`
}

// New wraps a payload in an Event envelope.
func New(t Type, payload interface{}) Event {
	return Event{Type: t, OccurredAt: time.Now(), Payload: payload}
}
