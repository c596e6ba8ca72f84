package job

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a job posting
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusAccepted   Status = "ACCEPTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusReported   Status = "REPORTED"
	StatusCancelled  Status = "CANCELLED"
)

type Job struct {
	ID          uuid.UUID       `db:"id"`
	CustomerID  uuid.UUID       `db:"customer_id"`
	ProviderID  uuid.NullUUID   `db:"provider_id"`
	Category    string          `db:"category"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	IsEmergency bool            `db:"is_emergency"`
	Status      Status          `db:"status"`
	AcceptedAt  *time.Time      `db:"accepted_at"`
	CompletedAt *time.Time      `db:"completed_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// CanTransitionTo reports whether the status machine allows moving to next.
// Terminal states (COMPLETED, REPORTED, CANCELLED) allow nothing. Cancelling
// is only possible while the job is still OPEN; once a provider holds the
// claim the accept fee has been charged and the job must run to completion
// or a report. Starting is optional, so completion and reporting are reachable
// straight from ACCEPTED.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusAccepted || next == StatusCancelled
	case StatusAccepted:
		return next == StatusInProgress || next == StatusCompleted || next == StatusReported
	case StatusInProgress:
		return next == StatusCompleted || next == StatusReported
	default:
		return false
	}
}
