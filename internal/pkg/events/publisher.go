package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserSink pushes a JSON-serialisable payload to every live connection of a
// user, across server instances. The websocket hub satisfies this.
type UserSink interface {
	SendToUserJSON(userID uuid.UUID, payload any) error
}

// Publisher relays domain events to the delivery layer. Implementations must
// not fail the business operation: delivery is best effort, the state
// transition has already committed.
type Publisher interface {
	PublishToUser(ctx context.Context, userID uuid.UUID, event Event)
	PublishToUsers(ctx context.Context, userIDs []uuid.UUID, event Event)
}

type sinkPublisher struct {
	sink UserSink
}

// NewPublisher returns a Publisher backed by a UserSink (the websocket hub,
// which fans out through Redis to other instances).
func NewPublisher(sink UserSink) Publisher {
	return &sinkPublisher{sink: sink}
}

func (p *sinkPublisher) PublishToUser(ctx context.Context, userID uuid.UUID, event Event) {
	if p.sink == nil {
		return
	}
	if err := p.sink.SendToUserJSON(userID, event); err != nil {
		log.Warn().Err(err).
			Str("user_id", userID.String()).
			Str("event_type", string(event.Type)).
			Msg("Failed to publish domain event")
	}
}

func (p *sinkPublisher) PublishToUsers(ctx context.Context, userIDs []uuid.UUID, event Event) {
	for _, id := range userIDs {
		p.PublishToUser(ctx, id, event)
	}
}

type nopPublisher struct{}

// Nop returns a Publisher that drops everything. Used in tests.
func Nop() Publisher { return nopPublisher{} }

func (nopPublisher) PublishToUser(context.Context, uuid.UUID, Event)    {}
func (nopPublisher) PublishToUsers(context.Context, []uuid.UUID, Event) {}
