package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/domain/tariff"
	"github.com/fixline/fixline-api/internal/pkg/events"
)

// Broadcaster is the hub surface the service needs.
type Broadcaster interface {
	Broadcast(conversationID uuid.UUID, event *WSEvent)
}

// ConversationWithUnread pairs a conversation with the caller's unread count.
type ConversationWithUnread struct {
	Conversation *Conversation
	UnreadCount  int
}

// Service implements metered chat between customers and providers. Customer
// messages cost credits by the provider's rating bucket; provider messages
// are free.
type Service interface {
	Start(ctx context.Context, customerID, providerID uuid.UUID, jobID uuid.NullUUID) (*Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*ConversationWithUnread, error)
	GetMessages(ctx context.Context, userID, conversationID uuid.UUID, limit, offset int) ([]*Message, error)
	SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, body string) (*Message, error)
	MarkAsRead(ctx context.Context, userID, conversationID uuid.UUID) error
}

type service struct {
	repo      Repository
	providers provider.Repository
	tariffs   *tariff.Calculator
	hub       Broadcaster
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewService(
	repo Repository,
	providers provider.Repository,
	tariffs *tariff.Calculator,
	hub Broadcaster,
	publisher events.Publisher,
	logger zerolog.Logger,
) Service {
	return &service{
		repo:      repo,
		providers: providers,
		tariffs:   tariffs,
		hub:       hub,
		publisher: publisher,
		logger:    logger.With().Str("service", "chat").Logger(),
	}
}

func (s *service) Start(ctx context.Context, customerID, providerID uuid.UUID, jobID uuid.NullUUID) (*Conversation, error) {
	if customerID == providerID {
		return nil, ErrCannotChatSelf
	}
	if _, err := s.providers.GetByUserID(ctx, providerID); err != nil {
		return nil, err
	}
	return s.repo.CreateOrGetConversation(ctx, customerID, providerID, jobID)
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]*ConversationWithUnread, error) {
	conversations, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*ConversationWithUnread, len(conversations))
	for i, conv := range conversations {
		unread, err := s.repo.CountUnread(ctx, conv.ID, userID)
		if err != nil {
			unread = 0
		}
		out[i] = &ConversationWithUnread{Conversation: conv, UnreadCount: unread}
	}
	return out, nil
}

func (s *service) GetMessages(ctx context.Context, userID, conversationID uuid.UUID, limit, offset int) ([]*Message, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsMember(userID) {
		return nil, ErrNotMember
	}
	return s.repo.ListMessages(ctx, conversationID, limit, offset)
}

func (s *service) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsMember(senderID) {
		return nil, ErrNotMember
	}

	msg := &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		Cost:           decimal.Zero,
	}

	if senderID == conv.CustomerID {
		profile, err := s.providers.GetByUserID(ctx, conv.ProviderID)
		if err != nil {
			return nil, err
		}
		msg.Cost = s.tariffs.MessageCost(profile.Rating())

		if err := s.repo.CreateMessageCharged(ctx, msg); err != nil {
			s.notifyInsufficient(ctx, senderID, err)
			return nil, err
		}
	} else {
		if err := s.repo.CreateMessage(ctx, msg); err != nil {
			return nil, err
		}
	}

	s.hub.Broadcast(conversationID, &WSEvent{
		Type:           EventNewMessage,
		ConversationID: conversationID,
		SenderID:       senderID,
		Message:        msg,
	})
	s.publisher.PublishToUser(ctx, conv.OtherParty(senderID), events.New(events.TypeNewMessage,
		MessageResponseFromEntity(msg)))

	return msg, nil
}

func (s *service) MarkAsRead(ctx context.Context, userID, conversationID uuid.UUID) error {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.IsMember(userID) {
		return ErrNotMember
	}
	if err := s.repo.MarkAsRead(ctx, conversationID, userID); err != nil {
		return err
	}

	s.hub.Broadcast(conversationID, &WSEvent{
		Type:           EventRead,
		ConversationID: conversationID,
		SenderID:       userID,
	})
	return nil
}

func (s *service) notifyInsufficient(ctx context.Context, accountID uuid.UUID, err error) {
	var ice *ledger.InsufficientCreditsError
	if !errors.As(err, &ice) {
		return
	}
	s.publisher.PublishToUser(ctx, accountID, events.New(events.TypeInsufficientCredits,
		events.InsufficientCreditsNotice{
			AccountID: accountID,
			Available: ice.Available,
			Required:  ice.Required,
		}))
}
