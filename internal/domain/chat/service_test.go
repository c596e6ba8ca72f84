package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/config"
	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/domain/tariff"
	"github.com/fixline/fixline-api/internal/pkg/events"
)

// fakeChatRepo keeps conversations and messages in memory and enforces the
// same charge-or-rollback behaviour as the SQL repository.
type fakeChatRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*Conversation
	messages      []*Message
	balance       decimal.Decimal
}

func newFakeChatRepo(balance string) *fakeChatRepo {
	return &fakeChatRepo{
		conversations: make(map[uuid.UUID]*Conversation),
		balance:       decimal.RequireFromString(balance),
	}
}

func (f *fakeChatRepo) addConversation(c *Conversation) {
	f.conversations[c.ID] = c
}

func (f *fakeChatRepo) CreateOrGetConversation(ctx context.Context, customerID, providerID uuid.UUID, jobID uuid.NullUUID) (*Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conversations {
		if c.CustomerID == customerID && c.ProviderID == providerID {
			return c, nil
		}
	}
	c := &Conversation{ID: uuid.New(), CustomerID: customerID, ProviderID: providerID, JobID: jobID, CreatedAt: time.Now()}
	f.conversations[c.ID] = c
	return c, nil
}

func (f *fakeChatRepo) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return c, nil
}

func (f *fakeChatRepo) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*Conversation{}
	for _, c := range f.conversations {
		if c.IsMember(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, m *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeChatRepo) CreateMessageCharged(ctx context.Context, m *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balance.LessThan(m.Cost) {
		return &ledger.InsufficientCreditsError{Required: m.Cost, Available: f.balance}
	}
	f.balance = f.balance.Sub(m.Cost)
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeChatRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*Message{}
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) MarkAsRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	return nil
}

func (f *fakeChatRepo) CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	return 0, nil
}

type fakeProviderRepo struct {
	profiles map[uuid.UUID]*provider.Profile
}

func (f *fakeProviderRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*provider.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, provider.ErrProfileNotFound
}

func (f *fakeProviderRepo) ListEmergencyEligible(ctx context.Context, category string) ([]*provider.Profile, error) {
	return nil, nil
}

func (f *fakeProviderRepo) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	return nil
}

func (f *fakeProviderRepo) SetEmergencyActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []*WSEvent
}

func (f *fakeBroadcaster) Broadcast(conversationID uuid.UUID, event *WSEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type chatFixture struct {
	svc        Service
	repo       *fakeChatRepo
	hub        *fakeBroadcaster
	conv       *Conversation
	customerID uuid.UUID
	providerID uuid.UUID
}

func newChatFixture(t *testing.T, balance, rating string) *chatFixture {
	t.Helper()

	customerID := uuid.New()
	profile := &provider.Profile{UserID: uuid.New(), Name: "Dana", Phone: "+77010000002", Category: "electrical"}
	if rating != "" {
		profile.RatingAvg = decimal.NewNullDecimal(decimal.RequireFromString(rating))
	}

	repo := newFakeChatRepo(balance)
	conv := &Conversation{ID: uuid.New(), CustomerID: customerID, ProviderID: profile.UserID, CreatedAt: time.Now()}
	repo.addConversation(conv)

	hub := &fakeBroadcaster{}
	svc := NewService(repo,
		&fakeProviderRepo{profiles: map[uuid.UUID]*provider.Profile{profile.UserID: profile}},
		tariff.NewCalculator(config.Load().Tariff),
		hub, events.Nop(), zerolog.Nop())

	return &chatFixture{svc: svc, repo: repo, hub: hub, conv: conv, customerID: customerID, providerID: profile.UserID}
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("customer message charges by rating bucket", func(t *testing.T) {
		tests := []struct {
			rating   string
			wantCost string
		}{
			{rating: "4.9", wantCost: "6"},
			{rating: "4.1", wantCost: "4"},
			{rating: "3.2", wantCost: "2.5"},
			{rating: "1.5", wantCost: "1"},
			{rating: "", wantCost: "6"},
		}
		for _, tt := range tests {
			fx := newChatFixture(t, "50", tt.rating)
			msg, err := fx.svc.SendMessage(ctx, fx.customerID, fx.conv.ID, "how soon can you come?")
			if err != nil {
				t.Fatalf("rating %q: SendMessage() error = %v", tt.rating, err)
			}
			if !msg.Cost.Equal(decimal.RequireFromString(tt.wantCost)) {
				t.Errorf("rating %q: cost = %s, want %s", tt.rating, msg.Cost, tt.wantCost)
			}
		}
	})

	t.Run("provider message is free", func(t *testing.T) {
		fx := newChatFixture(t, "0", "4.9")
		msg, err := fx.svc.SendMessage(ctx, fx.providerID, fx.conv.ID, "I can be there at 14:00")
		if err != nil {
			t.Fatalf("SendMessage() error = %v", err)
		}
		if !msg.Cost.IsZero() {
			t.Errorf("provider message cost = %s, want 0", msg.Cost)
		}
	})

	t.Run("insufficient credits keeps the message out", func(t *testing.T) {
		fx := newChatFixture(t, "1", "4.9")
		_, err := fx.svc.SendMessage(ctx, fx.customerID, fx.conv.ID, "hello")
		var ice *ledger.InsufficientCreditsError
		if !errors.As(err, &ice) {
			t.Fatalf("SendMessage() error = %v, want InsufficientCreditsError", err)
		}
		if len(fx.repo.messages) != 0 {
			t.Error("message persisted despite shortfall")
		}
		if len(fx.hub.events) != 0 {
			t.Error("broadcast fired for a failed send")
		}
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		fx := newChatFixture(t, "50", "4.9")
		_, err := fx.svc.SendMessage(ctx, uuid.New(), fx.conv.ID, "hello")
		if !errors.Is(err, ErrNotMember) {
			t.Errorf("SendMessage() error = %v, want ErrNotMember", err)
		}
	})

	t.Run("empty body is rejected", func(t *testing.T) {
		fx := newChatFixture(t, "50", "4.9")
		_, err := fx.svc.SendMessage(ctx, fx.customerID, fx.conv.ID, "   ")
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("SendMessage() error = %v, want ErrEmptyMessage", err)
		}
	})

	t.Run("successful send broadcasts to the conversation", func(t *testing.T) {
		fx := newChatFixture(t, "50", "4.9")
		if _, err := fx.svc.SendMessage(ctx, fx.customerID, fx.conv.ID, "hello"); err != nil {
			t.Fatalf("SendMessage() error = %v", err)
		}
		if len(fx.hub.events) != 1 || fx.hub.events[0].Type != EventNewMessage {
			t.Errorf("broadcasts = %+v, want one new_message", fx.hub.events)
		}
	})
}

func TestStartConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("same pair returns the same conversation", func(t *testing.T) {
		fx := newChatFixture(t, "50", "4.0")
		first, err := fx.svc.Start(ctx, fx.customerID, fx.providerID, uuid.NullUUID{})
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		second, err := fx.svc.Start(ctx, fx.customerID, fx.providerID, uuid.NullUUID{})
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("conversation IDs differ: %s vs %s", first.ID, second.ID)
		}
	})

	t.Run("self chat is rejected", func(t *testing.T) {
		fx := newChatFixture(t, "50", "4.0")
		if _, err := fx.svc.Start(ctx, fx.customerID, fx.customerID, uuid.NullUUID{}); !errors.Is(err, ErrCannotChatSelf) {
			t.Errorf("Start() error = %v, want ErrCannotChatSelf", err)
		}
	})
}
