package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fixline/fixline-api/internal/domain/ledger"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	CreateOrGetConversation(ctx context.Context, customerID, providerID uuid.UUID, jobID uuid.NullUUID) (*Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)

	// CreateMessage inserts a free (provider-authored) message.
	CreateMessage(ctx context.Context, m *Message) error

	// CreateMessageCharged inserts the message and debits the sender in one
	// transaction. A balance shortfall rolls the message back.
	CreateMessageCharged(ctx context.Context, m *Message) error

	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error)
	MarkAsRead(ctx context.Context, conversationID, readerID uuid.UUID) error
	CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int, error)
}

type ChatRepository struct {
	db     *sqlx.DB
	ledger ledger.Repository
}

func NewRepository(db *sqlx.DB, ledgerRepo ledger.Repository) *ChatRepository {
	return &ChatRepository{db: db, ledger: ledgerRepo}
}

func (r *ChatRepository) CreateOrGetConversation(ctx context.Context, customerID, providerID uuid.UUID, jobID uuid.NullUUID) (*Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// Upsert on the unique pair; the no-op update makes RETURNING yield the
	// existing row on conflict.
	query := `
		INSERT INTO conversations (id, customer_id, provider_id, job_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id, provider_id)
		DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING id, customer_id, provider_id, job_id, created_at, last_message_at`

	var conv Conversation
	err := r.db.GetContext(ctx, &conv, query, uuid.New(), customerID, providerID, jobID)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &conv, nil
}

func (r *ChatRepository) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var conv Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

func (r *ChatRepository) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	conversations := []*Conversation{}
	err := r.db.SelectContext(ctx, &conversations, `
		SELECT * FROM conversations
		WHERE customer_id = $1 OR provider_id = $1
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *Message) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.insertMessage(ctx, tx, m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *ChatRepository) CreateMessageCharged(ctx context.Context, m *Message) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.insertMessage(ctx, tx, m); err != nil {
		return err
	}
	if _, err := r.ledger.TryDebitTx(ctx, tx, m.SenderID, m.Cost, ledger.ReasonMessageSend, uuid.NullUUID{}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *ChatRepository) insertMessage(ctx context.Context, tx *sqlx.Tx, m *Message) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, body, cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, m.ID, m.ConversationID, m.SenderID, m.Body, m.Cost).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = $2 WHERE id = $1`,
		m.ConversationID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	messages := []*Message{}
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (r *ChatRepository) MarkAsRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET read_at = NOW()
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`, conversationID, readerID)
	if err != nil {
		return fmt.Errorf("mark as read: %w", err)
	}
	return nil
}

func (r *ChatRepository) CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`, conversationID, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
