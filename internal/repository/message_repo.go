package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/elevateai/elevate/internal/domain"
)

// MessageRepository is the append-only per-chat message log. It
// implements domain.MessageStore on top of sqlite; ordering is append
// order (the seq column), not the informational timestamp.
type MessageRepository struct {
	db       *DB
	notifier *notifier[[]*domain.Message]
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{
		db:       db,
		notifier: newNotifier[[]*domain.Message](),
	}
}

// Append persists msg at the end of the chat's log and notifies
// subscribers with the full updated log. The Streaming flag is never
// persisted.
func (r *MessageRepository) Append(ctx context.Context, chatID string, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.ChatID = chatID

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, chatID, msg.Sender, msg.Text, msg.Timestamp); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	r.publish(ctx, chatID)
	return nil
}

// Messages returns the chat's full message log in append order
func (r *MessageRepository) Messages(ctx context.Context, chatID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, sender, content, created_at
		FROM messages WHERE chat_id = ?
		ORDER BY seq ASC
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		msg := &domain.Message{}
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Sender, &msg.Text, &msg.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// Subscribe registers a listener for changes to one chat's log. Every
// change delivers the entire current ordered log, not a delta.
func (r *MessageRepository) Subscribe(chatID string, onChange func([]*domain.Message)) domain.Subscription {
	return r.notifier.subscribe(chatID, onChange)
}

func (r *MessageRepository) publish(ctx context.Context, chatID string) {
	messages, err := r.Messages(ctx, chatID)
	if err != nil {
		return
	}
	r.notifier.publish(chatID, messages)
}
