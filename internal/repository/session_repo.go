package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/elevateai/elevate/internal/domain"
)

// SessionRepository maintains each user's chat history index. It
// implements domain.SessionIndex on top of sqlite.
type SessionRepository struct {
	db       *DB
	notifier *notifier[[]*domain.ChatSession]
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{
		db:       db,
		notifier: newNotifier[[]*domain.ChatSession](),
	}
}

// CreateSession creates the chat metadata record and the user's history
// index entry in a single transaction. Either both rows exist afterwards
// or neither does; a reader can never observe an index entry pointing at
// a chat without metadata.
func (r *SessionRepository) CreateSession(ctx context.Context, userID, title string) (*domain.ChatSession, error) {
	if userID == "" {
		return nil, domain.ErrNoIdentity
	}

	session := &domain.ChatSession{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, title, created_at)
		VALUES (?, ?, ?)
	`, session.ID, session.Title, session.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create chat record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_sessions (user_id, chat_id, title, created_at)
		VALUES (?, ?, ?, ?)
	`, userID, session.ID, session.Title, session.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}

	r.publish(ctx, userID)
	return session, nil
}

// Sessions returns the user's chat sessions, newest first
func (r *SessionRepository) Sessions(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, title, created_at
		FROM chat_sessions WHERE user_id = ?
		ORDER BY created_at DESC, chat_id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.ChatSession
	for rows.Next() {
		session := &domain.ChatSession{}
		if err := rows.Scan(&session.ID, &session.Title, &session.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// Subscribe registers a listener for changes to the user's session list.
// Every change delivers the full newest-first list.
func (r *SessionRepository) Subscribe(userID string, onChange func([]*domain.ChatSession)) domain.Subscription {
	return r.notifier.subscribe(userID, onChange)
}

// Chat returns a chat's metadata record, or ErrNotFound
func (r *SessionRepository) Chat(ctx context.Context, chatID string) (*domain.ChatSession, error) {
	session := &domain.ChatSession{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, created_at FROM chats WHERE id = ?
	`, chatID).Scan(&session.ID, &session.Title, &session.CreatedAt)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

// Owns reports whether chatID appears in userID's session index
func (r *SessionRepository) Owns(ctx context.Context, userID, chatID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chat_sessions WHERE user_id = ? AND chat_id = ?
	`, userID, chatID).Scan(&count)
	return count > 0, err
}

func (r *SessionRepository) publish(ctx context.Context, userID string) {
	sessions, err := r.Sessions(ctx, userID)
	if err != nil {
		return
	}
	r.notifier.publish(userID, sessions)
}
