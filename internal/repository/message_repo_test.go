package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevateai/elevate/internal/domain"
)

func newChatForMessages(t *testing.T, db *DB) string {
	t.Helper()
	session, err := NewSessionRepository(db).CreateSession(context.Background(), "user-1", "chat")
	require.NoError(t, err)
	return session.ID
}

func TestMessageRepository_AppendOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewMessageRepository(db)
	chatID := newChatForMessages(t, db)
	ctx := context.Background()

	// Timestamps deliberately inverted: ordering must follow append
	// order, not the informational timestamp.
	earlier := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Append(ctx, chatID, &domain.Message{Sender: domain.SenderUser, Text: "first"}))
	require.NoError(t, repo.Append(ctx, chatID, &domain.Message{Sender: domain.SenderBot, Text: "second", Timestamp: earlier}))

	messages, err := repo.Messages(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
}

func TestMessageRepository_StreamingFlagNotPersisted(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewMessageRepository(db)
	chatID := newChatForMessages(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, chatID, &domain.Message{
		Sender:    domain.SenderBot,
		Text:      "done",
		Streaming: true,
	}))

	messages, err := repo.Messages(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.False(t, messages[0].Streaming)
}

func TestMessageRepository_Subscribe(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewMessageRepository(db)
	chatID := newChatForMessages(t, db)
	otherID := newChatForMessages(t, db)
	ctx := context.Background()

	var mu sync.Mutex
	var snapshots [][]*domain.Message
	sub := repo.Subscribe(chatID, func(messages []*domain.Message) {
		mu.Lock()
		snapshots = append(snapshots, messages)
		mu.Unlock()
	})
	defer sub.Cancel()

	require.NoError(t, repo.Append(ctx, chatID, &domain.Message{Sender: domain.SenderUser, Text: "a"}))
	require.NoError(t, repo.Append(ctx, chatID, &domain.Message{Sender: domain.SenderUser, Text: "b"}))
	require.NoError(t, repo.Append(ctx, otherID, &domain.Message{Sender: domain.SenderUser, Text: "noise"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snapshots) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	// Full snapshots in publish order, not deltas
	require.Len(t, snapshots[0], 1)
	require.Len(t, snapshots[1], 2)
	assert.Equal(t, "a", snapshots[1][0].Text)
	assert.Equal(t, "b", snapshots[1][1].Text)

	// No cross-chat delivery
	for _, snapshot := range snapshots {
		for _, msg := range snapshot {
			assert.Equal(t, chatID, msg.ChatID)
		}
	}
}
