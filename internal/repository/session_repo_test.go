package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevateai/elevate/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "elevate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository_CreateSession(t *testing.T) {
	t.Parallel()

	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	session, err := repo.CreateSession(ctx, "user-1", "First chat - Mar 05, 2024")
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)

	t.Run("chat metadata record exists", func(t *testing.T) {
		chat, err := repo.Chat(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.Title, chat.Title)
	})

	t.Run("index entry exists", func(t *testing.T) {
		owns, err := repo.Owns(ctx, "user-1", session.ID)
		require.NoError(t, err)
		assert.True(t, owns)
	})

	t.Run("other users do not see it", func(t *testing.T) {
		owns, err := repo.Owns(ctx, "user-2", session.ID)
		require.NoError(t, err)
		assert.False(t, owns)

		sessions, err := repo.Sessions(ctx, "user-2")
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestSessionRepository_CreateSessionRequiresIdentity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewSessionRepository(db)

	_, err := repo.CreateSession(context.Background(), "", "orphan")
	require.ErrorIs(t, err, domain.ErrNoIdentity)

	// Nothing was written to either table
	var chats int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM chats`).Scan(&chats))
	assert.Zero(t, chats)
}

func TestSessionRepository_SessionsNewestFirst(t *testing.T) {
	t.Parallel()

	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.CreateSession(ctx, "user-1", "first")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := repo.CreateSession(ctx, "user-1", "second")
	require.NoError(t, err)

	sessions, err := repo.Sessions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)
}

func TestSessionRepository_Subscribe(t *testing.T) {
	t.Parallel()

	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	var mu sync.Mutex
	var snapshots [][]*domain.ChatSession
	sub := repo.Subscribe("user-1", func(sessions []*domain.ChatSession) {
		mu.Lock()
		snapshots = append(snapshots, sessions)
		mu.Unlock()
	})

	_, err := repo.CreateSession(ctx, "user-1", "one")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snapshots) == 1 && len(snapshots[0]) == 1
	}, time.Second, 10*time.Millisecond, "subscriber should get the full list")

	sub.Cancel()

	_, err = repo.CreateSession(ctx, "user-1", "two")
	require.NoError(t, err)

	// Canceled subscribers get nothing more
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, snapshots, 1)
}

func TestSessionRepository_ChatNotFound(t *testing.T) {
	t.Parallel()

	repo := NewSessionRepository(newTestDB(t))
	_, err := repo.Chat(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
