package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elevateai/elevate/internal/domain"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(newFakeStore(), newFakeIndex(), newScriptProvider(), zap.NewNop())
	t.Cleanup(registry.Close)

	t.Run("same user gets the same controller", func(t *testing.T) {
		a, err := registry.Controller("user-1")
		require.NoError(t, err)
		b, err := registry.Controller("user-1")
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("different users are isolated", func(t *testing.T) {
		a, err := registry.Controller("user-1")
		require.NoError(t, err)
		b, err := registry.Controller("user-2")
		require.NoError(t, err)
		assert.NotSame(t, a, b)
	})

	t.Run("no identity, no controller", func(t *testing.T) {
		_, err := registry.Controller("")
		assert.ErrorIs(t, err, domain.ErrNoIdentity)
	})
}
