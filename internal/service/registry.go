package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/elevateai/elevate/internal/domain"
)

// Registry hands out one Controller per user, created on first use.
// Controllers share the store, index and provider.
type Registry struct {
	store    domain.MessageStore
	index    domain.SessionIndex
	provider domain.ResponseProvider
	logger   *zap.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry creates a controller registry
func NewRegistry(
	store domain.MessageStore,
	index domain.SessionIndex,
	provider domain.ResponseProvider,
	logger *zap.Logger,
) *Registry {
	return &Registry{
		store:       store,
		index:       index,
		provider:    provider,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

// Controller returns the user's controller, creating it if needed
func (r *Registry) Controller(userID string) (*Controller, error) {
	if userID == "" {
		return nil, domain.ErrNoIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[userID]; ok {
		return c, nil
	}

	c, err := NewController(userID, r.store, r.index, r.provider, r.logger)
	if err != nil {
		return nil, err
	}
	r.controllers[userID] = c
	return c, nil
}

// Close shuts down every controller
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.controllers {
		c.Close()
	}
	r.controllers = make(map[string]*Controller)
}
