package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/elevateai/elevate/internal/domain"
)

// Controller owns one user's chat state: which chat is active, the
// in-flight streaming placeholder, and the continuously updated session
// and message lists sourced from the index and store subscriptions.
//
// All state transitions are serialized under a single mutex; store and
// index callbacks arrive on their own goroutines and each take the lock
// before touching state, so transitions apply one at a time. The
// controller is the only writer of activeChatID and the placeholder.
type Controller struct {
	userID   string
	store    domain.MessageStore
	index    domain.SessionIndex
	provider domain.ResponseProvider
	logger   *zap.Logger

	hub *watcherHub

	mu           sync.Mutex
	activeChatID string
	epoch        uint64
	msgSub       domain.Subscription
	sessionSub   domain.Subscription
	sessions     []*domain.ChatSession
	messages     []*domain.Message
	streaming    *domain.Message
	streamChatID string
	inFlight     bool
	closed       bool
}

// NewController creates a controller bound to one user and loads the
// user's session list.
func NewController(
	userID string,
	store domain.MessageStore,
	index domain.SessionIndex,
	provider domain.ResponseProvider,
	logger *zap.Logger,
) (*Controller, error) {
	if userID == "" {
		return nil, domain.ErrNoIdentity
	}

	c := &Controller{
		userID:   userID,
		store:    store,
		index:    index,
		provider: provider,
		logger:   logger,
		hub:      newWatcherHub(),
	}

	sessions, err := index.Sessions(context.Background(), userID)
	if err != nil {
		return nil, err
	}
	c.sessions = sessions
	c.sessionSub = index.Subscribe(userID, c.onSessions)

	return c, nil
}

// Subscribe attaches a listener and immediately queues the current view
func (c *Controller) Subscribe(l Listener) domain.Subscription {
	c.mu.Lock()
	w := c.hub.add(l)
	view := c.viewLocked()
	c.hub.broadcastTo(w, event{view: &view})
	c.mu.Unlock()

	return w
}

// SelectChat makes chatID the active chat. An empty id deactivates the
// current chat (welcome state). Selecting the already-active chat is a
// no-op: no resubscription, no view churn. The previous chat's message
// subscription is dropped before the new one is taken, so a stale chat
// can never deliver into the current view.
func (c *Controller) SelectChat(ctx context.Context, chatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chatID == c.activeChatID {
		return nil
	}
	if chatID != "" && !c.ownsLocked(chatID) {
		return domain.ErrNotFound
	}

	c.activateLocked(ctx, chatID)
	c.publishLocked()
	return nil
}

// NewChat deactivates the current chat so the next SendPrompt starts a
// fresh session. Existing sessions are untouched.
func (c *Controller) NewChat(ctx context.Context) error {
	return c.SelectChat(ctx, "")
}

// SendPrompt runs one full user turn: resolve (or create) the active
// session, persist the user message, then stream the response into the
// placeholder on a background goroutine. It returns once the turn is
// scheduled; progress is visible through subscribed listeners.
//
// The user message is persisted before the provider is invoked, so it
// survives a provider failure. A blank prompt and a send while another
// stream is in flight are rejected with no side effects.
func (c *Controller) SendPrompt(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		c.notice(domain.NoticeBlankPrompt, "message is empty")
		return domain.ErrBlankPrompt
	}

	c.mu.Lock()

	if c.inFlight {
		c.mu.Unlock()
		c.notice(domain.NoticeStreamInFlight, "wait for the current response to finish")
		return domain.ErrStreamInFlight
	}

	chatID := c.activeChatID
	if chatID == "" {
		session, err := c.index.CreateSession(ctx, c.userID, domain.DeriveTitle(text, time.Now()))
		if err != nil {
			c.mu.Unlock()
			c.logger.Error("failed to create chat session", zap.Error(err))
			c.notice(domain.NoticePersistence, "could not start a new chat")
			return err
		}
		c.activateLocked(ctx, session.ID)
		chatID = session.ID
	}

	userMsg := &domain.Message{Sender: domain.SenderUser, Text: text, Timestamp: time.Now()}
	if err := c.store.Append(ctx, chatID, userMsg); err != nil {
		c.mu.Unlock()
		c.logger.Error("failed to persist user message", zap.Error(err), zap.String("chat_id", chatID))
		c.notice(domain.NoticePersistence, "could not save your message")
		return err
	}
	// Mirror the append locally; the store's async snapshot carries the
	// same row and overwrites this idempotently.
	c.messages = append(c.messages, userMsg)

	c.inFlight = true
	c.streamChatID = chatID
	c.streaming = &domain.Message{
		ChatID:    chatID,
		Sender:    domain.SenderBot,
		Timestamp: time.Now(),
		Streaming: true,
	}
	c.publishLocked()
	c.mu.Unlock()

	go c.consumeStream(chatID, text)
	return nil
}

// MergedView returns the presentation sequence: the active chat's
// persisted messages followed by the streaming placeholder when one is
// live for that chat.
func (c *Controller) MergedView() []*domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mergedLocked()
}

// View returns the full current state snapshot
func (c *Controller) View() domain.ChatView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close drops all subscriptions. In-flight streams finish and persist.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.msgSub != nil {
		c.msgSub.Cancel()
		c.msgSub = nil
	}
	if c.sessionSub != nil {
		c.sessionSub.Cancel()
		c.sessionSub = nil
	}
}

// consumeStream reads the provider's fragments into an accumulator,
// keeping the placeholder at the full text-so-far, then settles the
// turn. It deliberately ignores active-chat switches: a stream started
// for a chat persists to that chat even if the user has moved on, so
// generated content is never dropped. Only placeholder visibility is
// gated on the chat still being active.
func (c *Controller) consumeStream(chatID, prompt string) {
	var acc strings.Builder

	err := c.provider.Stream(context.Background(), prompt, func(fragment string) {
		c.mu.Lock()
		acc.WriteString(fragment)
		if c.streaming != nil {
			next := *c.streaming
			next.Text = acc.String()
			c.streaming = &next
		}
		c.publishLocked()
		c.mu.Unlock()
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// Partial output is discarded; the user's message stays
		// persisted so the prompt can simply be sent again.
		c.logger.Warn("response stream failed", zap.Error(err), zap.String("chat_id", chatID))
		c.settleLocked()
		c.noticeLocked(domain.NoticeStream, "the assistant could not finish its reply")
		c.publishLocked()
		return
	}

	final := &domain.Message{
		Sender:    domain.SenderBot,
		Text:      acc.String(),
		Timestamp: time.Now(),
	}
	if err := c.store.Append(context.Background(), chatID, final); err != nil {
		c.logger.Error("failed to persist response", zap.Error(err), zap.String("chat_id", chatID))
		c.settleLocked()
		c.noticeLocked(domain.NoticePersistence, "could not save the assistant's reply")
		c.publishLocked()
		return
	}
	if chatID == c.activeChatID {
		c.messages = append(c.messages, final)
	}
	// Persisted copy and placeholder swap in one transition, so
	// observers go straight from placeholder text to identical
	// persisted text.
	c.settleLocked()
	c.publishLocked()
}

// activateLocked switches the active chat and its message subscription.
// Caller holds c.mu and has validated ownership.
func (c *Controller) activateLocked(ctx context.Context, chatID string) {
	c.epoch++
	if c.msgSub != nil {
		c.msgSub.Cancel()
		c.msgSub = nil
	}
	c.activeChatID = chatID
	c.messages = nil

	if chatID == "" {
		return
	}

	epoch := c.epoch
	c.msgSub = c.store.Subscribe(chatID, func(messages []*domain.Message) {
		c.onMessages(epoch, messages)
	})
	if messages, err := c.store.Messages(ctx, chatID); err == nil {
		c.messages = messages
	} else {
		c.logger.Error("failed to load messages", zap.Error(err), zap.String("chat_id", chatID))
	}
}

// onMessages handles a store snapshot. The epoch guard drops deliveries
// from a subscription that was current when queued but has since been
// replaced by a chat switch. The log is append-only, so a snapshot
// shorter than the current view is stale and dropped too; without this
// a late snapshot could briefly hide a locally mirrored append.
func (c *Controller) onMessages(epoch uint64, messages []*domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	if len(messages) < len(c.messages) {
		return
	}
	c.messages = messages
	c.publishLocked()
}

func (c *Controller) onSessions(sessions []*domain.ChatSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = sessions
	c.publishLocked()
}

func (c *Controller) settleLocked() {
	c.streaming = nil
	c.streamChatID = ""
	c.inFlight = false
}

func (c *Controller) ownsLocked(chatID string) bool {
	for _, s := range c.sessions {
		if s.ID == chatID {
			return true
		}
	}
	return false
}

func (c *Controller) mergedLocked() []*domain.Message {
	merged := make([]*domain.Message, len(c.messages), len(c.messages)+1)
	copy(merged, c.messages)
	if c.streaming != nil && c.streamChatID == c.activeChatID {
		merged = append(merged, c.streaming)
	}
	return merged
}

func (c *Controller) viewLocked() domain.ChatView {
	sessions := make([]*domain.ChatSession, len(c.sessions))
	copy(sessions, c.sessions)
	return domain.ChatView{
		ActiveChatID: c.activeChatID,
		Sessions:     sessions,
		Messages:     c.mergedLocked(),
	}
}

func (c *Controller) publishLocked() {
	view := c.viewLocked()
	c.hub.broadcast(event{view: &view})
}

func (c *Controller) notice(code, message string) {
	c.hub.broadcast(event{notice: &domain.Notice{Code: code, Message: message}})
}

func (c *Controller) noticeLocked(code, message string) {
	// broadcast only queues; safe under c.mu
	c.notice(code, message)
}
