package domain

import "context"

// Subscription is a cancelable handle to a change listener. Cancel is
// idempotent; after it returns no further callbacks are delivered.
type Subscription interface {
	Cancel()
}

// MessageStore is the durable, append-only per-chat message log.
// Subscriptions deliver the entire current ordered log on every change,
// not deltas, and deliver to each subscriber in order.
type MessageStore interface {
	Append(ctx context.Context, chatID string, msg *Message) error
	Messages(ctx context.Context, chatID string) ([]*Message, error)
	Subscribe(chatID string, onChange func([]*Message)) Subscription
}

// SessionIndex is the per-user ordered list of chat sessions.
// CreateSession registers the session in the user's index and creates the
// chat's own metadata record as a single all-or-nothing write; listings
// and subscription snapshots are newest-first.
type SessionIndex interface {
	CreateSession(ctx context.Context, userID, title string) (*ChatSession, error)
	Sessions(ctx context.Context, userID string) ([]*ChatSession, error)
	Subscribe(userID string, onChange func([]*ChatSession)) Subscription
}

// ResponseProvider turns a prompt into a finite stream of text fragments.
// Fragments are delivered in order to a single consumer; the call returns
// nil after the last fragment or an error if the stream failed.
type ResponseProvider interface {
	Stream(ctx context.Context, prompt string, onFragment func(fragment string)) error
}
