package domain

import (
	"time"
	"unicode/utf8"
)

// Message sender values
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatSession is one entry in a user's chat history list
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message represents a single message within a chat.
// Streaming is set only on the ephemeral placeholder held in memory while
// a response is being generated; persisted messages always carry false.
type Message struct {
	ID        string    `json:"id,omitempty"`
	ChatID    string    `json:"chat_id,omitempty"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Streaming bool      `json:"streaming,omitempty"`
}

// ChatView is the state snapshot delivered to presentation consumers:
// the session list, the active chat id ("" means welcome state) and the
// merged message sequence (persisted history plus the streaming
// placeholder, in that order).
type ChatView struct {
	ActiveChatID string         `json:"active_chat_id"`
	Sessions     []*ChatSession `json:"sessions"`
	Messages     []*Message     `json:"messages"`
}

// Notice is a transient, non-fatal signal surfaced to the user
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Notice codes
const (
	NoticeBlankPrompt    = "blank_prompt"
	NoticeStreamInFlight = "stream_in_flight"
	NoticePersistence    = "persistence_failed"
	NoticeStream         = "stream_failed"
)

// SendRequest is the request to send a prompt to the active chat
type SendRequest struct {
	Message string `json:"message" binding:"required"`
}

// SelectRequest is the request to switch the active chat.
// An empty chat_id deactivates the current chat (welcome state).
type SelectRequest struct {
	ChatID string `json:"chat_id"`
}

// titleMaxRunes is how much of the first prompt survives into the title
const titleMaxRunes = 30

// titleDateLayout matches the human-readable date appended to titles
const titleDateLayout = "Jan 02, 2006"

// DeriveTitle builds a session title from the first prompt and the
// creation time: the prompt truncated to 30 runes, a separator and a
// human-readable date. Titles are informational only; id is the key.
func DeriveTitle(prompt string, now time.Time) string {
	head := prompt
	if utf8.RuneCountInString(head) > titleMaxRunes {
		runes := []rune(head)
		head = string(runes[:titleMaxRunes])
	}
	return head + " - " + now.Format(titleDateLayout)
}
