package model

import (
	"context"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// QAEntry is one answered question inside a structured conversation block,
// as supplied by an external chat product.
type QAEntry struct {
	ID        string    `json:"id,omitempty"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// HistoryEntry is one turn of a conversation. Two shapes round-trip through
// the wire format: a flat role-tagged message (Role/Content set) or a
// structured Q&A block (Conversation set). Entries are append-only; the
// service never mutates an entry after it has been appended.
type HistoryEntry struct {
	Role         string    `json:"role,omitempty"`
	Content      string    `json:"content,omitempty"`
	Timestamp    time.Time `json:"timestamp,omitzero"`
	Conversation []QAEntry `json:"conversation,omitempty"`
}

// UserEntry builds a flat user turn stamped with the current time.
func UserEntry(content string) HistoryEntry {
	return HistoryEntry{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// AssistantEntry builds a flat assistant turn stamped with the current time.
func AssistantEntry(content string) HistoryEntry {
	return HistoryEntry{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// ConversationRepository persists conversation history per session. The
// workflow core stays stateless; the repository only lets a caller resume a
// session by id when it sends an empty history.
type ConversationRepository interface {
	// AppendEntries appends entries to the session's history.
	AppendEntries(ctx context.Context, sessionID string, entries ...HistoryEntry) error

	// LoadHistory retrieves the history for a session. A missing session
	// yields an empty slice, not an error.
	LoadHistory(ctx context.Context, sessionID string) ([]HistoryEntry, error)

	// ClearHistory removes all history for a session.
	ClearHistory(ctx context.Context, sessionID string) error

	// EntryCount returns the number of stored entries for a session.
	EntryCount(ctx context.Context, sessionID string) (int, error)
}
