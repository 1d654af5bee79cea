package repo

import (
	"context"
	"sync"

	"github.com/deckdraft-core/server/internal/agent/model"
)

// MemoryConversationRepository keeps session history in process memory. It is
// the repository used when no Redis URL is configured, and in tests.
type MemoryConversationRepository struct {
	mu       sync.RWMutex
	sessions map[string][]model.HistoryEntry
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{sessions: make(map[string][]model.HistoryEntry)}
}

func (r *MemoryConversationRepository) AppendEntries(_ context.Context, sessionID string, entries ...model.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = append(r.sessions[sessionID], entries...)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, sessionID string) ([]model.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.sessions[sessionID]
	out := make([]model.HistoryEntry, len(stored))
	copy(out, stored)
	return out, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemoryConversationRepository) EntryCount(_ context.Context, sessionID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[sessionID]), nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
