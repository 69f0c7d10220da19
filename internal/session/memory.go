package session

import (
	"context"
	"sync"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
)

// MemoryStore implements Store with an in-process map. It is the default
// driver when no Redis address is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	maxTurns int
	history  map[string][]models.Turn
}

// NewMemoryStore creates an in-memory history store capped at maxTurns
// per conversation.
func NewMemoryStore(maxTurns int) *MemoryStore {
	return &MemoryStore{
		maxTurns: maxTurns,
		history:  make(map[string][]models.Turn),
	}
}

// History implements Store.
func (s *MemoryStore) History(ctx context.Context, conversationID string) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CopyTurns(s.history[conversationID]), nil
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, conversationID string, turns ...models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	combined := append(s.history[conversationID], models.CopyTurns(turns)...)
	s.history[conversationID] = Trim(combined, s.maxTurns)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, conversationID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
