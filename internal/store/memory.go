package store

import (
	"context"
	"sync"

	"autolead-bot/internal/models"
)

// MemoryStore is the default in-process store. Contexts are copied on the
// way in and out so callers never share mutable state.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[int64]*models.ConversationContext
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[int64]*models.ConversationContext),
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID int64) (*models.ConversationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[userID]
	if !ok {
		return nil, nil
	}
	return conversation.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, conversation *models.ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[conversation.UserID] = conversation.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, userID)
	return nil
}
