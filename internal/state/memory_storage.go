package state

import (
	"context"
	"sync"
)

// MemoryStorage keeps conversations in process memory. They are lost on restart.
type MemoryStorage struct {
	mu            sync.RWMutex
	conversations map[int64]*Conversation
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{conversations: make(map[int64]*Conversation)}
}

func (s *MemoryStorage) Get(_ context.Context, userID int64) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[userID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return conv.clone(), nil
}

func (s *MemoryStorage) Save(_ context.Context, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[conv.UserID] = conv.clone()
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, userID)
	return nil
}

func (s *MemoryStorage) List(_ context.Context) ([]*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		result = append(result, conv.clone())
	}
	return result, nil
}
