package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uuid.UUID]Subscription)}
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (s *MemoryStore) GetByProviderID(_ context.Context, providerSubscriptionID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if providerSubscriptionID != "" && sub.ProviderSubscriptionID == providerSubscriptionID {
			return &sub, nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

func (s *MemoryStore) Save(_ context.Context, sub *Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.subs[sub.UserID]; ok && sub.CreatedAt.IsZero() {
		sub.CreatedAt = prev.CreatedAt
	}
	s.subs[sub.UserID] = *sub
	return nil
}
