package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps record timestamps in memory. It backs tests and local
// development without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	supported map[Counter]bool
	records   map[Counter]map[uuid.UUID][]time.Time
}

// NewMemoryStore supports the given counters, or all known counters when none
// are given.
func NewMemoryStore(counters ...Counter) *MemoryStore {
	if len(counters) == 0 {
		counters = knownCounters
	}
	supported := make(map[Counter]bool, len(counters))
	for _, c := range counters {
		supported[c] = true
	}
	return &MemoryStore{
		supported: supported,
		records:   make(map[Counter]map[uuid.UUID][]time.Time),
	}
}

// Record stores one record of kind counter created by userID at the given time.
func (s *MemoryStore) Record(counter Counter, userID uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.records[counter]
	if !ok {
		byUser = make(map[uuid.UUID][]time.Time)
		s.records[counter] = byUser
	}
	byUser[userID] = append(byUser[userID], at)
}

func (s *MemoryStore) Count(ctx context.Context, counter Counter, userID uuid.UUID, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !s.supported[counter] {
		return 0, ErrCounterUnsupported
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, at := range s.records[counter][userID] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}
