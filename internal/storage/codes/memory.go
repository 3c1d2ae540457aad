// Package codes keeps track of which room codes are taken.
package codes

import (
	"context"
	"sync"

	"github.com/Ayush94-1708/music-glass/internal/domain"
)

// MemoryStore claims codes inside one process.
type MemoryStore struct {
	mu    sync.Mutex
	taken map[domain.RoomCode]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{taken: make(map[domain.RoomCode]struct{})}
}

func (s *MemoryStore) Claim(_ context.Context, code domain.RoomCode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.taken[code]; ok {
		return false, nil
	}
	s.taken[code] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, code domain.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.taken, code)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
