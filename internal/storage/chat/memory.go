package chat

import (
	"context"
	"sync"

	"github.com/Ayush94-1708/music-glass/internal/domain"
)

// MemoryStore keeps at most perRoom messages for each room.
type MemoryStore struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomCode][]domain.ChatMessage
	perRoom int
}

const defaultPerRoom = 500

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[domain.RoomCode][]domain.ChatMessage),
		perRoom: defaultPerRoom,
	}
}

func (s *MemoryStore) Append(_ context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.rooms[msg.RoomCode], *msg)
	if len(msgs) > s.perRoom {
		msgs = msgs[len(msgs)-s.perRoom:]
	}
	s.rooms[msg.RoomCode] = msgs
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, room domain.RoomCode, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.rooms[room]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
