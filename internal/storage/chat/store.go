// Package chat persists room chat messages.
package chat

import (
	"context"
	"fmt"

	"github.com/Ayush94-1708/music-glass/internal/domain"
)

// Store appends messages and returns a room's recent history oldest first.
type Store interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	Recent(ctx context.Context, room domain.RoomCode, limit int) ([]domain.ChatMessage, error)
	Close() error
}

// Open picks a store implementation by driver name.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	case "sqlite":
		return NewSQLiteStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown chat driver %q", driver)
	}
}
