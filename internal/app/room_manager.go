package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/rs/zerolog/log"
)

const maxCodeAttempts = 16

// RoomManagerImpl is the in-process room table. Code uniqueness is decided
// by the claimer, which may be shared with other instances.
type RoomManagerImpl struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomCode]core.RoomService
	codes    CodeClaimer
	generate CodeGenerator
}

func NewRoomManager(codes CodeClaimer, generate CodeGenerator) *RoomManagerImpl {
	return &RoomManagerImpl{
		rooms:    make(map[domain.RoomCode]core.RoomService),
		codes:    codes,
		generate: generate,
	}
}

func (f *RoomManagerImpl) Create(ctx context.Context, host core.MemberSession, hostName string) (core.RoomService, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := f.generate()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}

		f.mu.RLock()
		_, taken := f.rooms[code]
		f.mu.RUnlock()
		if taken {
			continue
		}

		ok, err := f.codes.Claim(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("claim room code: %w", err)
		}
		if !ok {
			log.Debug().Str("module", "app.rooms").Str("room", string(code)).Msg("code collision, regenerating")
			continue
		}

		room := core.NewRoomService(code, host, hostName)
		f.mu.Lock()
		f.rooms[code] = room
		f.mu.Unlock()
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("sid", string(host.ID())).Msg("room created")
		return room, nil
	}
	return nil, domain.ErrCodeSpaceFull
}

func (f *RoomManagerImpl) Lookup(code domain.RoomCode) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[code]
	return room, ok
}

// Remove drops the room from the table and releases its code. The caller
// is responsible for closing the returned room.
func (f *RoomManagerImpl) Remove(ctx context.Context, code domain.RoomCode) (core.RoomService, bool) {
	f.mu.Lock()
	room, ok := f.rooms[code]
	delete(f.rooms, code)
	f.mu.Unlock()
	if !ok {
		return nil, false
	}
	if err := f.codes.Release(ctx, code); err != nil {
		log.Warn().Err(err).Str("module", "app.rooms").Str("room", string(code)).Msg("release room code")
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("room removed")
	return room, true
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	rooms := make([]core.RoomService, 0, len(f.rooms))
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	f.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
