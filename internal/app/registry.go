package app

import (
	"context"
	"sync"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	RoomCode domain.RoomCode
	Session  core.MemberSession
	Cancel   context.CancelFunc
}

// Registry is the connection table: every live socket and the room it is in.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// BindSignal registers a fresh connection that is not in a room yet.
func (r *Registry) BindSignal(sess core.MemberSession, cancel context.CancelFunc) {
	sid := sess.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomCode, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomCode == "" {
		return "", nil, false
	}
	return entry.RoomCode, entry.Session, true
}

// EnterRoom associates sid with code unless it already sits in a room.
func (r *Registry) EnterRoom(sid core.SessionID, code domain.RoomCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return domain.ErrNotInRoom
	}
	if entry.RoomCode != "" {
		return domain.ErrAlreadyInRoom
	}
	entry.RoomCode = code
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(code)).Msg("entered room")
	return nil
}

// LeaveRoom clears the association, but only if sid is still in code.
func (r *Registry) LeaveRoom(sid core.SessionID, code domain.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sid]; ok && entry.RoomCode == code {
		entry.RoomCode = ""
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(code)).Msg("removed room association")
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel stops the connection's pumps; the adapter then disconnects it.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
