package orch

import (
	"context"
	"errors"

	"github.com/Ayush94-1708/music-glass/internal/app"
	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrChatFailed     = errors.New("chat store failed")
)

// ChatStore is the chat persistence collaborator.
type ChatStore interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	Recent(ctx context.Context, room domain.RoomCode, limit int) ([]domain.ChatMessage, error)
}

type Options struct {
	// ChatHistoryLimit caps the chat-history frame sent on join.
	ChatHistoryLimit int
	// ResetLikesOnPlay clears a track's likes once the host starts it.
	ResetLikesOnPlay bool
}

// Orchestrator runs the room operations on top of the connection registry
// and the room table. Handlers of one connection call it sequentially;
// different connections call it concurrently.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomRegistry
	Policy   app.Policy
	Chat     ChatStore
	Options  Options
}

func (o *Orchestrator) session(sid core.SessionID) (core.MemberSession, error) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

// roomOf resolves the live room sid is in.
func (o *Orchestrator) roomOf(sid core.SessionID) (core.RoomService, error) {
	code, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, domain.ErrNotInRoom
	}
	room, ok := o.Rooms.Lookup(code)
	if !ok {
		return nil, domain.ErrNotInRoom
	}
	return room, nil
}

// settle applies the backpressure policy to members a publish could not reach.
func (o *Orchestrator) settle(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("room", string(room.Code())).Str("sid", string(slow.ID())).Msg("kicking slow member")
			o.Registry.Cancel(slow.ID())
		case app.DropFrame:
			log.Warn().Str("module", "orch").Str("room", string(room.Code())).Str("sid", string(slow.ID())).Msg("frame dropped")
		case app.NoAction:
		}
	}
}

func (o *Orchestrator) publishMembers(room core.RoomService) core.PublishResult {
	return room.Broadcast("", protocol.Encode(protocol.MembersUpdate{
		Type:     protocol.TypeMembersUpdate,
		RoomCode: room.Code(),
		Members:  room.MembersSnapshot(),
	}))
}
