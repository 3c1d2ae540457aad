package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

func displayName(sess core.MemberSession, requested string) (string, error) {
	name, err := sess.User().DisplayName(requested)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
	}
	return name, nil
}

// CreateRoom opens a room with sid as its host.
func (o *Orchestrator) CreateRoom(ctx context.Context, sid core.SessionID, requestedName string) (core.RoomService, error) {
	sess, err := o.session(sid)
	if err != nil {
		return nil, err
	}
	if _, _, ok := o.Registry.RoomOf(sid); ok {
		return nil, domain.ErrAlreadyInRoom
	}
	name, err := displayName(sess, requestedName)
	if err != nil {
		return nil, err
	}

	room, err := o.Rooms.Create(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	if err := o.Registry.EnterRoom(sid, room.Code()); err != nil {
		o.Rooms.Remove(ctx, room.Code())
		room.Close(protocol.ReasonHostLeft)
		return nil, err
	}

	res := room.SendTo(sid, protocol.Encode(protocol.RoomCreated{
		Type:         protocol.TypeRoomCreated,
		RoomCode:     room.Code(),
		Role:         domain.RoleHost,
		ConnectionID: string(sid),
	}))
	res.Add(o.publishMembers(room))
	o.settle(room, res)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Code())).Msg("room created")
	return room, nil
}

// JoinRoom adds sid to an existing room as a listener and sends it the
// recent chat history.
func (o *Orchestrator) JoinRoom(ctx context.Context, sid core.SessionID, rawCode, requestedName string) (core.RoomService, error) {
	sess, err := o.session(sid)
	if err != nil {
		return nil, err
	}
	code := domain.NormalizeRoomCode(rawCode)
	if code == "" {
		return nil, domain.ErrInvalidPayload
	}
	name, err := displayName(sess, requestedName)
	if err != nil {
		return nil, err
	}
	room, ok := o.Rooms.Lookup(code)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	// The association goes first so a concurrent close always finds it.
	if err := o.Registry.EnterRoom(sid, code); err != nil {
		return nil, err
	}
	res, err := room.Join(sess, name)
	if err != nil {
		o.Registry.LeaveRoom(sid, code)
		return nil, err
	}
	o.settle(room, res)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("joined room")

	o.sendHistory(ctx, room, sid)
	return room, nil
}

// LeaveRoom takes sid out of its room. A leaving host closes the room for
// everybody with the given reason.
func (o *Orchestrator) LeaveRoom(ctx context.Context, sid core.SessionID, reason string) (domain.RoomCode, error) {
	code, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return "", domain.ErrNotInRoom
	}
	room, ok := o.Rooms.Lookup(code)
	if !ok {
		o.Registry.LeaveRoom(sid, code)
		return code, nil
	}

	if room.HostID() == sid {
		o.closeRoom(ctx, room, reason)
		return code, nil
	}

	res, err := room.Leave(sid)
	o.Registry.LeaveRoom(sid, code)
	if err != nil && !errors.Is(err, domain.ErrNotInRoom) {
		return code, err
	}
	o.settle(room, res)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("left room")
	return code, nil
}

// OnDisconnect is the only cancellation signal: membership is cleaned up
// right away, with no grace period.
func (o *Orchestrator) OnDisconnect(ctx context.Context, sid core.SessionID) {
	if _, err := o.LeaveRoom(ctx, sid, protocol.ReasonHostDisconnected); err != nil && !errors.Is(err, domain.ErrNotInRoom) {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("leave on disconnect")
	}
	o.Registry.Unbind(sid)
}

func (o *Orchestrator) closeRoom(ctx context.Context, room core.RoomService, reason string) {
	code := room.Code()
	o.Rooms.Remove(ctx, code)
	listeners, res := room.Close(reason)
	for _, l := range listeners {
		o.Registry.LeaveRoom(l.ID(), code)
	}
	o.Registry.LeaveRoom(room.HostID(), code)
	o.settle(room, res)
	log.Info().Str("module", "orch").Str("room", string(code)).Str("reason", reason).Msg("room destroyed")
}
