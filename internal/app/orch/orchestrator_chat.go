package orch

import (
	"context"
	"fmt"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

// SendMessage persists a chat line and then broadcasts it to the whole room,
// sender included.
func (o *Orchestrator) SendMessage(ctx context.Context, sid core.SessionID, content string) error {
	room, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	member, ok := room.Member(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	sess, err := o.session(sid)
	if err != nil {
		return err
	}
	msg, err := domain.NewChatMessage(room.Code(), member.DisplayName, string(sess.User().ID), content)
	if err != nil {
		return err
	}
	if o.Chat != nil {
		if err := o.Chat.Append(ctx, msg); err != nil {
			return fmt.Errorf("%w: %w", ErrChatFailed, err)
		}
	}

	res := room.Broadcast("", protocol.Encode(protocol.MessageReceived{
		Type:    protocol.TypeMessageReceived,
		Message: *msg,
	}))
	o.settle(room, res)
	return nil
}

// History returns the most recent chat lines of a room, oldest first.
func (o *Orchestrator) History(ctx context.Context, code domain.RoomCode) ([]domain.ChatMessage, error) {
	if o.Chat == nil {
		return []domain.ChatMessage{}, nil
	}
	msgs, err := o.Chat.Recent(ctx, code, o.Options.ChatHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChatFailed, err)
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return msgs, nil
}

func (o *Orchestrator) sendHistory(ctx context.Context, room core.RoomService, sid core.SessionID) {
	msgs, err := o.History(ctx, room.Code())
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(room.Code())).Msg("chat history unavailable")
		return
	}
	o.settle(room, room.SendTo(sid, protocol.Encode(protocol.ChatHistory{
		Type:     protocol.TypeChatHistory,
		Messages: msgs,
	})))
}
