package signal

import (
	"context"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleCreateRoom(ctx context.Context, sid core.SessionID, conn core.SignalConnection, data []byte) {
	var p protocol.CreateRoom
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	room, err := ctl.Orch.CreateRoom(ctx, sid, p.DisplayName)
	if err != nil {
		ctl.reply(sid, conn, protocol.TypeCreateRoom, err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room.Code())).Msg("create")
}

func (ctl *SignalWSController) handleJoinRoom(ctx context.Context, sid core.SessionID, conn core.SignalConnection, data []byte) {
	var p protocol.JoinRoom
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomCode).Msg("join")
	if _, err := ctl.Orch.JoinRoom(ctx, sid, p.RoomCode, p.DisplayName); err != nil {
		ctl.reply(sid, conn, protocol.TypeJoinRoom, err)
	}
}

// handleLeaveRoom leaves the current room; the connection itself stays open.
func (ctl *SignalWSController) handleLeaveRoom(ctx context.Context, sid core.SessionID, conn core.SignalConnection) {
	code, err := ctl.Orch.LeaveRoom(ctx, sid, protocol.ReasonHostLeft)
	if err != nil {
		ctl.reply(sid, conn, protocol.TypeLeaveRoom, err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("leave")
	ctl.sendJSON(conn, protocol.RoomLeft{Type: protocol.TypeRoomLeft, RoomCode: code})
}
