package signal

import (
	"context"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
)

func (ctl *SignalWSController) handleVideo(sid core.SessionID, conn core.SignalConnection, on bool) {
	op := protocol.TypeLeaveVideo
	if on {
		op = protocol.TypeJoinVideo
	}
	ctl.reply(sid, conn, op, ctl.Orch.SetVideo(sid, on))
}

// handleRelay forwards the payload untouched; its content is never read.
func (ctl *SignalWSController) handleRelay(sid core.SessionID, conn core.SignalConnection, data []byte) {
	var p protocol.Signal
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.reply(sid, conn, protocol.TypeSignal, ctl.Orch.RelaySignal(sid, core.SessionID(p.To), p.Payload))
}

func (ctl *SignalWSController) handleSendMessage(ctx context.Context, sid core.SessionID, conn core.SignalConnection, data []byte) {
	var p protocol.SendMessage
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.reply(sid, conn, protocol.TypeSendMessage, ctl.Orch.SendMessage(ctx, sid, p.Content))
}
