package signal

import (
	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
)

func (ctl *SignalWSController) handleSyncAction(sid core.SessionID, conn core.SignalConnection, data []byte) {
	var p protocol.SyncAction
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.reply(sid, conn, protocol.TypeSyncAction, ctl.Orch.SyncAction(sid, p.Action, p.Data))
}

func (ctl *SignalWSController) handleProvideSync(sid core.SessionID, conn core.SignalConnection, data []byte) {
	var p protocol.ProvideSync
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	if p.State == nil || p.RequesterConnectionID == "" {
		ctl.reply(sid, conn, protocol.TypeProvideSync, domain.ErrInvalidPayload)
		return
	}
	err := ctl.Orch.ProvideSync(sid, core.SessionID(p.RequesterConnectionID), *p.State)
	ctl.reply(sid, conn, protocol.TypeProvideSync, err)
}

func (ctl *SignalWSController) handleToggleLike(sid core.SessionID, conn core.SignalConnection, data []byte) {
	var p protocol.ToggleLike
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.reply(sid, conn, protocol.TypeToggleLike, ctl.Orch.ToggleLike(sid, p.TrackID, p.VoterID))
}
