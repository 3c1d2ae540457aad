package signal

import (
	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
)

func (ctl *SignalWSController) handlePing(conn core.SignalConnection) {
	ctl.sendJSON(conn, protocol.Pong{Type: protocol.TypePong})
}
