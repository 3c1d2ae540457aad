package orch

import (
	"encoding/json"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/rs/zerolog/log"
)

// SetVideo flips the member's video presence.
func (o *Orchestrator) SetVideo(sid core.SessionID, on bool) error {
	room, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	res, err := room.SetVideo(sid, on)
	if err != nil {
		return err
	}
	o.settle(room, res)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Code())).Bool("video", on).Msg("video presence")
	return nil
}

// RelaySignal forwards an opaque negotiation payload to one room mate.
func (o *Orchestrator) RelaySignal(sid, to core.SessionID, payload json.RawMessage) error {
	if to == "" || len(payload) == 0 {
		return domain.ErrInvalidPayload
	}
	room, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	res, err := room.Relay(sid, to, payload)
	if err != nil {
		return err
	}
	o.settle(room, res)
	return nil
}
