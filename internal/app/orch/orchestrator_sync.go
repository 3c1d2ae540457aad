package orch

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

// SyncAction applies a host transport action and mirrors it to the room.
// Actions from anyone but the host are dropped and reported as ErrNotHost.
func (o *Orchestrator) SyncAction(sid core.SessionID, action string, data json.RawMessage) error {
	room, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	_, res, err := room.ApplyHostAction(sid, action, data)
	if errors.Is(err, domain.ErrNotHost) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Code())).Str("action", action).Msg("dropped listener sync action")
		return err
	}
	if err != nil {
		return err
	}
	o.settle(room, res)

	if action == protocol.ActionChangeTrack && o.Options.ResetLikesOnPlay {
		if trackID := playedTrackID(data); trackID != "" {
			o.settle(room, room.ResetLikes(trackID))
		}
	}
	return nil
}

func playedTrackID(data json.RawMessage) string {
	var v struct {
		TrackID string `json:"trackId"`
	}
	if json.Unmarshal(data, &v) != nil {
		return ""
	}
	return strings.TrimSpace(v.TrackID)
}

// ProvideSync forwards the host's live snapshot to the listener that asked.
func (o *Orchestrator) ProvideSync(sid, requester core.SessionID, state domain.TransportState) error {
	room, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	if state.TrackIndex < 0 || state.PositionSeconds < 0 {
		return domain.ErrInvalidPayload
	}
	res, err := room.ProvideSync(sid, requester, state)
	if err != nil {
		return err
	}
	o.settle(room, res)
	return nil
}

// ToggleLike flips a vote. The voter defaults to the calling connection.
func (o *Orchestrator) ToggleLike(sid core.SessionID, trackID, voterID string) error {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return domain.ErrInvalidPayload
	}
	if voterID == "" {
		voterID = string(sid)
	}
	room, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	liked, res := room.ToggleLike(trackID, voterID)
	o.settle(room, res)
	log.Debug().Str("module", "orch").Str("room", string(room.Code())).Str("track", trackID).Bool("liked", liked).Msg("like toggled")
	return nil
}
