package client

import (
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (s *Session) onRoomCreated(raw []byte) {
	msg, ok := decode[protocol.RoomCreated](raw)
	if !ok {
		return
	}
	s.enter(msg.RoomCode, msg.Role, msg.ConnectionID)
}

func (s *Session) onRoomJoined(raw []byte) {
	msg, ok := decode[protocol.RoomJoined](raw)
	if !ok {
		return
	}
	s.enter(msg.RoomCode, msg.Role, msg.ConnectionID)
}

// enter starts a fresh mirror. The host owns the state and loads the first
// track right away; a listener waits for sync-state.
func (s *Session) enter(code domain.RoomCode, role domain.Role, self string) {
	if s.mesh != nil {
		s.mesh.SetSelf(self)
	}
	s.apply(func() []func() {
		s.reset()
		s.roomCode = code
		s.role = role
		s.self = self
		s.lastErr = nil
		if role != domain.RoleHost {
			return nil
		}
		return s.loadTrack(0, 0)
	})
}

func (s *Session) onMembers(raw []byte) {
	msg, ok := decode[protocol.MembersUpdate](raw)
	if !ok {
		return
	}
	s.mu.Lock()
	s.members = msg.Members
	s.mu.Unlock()
}

// onRequestSync answers on behalf of the host with the live position.
func (s *Session) onRequestSync(raw []byte) {
	msg, ok := decode[protocol.RequestSync](raw)
	if !ok {
		return
	}
	pos := s.player.Position()

	s.mu.Lock()
	if s.role != domain.RoleHost {
		s.mu.Unlock()
		return
	}
	state := s.state
	state.PositionSeconds = pos
	s.mu.Unlock()

	ctx, cancel := s.sendContext()
	defer cancel()
	err := s.out.Send(ctx, map[string]any{
		"type":                  protocol.TypeProvideSync,
		"requesterConnectionId": msg.RequesterConnectionID,
		"state":                 state,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "client").Msg("provide-sync")
	}
}

// onSyncState applies a full snapshot, usually the late-join resync.
func (s *Session) onSyncState(raw []byte) {
	msg, ok := decode[protocol.SyncState](raw)
	if !ok {
		return
	}
	s.apply(func() []func() {
		s.state = msg.State
		var fx []func()
		if s.requested != msg.State.TrackIndex {
			fx = s.loadTrack(msg.State.TrackIndex, msg.State.PositionSeconds)
		} else {
			fx = s.seekTo(msg.State.PositionSeconds)
		}
		return append(fx, s.playback()...)
	})
}

func (s *Session) onSyncAction(raw []byte) {
	msg, ok := decode[protocol.SyncAction](raw)
	if !ok {
		return
	}
	data, err := protocol.DecodeData(msg.Data)
	if err != nil {
		log.Warn().Err(err).Str("module", "client").Str("action", msg.Action).Msg("bad sync data")
		return
	}
	s.apply(func() []func() {
		s.state = s.state.Merge(data)
		var fx []func()
		switch msg.Action {
		case protocol.ActionChangeTrack:
			// same rule the room applies: a new track plays, from the top
			// unless a position came along
			s.state.IsPlaying = true
			if _, ok := data["positionSeconds"]; !ok {
				s.state.PositionSeconds = 0
			}
			if _, ok := data["trackIndex"]; ok {
				fx = s.loadTrack(s.state.TrackIndex, s.state.PositionSeconds)
			} else {
				fx = s.seekTo(s.state.PositionSeconds)
			}
		case protocol.ActionSeek:
			fx = s.seekTo(s.state.PositionSeconds)
		case protocol.ActionPlayPause:
			if _, ok := data["positionSeconds"]; ok {
				fx = s.seekTo(s.state.PositionSeconds)
			}
		}
		return append(fx, s.playback()...)
	})
}

func (s *Session) onLikes(raw []byte) {
	msg, ok := decode[protocol.LikesUpdate](raw)
	if !ok {
		return
	}
	s.mu.Lock()
	if msg.Likes == nil {
		msg.Likes = domain.Likes{}
	}
	s.likes = msg.Likes
	s.mu.Unlock()
}

// onEnded handles both room-closed and room-left.
func (s *Session) onEnded([]byte) {
	if s.mesh != nil {
		s.mesh.Disable()
	}
	s.apply(s.reset)
}

func (s *Session) onUserJoinedVideo(raw []byte) {
	msg, ok := decode[protocol.VideoPresence](raw)
	if !ok || s.mesh == nil {
		return
	}
	if err := s.mesh.OnPeerJoinedVideo(msg.ConnectionID); err != nil {
		log.Warn().Err(err).Str("module", "client").Str("remote", msg.ConnectionID).Msg("dial peer")
	}
}

func (s *Session) onUserLeftVideo(raw []byte) {
	msg, ok := decode[protocol.VideoPresence](raw)
	if !ok || s.mesh == nil {
		return
	}
	s.mesh.OnPeerLeftVideo(msg.ConnectionID)
}

func (s *Session) onSignal(raw []byte) {
	msg, ok := decode[protocol.Signal](raw)
	if !ok || s.mesh == nil {
		return
	}
	if err := s.mesh.HandleSignal(msg.From, msg.Payload); err != nil {
		log.Warn().Err(err).Str("module", "client").Str("from", msg.From).Msg("signal")
	}
}

func (s *Session) onError(raw []byte) {
	msg, ok := decode[protocol.Error](raw)
	if !ok {
		return
	}
	s.mu.Lock()
	s.lastErr = &msg
	s.mu.Unlock()
	log.Debug().Str("module", "client").Str("code", msg.Code).Msg(msg.Error)
}
