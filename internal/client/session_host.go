package client

import (
	"context"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
)

// hostAction mutates the mirror, runs the player effects and emits the
// resulting sync-action. Listeners get ErrNotHost and nothing changes.
func (s *Session) hostAction(ctx context.Context, fn func() (string, map[string]any, []func())) error {
	s.mu.Lock()
	if s.roomCode == "" {
		s.mu.Unlock()
		return ErrNoSession
	}
	if s.role != domain.RoleHost {
		s.mu.Unlock()
		return ErrNotHost
	}
	action, data, fx := fn()
	s.applying++
	s.mu.Unlock()

	for _, f := range fx {
		f()
	}

	s.mu.Lock()
	s.applying--
	s.mu.Unlock()

	return s.out.Send(ctx, map[string]any{
		"type":   protocol.TypeSyncAction,
		"action": action,
		"data":   data,
	})
}

func (s *Session) TogglePlay(ctx context.Context) error {
	pos := s.player.Position()
	return s.hostAction(ctx, func() (string, map[string]any, []func()) {
		s.state.IsPlaying = !s.state.IsPlaying
		s.state.PositionSeconds = pos
		return protocol.ActionPlayPause, map[string]any{
			"isPlaying":       s.state.IsPlaying,
			"positionSeconds": pos,
		}, s.playback()
	})
}

func (s *Session) Seek(ctx context.Context, pos float64) error {
	if pos < 0 {
		pos = 0
	}
	return s.hostAction(ctx, func() (string, map[string]any, []func()) {
		s.state.PositionSeconds = pos
		return protocol.ActionSeek, map[string]any{"positionSeconds": pos}, s.seekTo(pos)
	})
}

// SelectTrack switches to idx and starts it from the top.
func (s *Session) SelectTrack(ctx context.Context, idx int) error {
	if idx < 0 || idx >= len(s.catalog) {
		return domain.ErrInvalidPayload
	}
	return s.hostAction(ctx, func() (string, map[string]any, []func()) {
		s.state.TrackIndex = idx
		s.state.PositionSeconds = 0
		s.state.IsPlaying = true
		return protocol.ActionChangeTrack, map[string]any{
			"trackIndex":      idx,
			"trackId":         s.catalog[idx],
			"positionSeconds": 0,
			"isPlaying":       true,
		}, s.loadTrack(idx, 0)
	})
}

// Next moves to the most liked other track, or sequentially without likes.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	idx := PickNext(s.catalog, s.state.TrackIndex, s.likes)
	s.mu.Unlock()
	return s.SelectTrack(ctx, idx)
}

func (s *Session) Prev(ctx context.Context) error {
	s.mu.Lock()
	idx := PickPrev(s.catalog, s.state.TrackIndex)
	s.mu.Unlock()
	return s.SelectTrack(ctx, idx)
}

func (s *Session) ToggleLoop(ctx context.Context) error {
	return s.hostAction(ctx, func() (string, map[string]any, []func()) {
		s.state.IsLooping = !s.state.IsLooping
		return protocol.ActionToggleLoop, map[string]any{"isLooping": s.state.IsLooping}, s.playback()
	})
}

// TrackEnded is raised by the player at the end of the current track. A
// looping room restarts it, otherwise the host auto-advances.
func (s *Session) TrackEnded(ctx context.Context) error {
	s.mu.Lock()
	looping := s.state.IsLooping
	s.mu.Unlock()
	if looping {
		return s.Seek(ctx, 0)
	}
	return s.Next(ctx)
}

// PlayerToggled reports a play or pause raised by the media element
// itself. Echoes of remote updates and listener events are swallowed.
func (s *Session) PlayerToggled(ctx context.Context, playing bool) error {
	s.mu.Lock()
	skip := s.applying > 0 || s.role != domain.RoleHost || s.state.IsPlaying == playing
	s.mu.Unlock()
	if skip {
		return nil
	}
	return s.TogglePlay(ctx)
}
