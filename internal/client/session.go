package client

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotHost   = errors.New("only the host controls playback")
	ErrNoSession = errors.New("not in a room")
)

// Player is the local media element.
type Player interface {
	// Load starts loading a track. The player reports completion through
	// Session.OnMediaLoaded.
	Load(trackIndex int)
	Seek(positionSeconds float64)
	Play()
	Pause()
	SetLoop(on bool)
	Position() float64
}

// Session mirrors one room on the client. Inbound frames and local host
// actions both go through it; player side effects run outside the lock.
type Session struct {
	mu      sync.Mutex
	out     Sender
	player  Player
	catalog []string
	mesh    *Mesh

	self     string
	roomCode domain.RoomCode
	role     domain.Role
	members  []protocol.Member
	likes    domain.Likes
	state    domain.TransportState
	lastErr  *protocol.Error

	requested   int
	loaded      int
	pendingSeek *float64

	// applying counts remote updates being pushed into the player. Player
	// events raised meanwhile are echoes and must not be emitted again.
	applying int

	sendTimeout time.Duration
}

// NewSession builds a session over the given catalog of track ids. mesh
// may be nil when the client does not do video; a mesh built without a
// sender relays through this session.
func NewSession(out Sender, player Player, catalog []string, mesh *Mesh) *Session {
	s := &Session{
		out:         out,
		player:      player,
		catalog:     slices.Clone(catalog),
		mesh:        mesh,
		likes:       domain.Likes{},
		requested:   -1,
		loaded:      -1,
		sendTimeout: 5 * time.Second,
	}
	if mesh != nil && mesh.send == nil {
		mesh.send = s.SendSignal
	}
	return s
}

// Register wires the inbound handlers. Call it once per connection.
func (s *Session) Register(d *Dispatcher) {
	d.On(protocol.TypeRoomCreated, s.onRoomCreated)
	d.On(protocol.TypeRoomJoined, s.onRoomJoined)
	d.On(protocol.TypeMembersUpdate, s.onMembers)
	d.On(protocol.TypeRequestSync, s.onRequestSync)
	d.On(protocol.TypeSyncState, s.onSyncState)
	d.On(protocol.TypeSyncAction, s.onSyncAction)
	d.On(protocol.TypeLikesUpdate, s.onLikes)
	d.On(protocol.TypeRoomClosed, s.onEnded)
	d.On(protocol.TypeRoomLeft, s.onEnded)
	d.On(protocol.TypeUserJoinedVideo, s.onUserJoinedVideo)
	d.On(protocol.TypeUserLeftVideo, s.onUserLeftVideo)
	d.On(protocol.TypeSignal, s.onSignal)
	d.On(protocol.TypeError, s.onError)
}

// getters

func (s *Session) Self() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

func (s *Session) RoomCode() domain.RoomCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomCode
}

func (s *Session) Role() domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

func (s *Session) State() domain.TransportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Likes() domain.Likes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes.Clone()
}

func (s *Session) Members() []protocol.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.members)
}

func (s *Session) LastError() *protocol.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// requests

func (s *Session) CreateRoom(ctx context.Context, displayName string) error {
	return s.out.Send(ctx, map[string]string{"type": protocol.TypeCreateRoom, "displayName": displayName})
}

func (s *Session) JoinRoom(ctx context.Context, code, displayName string) error {
	return s.out.Send(ctx, map[string]string{"type": protocol.TypeJoinRoom, "roomCode": code, "displayName": displayName})
}

func (s *Session) LeaveRoom(ctx context.Context) error {
	return s.out.Send(ctx, protocol.Envelope{Type: protocol.TypeLeaveRoom})
}

func (s *Session) ToggleLike(ctx context.Context, trackID string) error {
	return s.out.Send(ctx, map[string]string{"type": protocol.TypeToggleLike, "trackId": trackID})
}

func (s *Session) SendMessage(ctx context.Context, content string) error {
	return s.out.Send(ctx, map[string]string{"type": protocol.TypeSendMessage, "content": content})
}

func (s *Session) JoinVideo(ctx context.Context) error {
	if err := s.out.Send(ctx, protocol.Envelope{Type: protocol.TypeJoinVideo}); err != nil {
		return err
	}
	if s.mesh == nil {
		return nil
	}
	return s.mesh.Enable(s.Members())
}

func (s *Session) LeaveVideo(ctx context.Context) error {
	if s.mesh != nil {
		s.mesh.Disable()
	}
	return s.out.Send(ctx, protocol.Envelope{Type: protocol.TypeLeaveVideo})
}

// SendSignal relays a mesh payload; it is the mesh's SignalSender.
func (s *Session) SendSignal(to string, payload SignalPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ctx, cancel := s.sendContext()
	defer cancel()
	return s.out.Send(ctx, protocol.Signal{Type: protocol.TypeSignal, To: to, Payload: raw})
}

func (s *Session) sendContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.sendTimeout)
}

// OnMediaLoaded is called by the player once a track is ready. A position
// received while the track was loading is applied now, never earlier.
func (s *Session) OnMediaLoaded(trackIndex int) {
	s.apply(func() []func() {
		if trackIndex != s.requested {
			return nil
		}
		s.loaded = trackIndex
		var fx []func()
		if s.pendingSeek != nil {
			pos := *s.pendingSeek
			s.pendingSeek = nil
			fx = append(fx, func() { s.player.Seek(pos) })
		}
		if s.state.IsPlaying {
			fx = append(fx, s.player.Play)
		}
		return fx
	})
}

// apply runs fn under the lock and its player effects after it, flagged
// as remote so echoed player events are not emitted.
func (s *Session) apply(fn func() []func()) {
	s.mu.Lock()
	fx := fn()
	s.applying++
	s.mu.Unlock()

	for _, f := range fx {
		f()
	}

	s.mu.Lock()
	s.applying--
	s.mu.Unlock()
}

// helpers below expect s.mu held

func (s *Session) loadTrack(idx int, pos float64) []func() {
	s.requested = idx
	s.loaded = -1
	s.pendingSeek = &pos
	return []func(){func() { s.player.Load(idx) }}
}

// seekTo applies pos now when the current track is ready, or parks it
// until OnMediaLoaded.
func (s *Session) seekTo(pos float64) []func() {
	if s.loaded != s.state.TrackIndex {
		s.pendingSeek = &pos
		return nil
	}
	return []func(){func() { s.player.Seek(pos) }}
}

func (s *Session) playback() []func() {
	loop := s.state.IsLooping
	fx := []func(){func() { s.player.SetLoop(loop) }}
	if s.loaded != s.state.TrackIndex {
		return fx
	}
	if s.state.IsPlaying {
		return append(fx, s.player.Play)
	}
	return append(fx, s.player.Pause)
}

func (s *Session) reset() []func() {
	s.roomCode = ""
	s.role = ""
	s.members = nil
	s.likes = domain.Likes{}
	s.state = domain.TransportState{}
	s.pendingSeek = nil
	return []func(){s.player.Pause}
}

func decode[T any](raw []byte) (T, bool) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn().Err(err).Str("module", "client").Msg("bad frame")
		return v, false
	}
	return v, true
}
