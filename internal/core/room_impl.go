package core

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/rs/zerolog/log"
)

type memberEntry struct {
	session MemberSession
	member  *domain.Member
}

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	code domain.RoomCode
	host SessionID

	mu     sync.Mutex
	closed bool
	order  []SessionID
	bySID  map[SessionID]*memberEntry
	state  domain.TransportState
	likes  domain.Likes
}

// NewRoomService opens a room with host as its only member.
func NewRoomService(code domain.RoomCode, host MemberSession, hostName string) RoomService {
	r := &roomImpl{
		code:  code,
		host:  host.ID(),
		bySID: make(map[SessionID]*memberEntry),
		likes: domain.Likes{},
	}
	r.insert(host, domain.NewMember(host.User(), hostName, domain.RoleHost))
	return r
}

func (r *roomImpl) Code() domain.RoomCode { return r.code }
func (r *roomImpl) HostID() SessionID     { return r.host }

func (r *roomImpl) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := RoomInfo{Code: r.code, MemberCount: len(r.order)}
	if e, ok := r.bySID[r.host]; ok {
		info.HostName = e.member.DisplayName
	}
	return info
}

func (r *roomImpl) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *roomImpl) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *roomImpl) MembersSnapshot() []protocol.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *roomImpl) Has(sid SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bySID[sid]
	return ok
}

func (r *roomImpl) Member(sid SessionID) (protocol.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bySID[sid]
	if !ok {
		return protocol.Member{}, false
	}
	return protocol.Member{
		ConnectionID: string(sid),
		DisplayName:  e.member.DisplayName,
		Role:         e.member.Role,
		IsVideoOn:    e.member.IsVideoOn,
	}, true
}

func (r *roomImpl) State() domain.TransportState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *roomImpl) Likes() domain.Likes {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likes.Clone()
}

func (r *roomImpl) Join(ms MemberSession, displayName string) (PublishResult, error) {
	sid := ms.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return PublishResult{}, domain.ErrRoomNotFound
	}
	if _, ok := r.bySID[sid]; ok {
		return PublishResult{}, domain.ErrAlreadyInRoom
	}
	r.insert(ms, domain.NewMember(ms.User(), displayName, domain.RoleListener))
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Msg("member joined")

	var res PublishResult
	res.Add(r.sendTo(sid, protocol.Encode(protocol.RoomJoined{
		Type:         protocol.TypeRoomJoined,
		RoomCode:     r.code,
		Role:         domain.RoleListener,
		ConnectionID: string(sid),
	})))
	res.Add(r.publishMembers())
	res.Add(r.sendTo(r.host, protocol.Encode(protocol.RequestSync{
		Type:                  protocol.TypeRequestSync,
		RequesterConnectionID: string(sid),
	})))
	res.Add(r.sendTo(sid, r.likesFrame()))
	return res, nil
}

func (r *roomImpl) Leave(sid SessionID) (PublishResult, error) {
	if sid == r.host {
		return PublishResult{}, domain.ErrNotHost
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bySID[sid]
	if !ok || r.closed {
		return PublishResult{}, domain.ErrNotInRoom
	}
	r.remove(sid)
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Msg("member left")

	var res PublishResult
	res.Add(r.publishMembers())
	if e.member.IsVideoOn {
		res.Add(r.broadcast("", protocol.Encode(protocol.VideoPresence{
			Type:         protocol.TypeUserLeftVideo,
			ConnectionID: string(sid),
		})))
	}
	return res, nil
}

func (r *roomImpl) Close(reason string) ([]MemberSession, PublishResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, PublishResult{}
	}
	r.closed = true

	frame := protocol.Encode(protocol.RoomClosed{
		Type:     protocol.TypeRoomClosed,
		RoomCode: r.code,
		Reason:   reason,
	})
	res := r.broadcast(r.host, frame)

	listeners := make([]MemberSession, 0, len(r.order))
	for _, sid := range r.order {
		if sid != r.host {
			listeners = append(listeners, r.bySID[sid].session)
		}
	}
	r.order = nil
	clear(r.bySID)
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("reason", reason).Int("listeners", len(listeners)).Msg("room closed")
	return listeners, res
}

func (r *roomImpl) SetVideo(sid SessionID, on bool) (PublishResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bySID[sid]
	if !ok || r.closed {
		return PublishResult{}, domain.ErrNotInRoom
	}
	if e.member.IsVideoOn == on {
		return PublishResult{}, nil
	}
	e.member.IsVideoOn = on

	kind := protocol.TypeUserLeftVideo
	if on {
		kind = protocol.TypeUserJoinedVideo
	}
	var res PublishResult
	res.Add(r.publishMembers())
	res.Add(r.broadcast(sid, protocol.Encode(protocol.VideoPresence{
		Type:         kind,
		ConnectionID: string(sid),
	})))
	return res, nil
}

func (r *roomImpl) ApplyHostAction(from SessionID, action string, data json.RawMessage) (domain.TransportState, PublishResult, error) {
	if from != r.host {
		return domain.TransportState{}, PublishResult{}, domain.ErrNotHost
	}
	fields, err := protocol.DecodeData(data)
	if err != nil || action == "" {
		return domain.TransportState{}, PublishResult{}, domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.TransportState{}, PublishResult{}, domain.ErrRoomNotFound
	}

	next := r.state.Merge(fields)
	if action == protocol.ActionChangeTrack {
		next.IsPlaying = true
		if _, ok := fields["positionSeconds"]; !ok {
			next.PositionSeconds = 0
		}
	}
	r.state = next

	res := r.broadcast(from, protocol.Encode(protocol.SyncAction{
		Type:   protocol.TypeSyncAction,
		Action: action,
		Data:   data,
	}))
	log.Debug().Str("module", "core.room").Str("room", string(r.code)).Str("action", action).Int("sent_to", res.SendTo).Msg("host action")
	return next, res, nil
}

func (r *roomImpl) ProvideSync(from, requester SessionID, state domain.TransportState) (PublishResult, error) {
	if from != r.host {
		return PublishResult{}, domain.ErrNotHost
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[requester]; !ok || r.closed {
		return PublishResult{}, domain.ErrNotInRoom
	}
	r.state = state
	return r.sendTo(requester, protocol.Encode(protocol.SyncState{
		Type:  protocol.TypeSyncState,
		State: state,
	})), nil
}

func (r *roomImpl) ToggleLike(trackID, voterID string) (bool, PublishResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	liked := r.likes.Toggle(trackID, voterID)
	return liked, r.broadcast("", r.likesFrame())
}

func (r *roomImpl) ResetLikes(trackID string) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.likes.Reset(trackID) {
		return PublishResult{}
	}
	return r.broadcast("", r.likesFrame())
}

func (r *roomImpl) Relay(from, to SessionID, payload json.RawMessage) (PublishResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[to]; !ok || r.closed {
		return PublishResult{}, domain.ErrNotInRoom
	}
	return r.sendTo(to, protocol.Encode(protocol.Signal{
		Type:    protocol.TypeSignal,
		From:    string(from),
		Payload: payload,
	})), nil
}

func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcast(from, data)
}

func (r *roomImpl) SendTo(sid SessionID, data Frame) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sendTo(sid, data)
}

// helpers below expect r.mu held

func (r *roomImpl) insert(ms MemberSession, m *domain.Member) {
	r.order = append(r.order, ms.ID())
	r.bySID[ms.ID()] = &memberEntry{session: ms, member: m}
}

func (r *roomImpl) remove(sid SessionID) {
	delete(r.bySID, sid)
	if i := slices.Index(r.order, sid); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

func (r *roomImpl) snapshot() []protocol.Member {
	out := make([]protocol.Member, 0, len(r.order))
	for _, sid := range r.order {
		m := r.bySID[sid].member
		out = append(out, protocol.Member{
			ConnectionID: string(sid),
			DisplayName:  m.DisplayName,
			Role:         m.Role,
			IsVideoOn:    m.IsVideoOn,
		})
	}
	return out
}

func (r *roomImpl) publishMembers() PublishResult {
	return r.broadcast("", protocol.Encode(protocol.MembersUpdate{
		Type:     protocol.TypeMembersUpdate,
		RoomCode: r.code,
		Members:  r.snapshot(),
	}))
}

func (r *roomImpl) likesFrame() Frame {
	return protocol.Encode(protocol.LikesUpdate{
		Type:  protocol.TypeLikesUpdate,
		Likes: r.likes,
	})
}

// broadcast sends to every current member except from. An empty from
// reaches everyone.
func (r *roomImpl) broadcast(from SessionID, data Frame) PublishResult {
	res := PublishResult{}
	for _, sid := range r.order {
		if sid == from {
			continue
		}
		m := r.bySID[sid].session
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	return res
}

func (r *roomImpl) sendTo(sid SessionID, data Frame) PublishResult {
	e, ok := r.bySID[sid]
	if !ok {
		return PublishResult{}
	}
	if err := e.session.Signal().TrySend(data); err != nil {
		return PublishResult{Dropped: []MemberSession{e.session}}
	}
	return PublishResult{SendTo: 1}
}
