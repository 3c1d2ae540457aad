package core

import (
	"context"
	"encoding/json"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// Add folds another result into p.
func (p *PublishResult) Add(o PublishResult) {
	p.SendTo += o.SendTo
	p.Dropped = append(p.Dropped, o.Dropped...)
}

// RoomService is the core-facing API of a live room. Every method is atomic
// with respect to the room: the state change and the frames it produces are
// made under one lock, so members never see a stale snapshot after a newer one.
// It never closes adapter-owned resources.
type RoomService interface {
	Code() domain.RoomCode
	HostID() SessionID
	Info() RoomInfo
	Closed() bool

	MemberCount() int
	MembersSnapshot() []protocol.Member
	Has(sid SessionID) bool
	Member(sid SessionID) (protocol.Member, bool)
	State() domain.TransportState
	Likes() domain.Likes

	// Join adds a listener, acks it, refreshes the member list for everyone,
	// asks the host for a live snapshot and hands the joiner the likes map.
	Join(ms MemberSession, displayName string) (PublishResult, error)
	// Leave removes a listener. The host cannot leave; its room is closed instead.
	Leave(sid SessionID) (PublishResult, error)
	// Close ends the room and tells every listener why. It returns the
	// listeners so callers can release them. Closing twice is a no-op.
	Close(reason string) ([]MemberSession, PublishResult)
	SetVideo(sid SessionID, on bool) (PublishResult, error)

	ApplyHostAction(from SessionID, action string, data json.RawMessage) (domain.TransportState, PublishResult, error)
	ProvideSync(from, requester SessionID, state domain.TransportState) (PublishResult, error)

	ToggleLike(trackID, voterID string) (bool, PublishResult)
	ResetLikes(trackID string) PublishResult

	Relay(from, to SessionID, payload json.RawMessage) (PublishResult, error)
	Broadcast(from SessionID, data Frame) PublishResult
	SendTo(sid SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Code        domain.RoomCode `json:"code"`
	MemberCount int             `json:"memberCount"`
	HostName    string          `json:"hostName"`
}

// RoomRegistry owns the code -> room table.
type RoomRegistry interface {
	Create(ctx context.Context, host MemberSession, hostName string) (RoomService, error)
	Lookup(code domain.RoomCode) (RoomService, bool)
	Remove(ctx context.Context, code domain.RoomCode) (RoomService, bool)
	List() []RoomInfo
}
