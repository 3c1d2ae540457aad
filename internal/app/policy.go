package app

import (
	"strings"

	"github.com/Ayush94-1708/music-glass/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
}

// DropPolicy loses the frame and keeps the member; the next state frame
// catches it up.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.RoomService, core.MemberSession) BackpressureAction {
	return DropFrame
}

// KickPolicy disconnects slow members.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(core.RoomService, core.MemberSession) BackpressureAction {
	return KickMember
}

// PolicyByName maps the backpressure config value to a policy. Unknown
// names fall back to dropping.
func PolicyByName(name string) Policy {
	if strings.EqualFold(name, "kick") {
		return KickPolicy{}
	}
	return DropPolicy{}
}
