package core

import "github.com/Ayush94-1708/music-glass/internal/domain"

// memberSession implements MemberSession by pairing identity + transport.
type memberSession struct {
	sid    SessionID
	user   *domain.User
	signal SignalConnection
}

func NewMemberSession(sid SessionID, user *domain.User, signal SignalConnection) MemberSession {
	return &memberSession{sid: sid, user: user, signal: signal}
}

func (m *memberSession) ID() SessionID            { return m.sid }
func (m *memberSession) User() *domain.User       { return m.user }
func (m *memberSession) Signal() SignalConnection { return m.signal }
