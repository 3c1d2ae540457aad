package core

import "github.com/Ayush94-1708/music-glass/internal/domain"

// SessionID identifies one live connection. It doubles as the
// connection id members see each other by.
type SessionID string

// MemberSession binds a connection identity and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	ID() SessionID
	User() *domain.User
	Signal() SignalConnection
}
