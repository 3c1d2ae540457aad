// Package domain holds room entities and the small rules that keep them valid.
package domain

import (
	"errors"
	"strings"
)

const (
	MaxUsernameLen = 36

	DefaultUsername = "Guest"
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUserIDEmpty     = errors.New("user id empty")
)

type UserID string

// User is the identity a connection carries for its whole lifetime.
// It is handed over by the auth layer (or made up for anonymous guests).
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	// Verified is set when the identity came from a checked token.
	Verified bool `json:"verified"`
}

// NewUser builds a named user, normalizing the name. The id comes from
// whoever vouches for the identity.
func NewUser(id UserID, username string) (*User, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrUserIDEmpty
	}
	name, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Username: name}, nil
}

// NormalizeUsername trims the name and checks its bounds.
func NormalizeUsername(username string) (string, error) {
	name := strings.TrimSpace(username)
	if len(name) == 0 {
		return "", ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return name, nil
}

// DisplayName picks the name a member is shown under: the verified username
// when there is one, otherwise the requested name, otherwise DefaultUsername.
func (u *User) DisplayName(requested string) (string, error) {
	if u != nil && u.Verified && u.Username != "" {
		return u.Username, nil
	}
	name, err := NormalizeUsername(requested)
	if errors.Is(err, ErrUsernameEmpty) {
		return DefaultUsername, nil
	}
	return name, err
}
