package domain

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotHost        = errors.New("only the host can do that")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrAlreadyInRoom  = errors.New("already in a room")
	ErrNotInRoom      = errors.New("not in a room")
	ErrCodeSpaceFull  = errors.New("could not allocate a free room code")
)
