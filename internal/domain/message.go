package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxMessageLen = 2000

// ChatMessage is a persisted room chat line.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomCode  RoomCode  `json:"roomCode"`
	Sender    string    `json:"sender"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage trims content and rejects empty or oversized messages.
func NewChatMessage(room RoomCode, sender, userID, content string) (*ChatMessage, error) {
	text := strings.TrimSpace(content)
	if text == "" || len(text) > MaxMessageLen {
		return nil, ErrInvalidPayload
	}
	return &ChatMessage{
		ID:        uuid.NewString(),
		RoomCode:  room,
		Sender:    sender,
		UserID:    userID,
		Content:   text,
		Timestamp: time.Now().UTC(),
	}, nil
}
