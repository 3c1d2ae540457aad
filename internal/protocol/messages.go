package protocol

import (
	"encoding/json"

	"github.com/Ayush94-1708/music-glass/internal/domain"
)

// Envelope is decoded first to pick a handler.
type Envelope struct {
	Type string `json:"type"`
}

type CreateRoom struct {
	DisplayName string `json:"displayName"`
}

type JoinRoom struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName"`
}

type ProvideSync struct {
	RequesterConnectionID string                 `json:"requesterConnectionId"`
	State                 *domain.TransportState `json:"state"`
}

type ToggleLike struct {
	TrackID string `json:"trackId"`
	VoterID string `json:"voterId,omitempty"`
}

type SendMessage struct {
	Content string `json:"content"`
}

// Member is the public view of a room member.
type Member struct {
	ConnectionID string      `json:"connectionId"`
	DisplayName  string      `json:"displayName"`
	Role         domain.Role `json:"role"`
	IsVideoOn    bool        `json:"isVideoOn"`
}

type RoomCreated struct {
	Type         string          `json:"type"`
	RoomCode     domain.RoomCode `json:"roomCode"`
	Role         domain.Role     `json:"role"`
	ConnectionID string          `json:"connectionId"`
}

type RoomJoined struct {
	Type         string          `json:"type"`
	RoomCode     domain.RoomCode `json:"roomCode"`
	Role         domain.Role     `json:"role"`
	ConnectionID string          `json:"connectionId"`
}

type RoomLeft struct {
	Type     string          `json:"type"`
	RoomCode domain.RoomCode `json:"roomCode"`
}

type RoomClosed struct {
	Type     string          `json:"type"`
	RoomCode domain.RoomCode `json:"roomCode"`
	Reason   string          `json:"reason"`
}

type MembersUpdate struct {
	Type     string          `json:"type"`
	RoomCode domain.RoomCode `json:"roomCode"`
	Members  []Member        `json:"members"`
}

type RequestSync struct {
	Type                  string `json:"type"`
	RequesterConnectionID string `json:"requesterConnectionId"`
}

type SyncState struct {
	Type  string                `json:"type"`
	State domain.TransportState `json:"state"`
}

// SyncAction travels both ways; Type is filled on the way out.
type SyncAction struct {
	Type   string          `json:"type,omitempty"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type LikesUpdate struct {
	Type  string       `json:"type"`
	Likes domain.Likes `json:"likes"`
}

type VideoPresence struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

// Signal is the relay frame. Inbound frames carry To, outbound carry From.
type Signal struct {
	Type    string          `json:"type,omitempty"`
	To      string          `json:"to,omitempty"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type MessageReceived struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

type ChatHistory struct {
	Type     string               `json:"type"`
	Messages []domain.ChatMessage `json:"messages"`
}

type Error struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type Pong struct {
	Type string `json:"type"`
}
