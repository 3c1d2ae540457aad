package domain

import (
	"encoding/json"
	"strings"
)

// RoomCode is the short, human-typable identifier of a live room.
// Codes are compared case-insensitively, so they are stored upper-cased.
type RoomCode string

func NormalizeRoomCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// TransportState is the shared playback descriptor owned by the host.
type TransportState struct {
	TrackIndex      int     `json:"trackIndex"`
	PositionSeconds float64 `json:"positionSeconds"`
	IsPlaying       bool    `json:"isPlaying"`
	IsLooping       bool    `json:"isLooping"`
}

// Merge applies a partial update on top of the current state. Fields absent
// from data keep their previous value; fields with the wrong type or an
// out-of-range value are ignored. Unknown keys are ignored here and only
// travel through the broadcast.
func (s TransportState) Merge(data map[string]json.RawMessage) TransportState {
	next := s
	if raw, ok := data["trackIndex"]; ok {
		var v int
		if json.Unmarshal(raw, &v) == nil && v >= 0 {
			next.TrackIndex = v
		}
	}
	if raw, ok := data["positionSeconds"]; ok {
		var v float64
		if json.Unmarshal(raw, &v) == nil && v >= 0 {
			next.PositionSeconds = v
		}
	}
	if raw, ok := data["isPlaying"]; ok {
		var v bool
		if json.Unmarshal(raw, &v) == nil {
			next.IsPlaying = v
		}
	}
	if raw, ok := data["isLooping"]; ok {
		var v bool
		if json.Unmarshal(raw, &v) == nil {
			next.IsLooping = v
		}
	}
	return next
}
