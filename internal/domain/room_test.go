package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func TestTransportStateMergeIsShallow(t *testing.T) {
	s := TransportState{TrackIndex: 2, PositionSeconds: 10, IsPlaying: true, IsLooping: true}

	next := s.Merge(decode(t, `{"positionSeconds": 47.3}`))
	assert.Equal(t, TransportState{TrackIndex: 2, PositionSeconds: 47.3, IsPlaying: true, IsLooping: true}, next)

	next = next.Merge(decode(t, `{"isPlaying": false, "extra": "kept out"}`))
	assert.False(t, next.IsPlaying)
	assert.Equal(t, 47.3, next.PositionSeconds)
}

func TestTransportStateMergeIgnoresBadValues(t *testing.T) {
	s := TransportState{TrackIndex: 1, PositionSeconds: 3}

	next := s.Merge(decode(t, `{"trackIndex": -1, "positionSeconds": "soon", "isLooping": 1}`))
	assert.Equal(t, s, next)
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, RoomCode("AB12CD"), NormalizeRoomCode("  ab12cd "))
}
