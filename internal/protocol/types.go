// Package protocol holds the wire format of the room socket: message type
// names and the JSON payloads that travel with them.
package protocol

// Client to server.
const (
	TypeCreateRoom  = "create-room"
	TypeJoinRoom    = "join-room"
	TypeLeaveRoom   = "leave-room"
	TypeProvideSync = "provide-sync"
	TypeSyncAction  = "sync-action"
	TypeToggleLike  = "toggle-like"
	TypeJoinVideo   = "join-video"
	TypeLeaveVideo  = "leave-video"
	TypeSignal      = "signal"
	TypeSendMessage = "send-message"
	TypePing        = "ping"
)

// Server to client.
const (
	TypeRoomCreated     = "room-created"
	TypeRoomJoined      = "room-joined"
	TypeRoomLeft        = "room-left"
	TypeRoomClosed      = "room-closed"
	TypeMembersUpdate   = "room-members-update"
	TypeRequestSync     = "request-sync"
	TypeSyncState       = "sync-state"
	TypeLikesUpdate     = "likes-update"
	TypeUserJoinedVideo = "user-joined-video"
	TypeUserLeftVideo   = "user-left-video"
	TypeMessageReceived = "message-received"
	TypeChatHistory     = "chat-history"
	TypePong            = "pong"
	TypeError           = "error"
)

// Sync actions understood by the server. Anything else is relayed as is.
const (
	ActionPlayPause   = "playPause"
	ActionChangeTrack = "changeTrack"
	ActionSeek        = "seek"
	ActionToggleLoop  = "toggleLoop"
)

// Reasons carried by room-closed.
const (
	ReasonHostDisconnected = "host_disconnected"
	ReasonHostLeft         = "host_left"
)

// Error codes carried by error frames.
const (
	CodeRoomNotFound  = "room_not_found"
	CodeBadPayload    = "bad_payload"
	CodeAlreadyInRoom = "already_in_room"
	CodeNotInRoom     = "not_in_room"
	CodeRateLimited   = "rate_limited"
	CodeChatFailed    = "chat_failed"
	CodeUnknownType   = "unknown_type"
	CodeInternal      = "internal"
)
