package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Ayush94-1708/music-glass/internal/app"
	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/Ayush94-1708/music-glass/internal/storage/chat"
	"github.com/Ayush94-1708/music-glass/internal/storage/codes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) all(msgType string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out [][]byte
	for _, f := range c.frames {
		var env protocol.Envelope
		if json.Unmarshal(f, &env) == nil && env.Type == msgType {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) last(t *testing.T, msgType string, v any) {
	t.Helper()
	frames := c.all(msgType)
	require.NotEmpty(t, frames, "no %s frame", msgType)
	require.NoError(t, json.Unmarshal(frames[len(frames)-1], v))
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

type fixture struct {
	o        *Orchestrator
	chat     *chat.MemoryStore
	canceled map[core.SessionID]bool
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	codesSeq := []domain.RoomCode{"AB12CD", "EF34GH", "IJ56KL"}
	i := 0
	gen := func() (domain.RoomCode, error) {
		c := codesSeq[i%len(codesSeq)]
		i++
		return c, nil
	}
	store := chat.NewMemoryStore()
	return &fixture{
		o: &Orchestrator{
			Registry: app.NewRegistry(),
			Rooms:    app.NewRoomManager(codes.NewMemoryStore(), gen),
			Policy:   app.DropPolicy{},
			Chat:     store,
			Options:  opts,
		},
		chat:     store,
		canceled: map[core.SessionID]bool{},
	}
}

func (f *fixture) connect(id string) *fakeConn {
	conn := &fakeConn{}
	sid := core.SessionID(id)
	sess := core.NewMemberSession(sid, &domain.User{ID: domain.UserID("user-" + id)}, conn)
	f.o.Registry.BindSignal(sess, func() { f.canceled[sid] = true })
	return conn
}

func TestCreateRoomMakesHost(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.connect("a")

	room, err := f.o.CreateRoom(context.Background(), "a", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("AB12CD"), room.Code())

	var created protocol.RoomCreated
	a.last(t, protocol.TypeRoomCreated, &created)
	assert.Equal(t, domain.RoomCode("AB12CD"), created.RoomCode)
	assert.Equal(t, domain.RoleHost, created.Role)
	assert.Equal(t, "a", created.ConnectionID)

	var members protocol.MembersUpdate
	a.last(t, protocol.TypeMembersUpdate, &members)
	require.Len(t, members.Members, 1)
	assert.Equal(t, "alice", members.Members[0].DisplayName)

	_, err = f.o.CreateRoom(context.Background(), "a", "alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyInRoom)
}

func TestJoinUnknownRoom(t *testing.T) {
	f := newFixture(t, Options{})
	f.connect("b")

	_, err := f.o.JoinRoom(context.Background(), "b", "zzzzzz", "bob")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, _, ok := f.o.Registry.RoomOf("b")
	assert.False(t, ok)
}

func TestJoinIsCaseInsensitiveAndRejectsBadNames(t *testing.T) {
	f := newFixture(t, Options{})
	f.connect("a")
	f.connect("b")
	_, err := f.o.CreateRoom(context.Background(), "a", "alice")
	require.NoError(t, err)

	_, err = f.o.JoinRoom(context.Background(), "b", "ab12cd", "a-very-long-display-name-that-goes-past-the-limit")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	room, err := f.o.JoinRoom(context.Background(), "b", " ab12cd ", "")
	require.NoError(t, err)
	m, ok := room.Member("b")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultUsername, m.DisplayName)
}

func TestHostActionReachesListenerWithoutEcho(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.connect("a")
	b := f.connect("b")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)
	a.reset()
	b.reset()

	require.NoError(t, f.o.SyncAction("a", protocol.ActionChangeTrack, json.RawMessage(`{"trackIndex":2}`)))

	got := b.all(protocol.TypeSyncAction)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"type":"sync-action","action":"changeTrack","data":{"trackIndex":2}}`, string(got[0]))
	assert.Empty(t, a.all(protocol.TypeSyncAction))
}

func TestListenerActionChangesNothing(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.connect("a")
	f.connect("b")
	ctx := context.Background()
	room, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)
	a.reset()
	before := room.State()

	err = f.o.SyncAction("b", protocol.ActionPlayPause, json.RawMessage(`{"isPlaying":true,"positionSeconds":5}`))
	assert.ErrorIs(t, err, domain.ErrNotHost)
	assert.Empty(t, a.all(protocol.TypeSyncAction))
	assert.Equal(t, before, room.State())
}

func TestLateJoinResyncUsesHostLiveState(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.connect("a")
	b := f.connect("b")
	ctx := context.Background()
	room, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	require.NoError(t, f.o.SyncAction("a", protocol.ActionChangeTrack, json.RawMessage(`{"trackIndex":2}`)))
	require.NoError(t, f.o.SyncAction("a", protocol.ActionSeek, json.RawMessage(`{"positionSeconds":40}`)))

	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)

	var req protocol.RequestSync
	a.last(t, protocol.TypeRequestSync, &req)
	assert.Equal(t, "b", req.RequesterConnectionID)
	assert.Empty(t, b.all(protocol.TypeSyncState), "stored state must not be pushed on join")

	live := domain.TransportState{TrackIndex: 2, PositionSeconds: 47.3, IsPlaying: true}
	require.NoError(t, f.o.ProvideSync("a", core.SessionID(req.RequesterConnectionID), live))

	var got protocol.SyncState
	b.last(t, protocol.TypeSyncState, &got)
	assert.Equal(t, live, got.State)
	assert.Equal(t, 47.3, room.State().PositionSeconds)

	assert.ErrorIs(t, f.o.ProvideSync("b", "a", live), domain.ErrNotHost)
}

func TestJoinSendsLikesAndHistory(t *testing.T) {
	f := newFixture(t, Options{ChatHistoryLimit: 2})
	f.connect("a")
	b := f.connect("b")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	require.NoError(t, f.o.ToggleLike("a", "t1", ""))
	for _, m := range []string{"one", "two", "three"} {
		require.NoError(t, f.o.SendMessage(ctx, "a", m))
	}

	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)

	var likes protocol.LikesUpdate
	b.last(t, protocol.TypeLikesUpdate, &likes)
	assert.Equal(t, []string{"a"}, likes.Likes["t1"].VoterIDs)

	var hist protocol.ChatHistory
	b.last(t, protocol.TypeChatHistory, &hist)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, "two", hist.Messages[0].Content)
	assert.Equal(t, "three", hist.Messages[1].Content)
	assert.Equal(t, "alice", hist.Messages[1].Sender)
	assert.Equal(t, "user-a", hist.Messages[1].UserID)
}

func TestHostDisconnectClosesRoom(t *testing.T) {
	f := newFixture(t, Options{})
	f.connect("a")
	b := f.connect("b")
	c := f.connect("c")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "c", "AB12CD", "carol")
	require.NoError(t, err)

	f.o.OnDisconnect(ctx, "a")

	for _, conn := range []*fakeConn{b, c} {
		var closed protocol.RoomClosed
		conn.last(t, protocol.TypeRoomClosed, &closed)
		assert.Equal(t, domain.RoomCode("AB12CD"), closed.RoomCode)
		assert.Equal(t, protocol.ReasonHostDisconnected, closed.Reason)
	}
	_, ok := f.o.Rooms.Lookup("AB12CD")
	assert.False(t, ok)

	// Listeners are back in the pre-session state and can host themselves.
	_, _, ok = f.o.Registry.RoomOf("b")
	assert.False(t, ok)
	_, err = f.o.CreateRoom(ctx, "b", "bob")
	assert.NoError(t, err)

	_, ok = f.o.Registry.GetSession("a")
	assert.False(t, ok)
}

func TestListenerLeaveAndHostLeave(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.connect("a")
	b := f.connect("b")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)
	require.NoError(t, f.o.SetVideo("b", true))
	a.reset()

	code, err := f.o.LeaveRoom(ctx, "b", protocol.ReasonHostLeft)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("AB12CD"), code)

	var left protocol.VideoPresence
	a.last(t, protocol.TypeUserLeftVideo, &left)
	assert.Equal(t, "b", left.ConnectionID)
	var members protocol.MembersUpdate
	a.last(t, protocol.TypeMembersUpdate, &members)
	assert.Len(t, members.Members, 1)

	_, err = f.o.LeaveRoom(ctx, "b", protocol.ReasonHostLeft)
	assert.ErrorIs(t, err, domain.ErrNotInRoom)

	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)
	_, err = f.o.LeaveRoom(ctx, "a", protocol.ReasonHostLeft)
	require.NoError(t, err)
	var closed protocol.RoomClosed
	b.last(t, protocol.TypeRoomClosed, &closed)
	assert.Equal(t, protocol.ReasonHostLeft, closed.Reason)
}

func TestLikesPairIsIdempotentAndResetOnPlay(t *testing.T) {
	f := newFixture(t, Options{ResetLikesOnPlay: true})
	a := f.connect("a")
	f.connect("b")
	ctx := context.Background()
	room, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)

	require.NoError(t, f.o.ToggleLike("b", "t1", ""))
	before := room.Likes()
	require.NoError(t, f.o.ToggleLike("a", "t1", "voter-x"))
	require.NoError(t, f.o.ToggleLike("a", "t1", "voter-x"))
	assert.Equal(t, before, room.Likes())

	var upd protocol.LikesUpdate
	a.last(t, protocol.TypeLikesUpdate, &upd)
	for id, entry := range upd.Likes {
		assert.Equal(t, len(entry.VoterIDs), entry.Count, "track %s", id)
	}

	assert.ErrorIs(t, f.o.ToggleLike("a", " ", ""), domain.ErrInvalidPayload)

	require.NoError(t, f.o.SyncAction("a", protocol.ActionChangeTrack, json.RawMessage(`{"trackIndex":1}`)))
	assert.Equal(t, 1, room.Likes().Count("t1"))

	require.NoError(t, f.o.SyncAction("a", protocol.ActionChangeTrack, json.RawMessage(`{"trackIndex":0,"trackId":"t1"}`)))
	assert.Equal(t, 0, room.Likes().Count("t1"))
	a.last(t, protocol.TypeLikesUpdate, &upd)
	assert.NotContains(t, upd.Likes, "t1")
}

func TestLikesPersistWithoutReset(t *testing.T) {
	f := newFixture(t, Options{})
	f.connect("a")
	room, err := f.o.CreateRoom(context.Background(), "a", "alice")
	require.NoError(t, err)
	require.NoError(t, f.o.ToggleLike("a", "t1", ""))

	require.NoError(t, f.o.SyncAction("a", protocol.ActionChangeTrack, json.RawMessage(`{"trackIndex":0,"trackId":"t1"}`)))
	assert.Equal(t, 1, room.Likes().Count("t1"))
}

func TestSignalRelayIsDirected(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.connect("a")
	b := f.connect("b")
	c := f.connect("c")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "c", "AB12CD", "carol")
	require.NoError(t, err)

	payload := json.RawMessage(`{"kind":"candidate","candidate":{"candidate":"x"}}`)
	require.NoError(t, f.o.RelaySignal("b", "c", payload))

	var sig protocol.Signal
	c.last(t, protocol.TypeSignal, &sig)
	assert.Equal(t, "b", sig.From)
	assert.JSONEq(t, string(payload), string(sig.Payload))
	assert.Empty(t, a.all(protocol.TypeSignal))
	assert.Empty(t, b.all(protocol.TypeSignal))

	assert.ErrorIs(t, f.o.RelaySignal("b", "", payload), domain.ErrInvalidPayload)
	assert.ErrorIs(t, f.o.RelaySignal("b", "ghost", payload), domain.ErrNotInRoom)
}

func TestSignalRelayDoesNotCrossRooms(t *testing.T) {
	f := newFixture(t, Options{})
	f.connect("a")
	d := f.connect("d")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.CreateRoom(ctx, "d", "dave")
	require.NoError(t, err)

	assert.ErrorIs(t, f.o.RelaySignal("a", "d", json.RawMessage(`{}`)), domain.ErrNotInRoom)
	assert.Empty(t, d.all(protocol.TypeSignal))
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t, Options{ChatHistoryLimit: 50})
	a := f.connect("a")
	b := f.connect("b")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)

	require.NoError(t, f.o.SendMessage(ctx, "b", "  hi there "))
	for _, conn := range []*fakeConn{a, b} {
		var got protocol.MessageReceived
		conn.last(t, protocol.TypeMessageReceived, &got)
		assert.Equal(t, "hi there", got.Message.Content)
		assert.Equal(t, "bob", got.Message.Sender)
	}
	assert.ErrorIs(t, f.o.SendMessage(ctx, "b", "   "), domain.ErrInvalidPayload)

	hist, err := f.o.History(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

type brokenChat struct{}

func (brokenChat) Append(context.Context, *domain.ChatMessage) error { return errors.New("db down") }
func (brokenChat) Recent(context.Context, domain.RoomCode, int) ([]domain.ChatMessage, error) {
	return nil, errors.New("db down")
}

func TestChatFailureDoesNotBlockJoin(t *testing.T) {
	f := newFixture(t, Options{})
	f.o.Chat = brokenChat{}
	f.connect("a")
	b := f.connect("b")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)

	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)
	assert.Empty(t, b.all(protocol.TypeChatHistory))

	err = f.o.SendMessage(ctx, "b", "hello")
	assert.ErrorIs(t, err, ErrChatFailed)
	assert.Empty(t, b.all(protocol.TypeMessageReceived))
}

func TestKickPolicyCancelsSlowMember(t *testing.T) {
	f := newFixture(t, Options{})
	f.o.Policy = app.KickPolicy{}
	f.connect("a")
	b := f.connect("b")
	ctx := context.Background()
	_, err := f.o.CreateRoom(ctx, "a", "alice")
	require.NoError(t, err)
	_, err = f.o.JoinRoom(ctx, "b", "AB12CD", "bob")
	require.NoError(t, err)

	b.full = true
	require.NoError(t, f.o.SyncAction("a", protocol.ActionSeek, json.RawMessage(`{"positionSeconds":3}`)))
	assert.True(t, f.canceled["b"])
	assert.False(t, f.canceled["a"])
}

func TestConcurrentCreatesNeverShareCode(t *testing.T) {
	f := newFixture(t, Options{})
	f.o.Rooms = app.NewRoomManager(codes.NewMemoryStore(), app.RandomCodes(6))
	ctx := context.Background()

	const n = 40
	ids := make([]core.SessionID, n)
	for i := range ids {
		ids[i] = core.SessionID(string(rune('A'+i%26)) + string(rune('a'+i/26)))
		f.connect(string(ids[i]))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[domain.RoomCode]bool{}
	for _, sid := range ids {
		wg.Add(1)
		go func(sid core.SessionID) {
			defer wg.Done()
			room, err := f.o.CreateRoom(ctx, sid, "host")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[room.Code()])
			seen[room.Code()] = true
		}(sid)
	}
	wg.Wait()
	assert.Len(t, seen, n)

	for _, info := range f.o.Rooms.List() {
		room, ok := f.o.Rooms.Lookup(info.Code)
		require.True(t, ok)
		hosts := 0
		for _, m := range room.MembersSnapshot() {
			if m.Role == domain.RoleHost {
				hosts++
			}
		}
		assert.Equal(t, 1, hosts)
	}
}
