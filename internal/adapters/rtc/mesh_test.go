package rtc

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Ayush94-1708/music-glass/internal/client"
	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hop struct {
	from string
	raw  []byte
}

// meshSide is one client of the pair: a mesh over real peer links whose
// outgoing signals are delivered to the other side's inbox.
type meshSide struct {
	id    string
	mesh  *client.Mesh
	inbox chan hop

	mu    sync.Mutex
	links map[string]*PeerLink
	errs  []error
}

func newMeshSide(ctx context.Context, id string, peerInbox func() chan hop) *meshSide {
	s := &meshSide{id: id, inbox: make(chan hop, 256), links: make(map[string]*PeerLink)}
	factory := NewPeerFactory(webrtc.Configuration{}, nil)
	s.mesh = client.NewMesh(func(remote string) (core.MediaConnection, error) {
		conn, err := factory(remote)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.links[remote] = conn.(*PeerLink)
		s.mu.Unlock()
		return conn, nil
	}, func(to string, p client.SignalPayload) error {
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		select {
		case peerInbox() <- hop{from: id, raw: b}:
		case <-ctx.Done():
		}
		return nil
	})
	s.mesh.SetSelf(id)
	return s
}

func (s *meshSide) pump(ctx context.Context) {
	for {
		select {
		case h := <-s.inbox:
			if err := s.mesh.HandleSignal(h.from, h.raw); err != nil {
				s.mu.Lock()
				s.errs = append(s.errs, err)
				s.mu.Unlock()
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *meshSide) link(remote string) *PeerLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.links[remote]
}

func (s *meshSide) failures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func TestMeshNegotiatesOverPeerLinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var a, b *meshSide
	a = newMeshSide(ctx, "a", func() chan hop { return b.inbox })
	b = newMeshSide(ctx, "b", func() chan hop { return a.inbox })
	var pumps sync.WaitGroup
	for _, side := range []*meshSide{a, b} {
		side := side
		pumps.Add(1)
		go func() {
			defer pumps.Done()
			side.pump(ctx)
		}()
	}
	defer a.mesh.Disable()
	defer b.mesh.Disable()

	require.NoError(t, b.mesh.Enable([]protocol.Member{{ConnectionID: "a", IsVideoOn: true}}))
	assert.Empty(t, b.mesh.Peers(), "b waits for the offer from a")

	require.NoError(t, a.mesh.Enable([]protocol.Member{{ConnectionID: "b", IsVideoOn: true}}))

	require.Eventually(t, func() bool {
		la, lb := a.link("b"), b.link("a")
		return la != nil && lb != nil &&
			la.SignalingState() == webrtc.SignalingStateStable &&
			lb.SignalingState() == webrtc.SignalingStateStable
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, []string{"b"}, a.mesh.Peers())
	assert.Equal(t, []string{"a"}, b.mesh.Peers())
	assert.Empty(t, a.failures())
	assert.Empty(t, b.failures())

	// stop relaying so late candidates cannot reopen the link
	cancel()
	pumps.Wait()
	a.mesh.OnPeerLeftVideo("b")
	assert.Empty(t, a.mesh.Peers())
}
