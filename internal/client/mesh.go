package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Kinds of signal payloads exchanged between mesh peers.
const (
	KindOffer     = "offer"
	KindAnswer    = "answer"
	KindCandidate = "candidate"
)

var ErrUnknownPeer = errors.New("no peer connection for sender")

// SignalPayload is what mesh peers put inside relayed signal frames. The
// server never looks at it.
type SignalPayload struct {
	Kind      string                     `json:"kind"`
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// PeerFactory opens a media connection towards remote.
type PeerFactory func(remote string) (core.MediaConnection, error)

// SignalSender relays a payload to one room mate.
type SignalSender func(to string, payload SignalPayload) error

// ShouldInitiate is the glare breaker: of two peers, the one with the
// lexicographically smaller connection id sends the offer.
func ShouldInitiate(self, remote string) bool {
	return self < remote
}

type meshPeer struct {
	conn      core.MediaConnection
	remoteSet bool
	pending   []webrtc.ICECandidateInit
}

// Mesh keeps one direct media link per remote video member.
type Mesh struct {
	mu      sync.Mutex
	self    string
	enabled bool
	peers   map[string]*meshPeer

	newPeer PeerFactory
	send    SignalSender
}

func NewMesh(newPeer PeerFactory, send SignalSender) *Mesh {
	return &Mesh{
		peers:   make(map[string]*meshPeer),
		newPeer: newPeer,
		send:    send,
	}
}

func (m *Mesh) SetSelf(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.self = id
}

// Enable turns local video on and dials every video member this side
// should initiate towards.
func (m *Mesh) Enable(members []protocol.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
	var errs []error
	for _, mem := range members {
		if mem.ConnectionID == m.self || !mem.IsVideoOn {
			continue
		}
		if ShouldInitiate(m.self, mem.ConnectionID) {
			errs = append(errs, m.dial(mem.ConnectionID))
		}
	}
	return errors.Join(errs...)
}

// Disable turns local video off and drops every link.
func (m *Mesh) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
	for id := range m.peers {
		m.drop(id)
	}
}

func (m *Mesh) OnPeerJoinedVideo(remote string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || remote == m.self || !ShouldInitiate(m.self, remote) {
		return nil
	}
	return m.dial(remote)
}

// OnPeerLeftVideo tears down the single link to remote.
func (m *Mesh) OnPeerLeftVideo(remote string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop(remote)
}

func (m *Mesh) Peers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.peers))
	for id := range m.peers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Mesh) forget(remote string, peer *meshPeer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.peers[remote] == peer {
		delete(m.peers, remote)
	}
}

// HandleSignal applies a relayed payload from a remote peer. Candidates
// that arrive before the remote description are queued and flushed, in
// arrival order, right after it is applied.
func (m *Mesh) HandleSignal(from string, raw json.RawMessage) error {
	var p SignalPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("decode signal payload: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch p.Kind {
	case KindOffer:
		if p.SDP == nil {
			return fmt.Errorf("offer without sdp")
		}
		peer, err := m.peerFor(from)
		if err != nil {
			return err
		}
		if err := m.applyRemote(from, peer, *p.SDP); err != nil {
			return err
		}
		answer, err := peer.conn.CreateAnswer()
		if err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		return m.send(from, SignalPayload{Kind: KindAnswer, SDP: &answer})

	case KindAnswer:
		if p.SDP == nil {
			return fmt.Errorf("answer without sdp")
		}
		peer, ok := m.peers[from]
		if !ok {
			return ErrUnknownPeer
		}
		return m.applyRemote(from, peer, *p.SDP)

	case KindCandidate:
		if p.Candidate == nil {
			return fmt.Errorf("candidate without body")
		}
		peer, err := m.peerFor(from)
		if err != nil {
			return err
		}
		if !peer.remoteSet {
			peer.pending = append(peer.pending, *p.Candidate)
			return nil
		}
		return peer.conn.AddICECandidate(*p.Candidate)

	default:
		return fmt.Errorf("unknown signal kind %q", p.Kind)
	}
}

// helpers below expect m.mu held

func (m *Mesh) dial(remote string) error {
	if _, ok := m.peers[remote]; ok {
		return nil
	}
	peer, err := m.peerFor(remote)
	if err != nil {
		return err
	}
	offer, err := peer.conn.CreateOffer()
	if err != nil {
		m.drop(remote)
		return fmt.Errorf("create offer: %w", err)
	}
	log.Debug().Str("module", "client.mesh").Str("remote", remote).Msg("offer sent")
	return m.send(remote, SignalPayload{Kind: KindOffer, SDP: &offer})
}

func (m *Mesh) peerFor(remote string) (*meshPeer, error) {
	if peer, ok := m.peers[remote]; ok {
		return peer, nil
	}
	conn, err := m.newPeer(remote)
	if err != nil {
		return nil, fmt.Errorf("new peer %s: %w", remote, err)
	}
	conn.OnICECandidate(func(c webrtc.ICECandidateInit) {
		if err := m.send(remote, SignalPayload{Kind: KindCandidate, Candidate: &c}); err != nil {
			log.Warn().Err(err).Str("module", "client.mesh").Str("remote", remote).Msg("send candidate")
		}
	})
	peer := &meshPeer{conn: conn}
	// Close may fire this synchronously while m.mu is held.
	conn.OnClosed(func() { go m.forget(remote, peer) })
	m.peers[remote] = peer
	return peer, nil
}

func (m *Mesh) applyRemote(remote string, peer *meshPeer, sdp webrtc.SessionDescription) error {
	if err := peer.conn.SetRemoteDescription(sdp); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	peer.remoteSet = true
	queued := peer.pending
	peer.pending = nil
	for _, c := range queued {
		if err := peer.conn.AddICECandidate(c); err != nil {
			log.Warn().Err(err).Str("module", "client.mesh").Str("remote", remote).Msg("queued candidate rejected")
		}
	}
	return nil
}

func (m *Mesh) drop(remote string) {
	peer, ok := m.peers[remote]
	if !ok {
		return
	}
	delete(m.peers, remote)
	peer.conn.Close()
	log.Debug().Str("module", "client.mesh").Str("remote", remote).Msg("peer closed")
}
