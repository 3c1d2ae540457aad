// Package rtc backs the video mesh with pion peer connections.
package rtc

import (
	"sync"

	"github.com/Ayush94-1708/music-glass/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// PeerLink is one direct link to a remote video member.
type PeerLink struct {
	pc     *webrtc.PeerConnection
	remote string

	mu       sync.Mutex
	onICE    func(webrtc.ICECandidateInit)
	onTrack  func(*webrtc.TrackRemote)
	onClosed func()
	closed   sync.Once
}

var _ core.MediaConnection = (*PeerLink)(nil)

// Configuration turns configured ICE server urls into a pion config. An
// empty list falls back to a public STUN server.
func Configuration(iceServers []string) webrtc.Configuration {
	if len(iceServers) == 0 {
		iceServers = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: iceServers}},
	}
}

// NewPeerFactory returns a factory fit for client.NewMesh. onTrack, when
// set, receives every remote track of every link.
func NewPeerFactory(cfg webrtc.Configuration, onTrack func(remote string, track *webrtc.TrackRemote)) func(remote string) (core.MediaConnection, error) {
	return func(remote string) (core.MediaConnection, error) {
		l, err := NewPeerLink(cfg, remote)
		if err != nil {
			return nil, err
		}
		if onTrack != nil {
			l.OnTrack(func(track *webrtc.TrackRemote) { onTrack(remote, track) })
		}
		return l, nil
	}
}

func NewPeerLink(cfg webrtc.Configuration, remote string) (*PeerLink, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	l := &PeerLink{pc: pc, remote: remote}

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		if fn := l.iceHandler(); fn != nil {
			fn(cand.ToJSON())
		}
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Debug().Str("module", "rtc").Str("remote", remote).Str("state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateFailed || s == webrtc.PeerConnectionStateClosed {
			l.fireClosed()
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().Str("module", "rtc").Str("remote", remote).Str("kind", track.Kind().String()).Msg("remote track")
		l.mu.Lock()
		fn := l.onTrack
		l.mu.Unlock()
		if fn != nil {
			fn(track)
		}
	})

	return l, nil
}

// CreateOffer asks for video from the remote side when no local track was
// attached yet, so the offer always carries a media section.
func (l *PeerLink) CreateOffer() (webrtc.SessionDescription, error) {
	if len(l.pc.GetTransceivers()) == 0 {
		if _, err := l.pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			return webrtc.SessionDescription{}, err
		}
	}
	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := l.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return offer, nil
}

func (l *PeerLink) CreateAnswer() (webrtc.SessionDescription, error) {
	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := l.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return answer, nil
}

func (l *PeerLink) SetRemoteDescription(d webrtc.SessionDescription) error {
	return l.pc.SetRemoteDescription(d)
}

func (l *PeerLink) AddICECandidate(c webrtc.ICECandidateInit) error {
	return l.pc.AddICECandidate(c)
}

func (l *PeerLink) SignalingState() webrtc.SignalingState {
	return l.pc.SignalingState()
}

func (l *PeerLink) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onICE = fn
}

func (l *PeerLink) OnTrack(fn func(*webrtc.TrackRemote)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onTrack = fn
}

// OnClosed fires at most once, whether the link failed or was closed here.
func (l *PeerLink) OnClosed(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onClosed = fn
}

func (l *PeerLink) Close() {
	if err := l.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("remote", l.remote).Msg("close error")
	}
	l.fireClosed()
}

func (l *PeerLink) iceHandler() func(webrtc.ICECandidateInit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.onICE
}

func (l *PeerLink) fireClosed() {
	l.closed.Do(func() {
		l.mu.Lock()
		fn := l.onClosed
		l.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}
