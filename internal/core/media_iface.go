package core

import (
	"github.com/pion/webrtc/v4"
)

// MediaConnection is one side of a direct peer link in the video mesh.
// The server never holds one; clients keep one per remote video member.
type MediaConnection interface {
	// CreateOffer creates an offer and applies it as the local description.
	CreateOffer() (webrtc.SessionDescription, error)
	// CreateAnswer creates an answer and applies it as the local description.
	CreateAnswer() (webrtc.SessionDescription, error)
	SetRemoteDescription(webrtc.SessionDescription) error
	// AddICECandidate applies a remote ICE candidate. Only valid once a
	// remote description is set.
	AddICECandidate(webrtc.ICECandidateInit) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnClosed sets a callback fired once the link fails or closes.
	OnClosed(func())
	Close()
}
