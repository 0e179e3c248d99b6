package domain

import "github.com/pion/webrtc/v4"

// SignalKind tags a negotiation message relayed between two peers.
type SignalKind string

const (
	SignalOffer  SignalKind = "offer"
	SignalAnswer SignalKind = "answer"
	SignalICE    SignalKind = "ice"
)

// Valid reports whether k is one of offer, answer or ice.
func (k SignalKind) Valid() bool {
	if k == SignalICE {
		return true
	}
	switch webrtc.NewSDPType(string(k)) {
	case webrtc.SDPTypeOffer, webrtc.SDPTypeAnswer:
		return true
	default:
		return false
	}
}
