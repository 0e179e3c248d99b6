package core

import "github.com/dkeye/Mesh/internal/domain"

// SessionID is the relay-assigned connection identifier, also used as peer id.
type SessionID string

// ConnState is the per-connection protocol state.
type ConnState int

const (
	StateConnected ConnState = iota
	StateInRoom
	StateTerminated
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateInRoom:
		return "in_room"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MemberSession binds domain.User and its transport endpoint.
// This is what the registry stores and fans out to.
type MemberSession interface {
	Meta() *domain.User
	Signal() SignalConnection
}
