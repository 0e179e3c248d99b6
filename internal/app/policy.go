package app

import (
	"strings"

	"github.com/dkeye/Mesh/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a recipient whose outbound buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomName, member Peer) BackpressureAction
}

// SimplePolicy applies the same action to every slow member.
type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(domain.RoomName, Peer) BackpressureAction {
	return p.Action
}

// PolicyFromString maps the config value ("drop" or "kick") to a Policy.
func PolicyFromString(s string) Policy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kick":
		return SimplePolicy{Action: KickMember}
	default:
		return SimplePolicy{Action: DropFrame}
	}
}
