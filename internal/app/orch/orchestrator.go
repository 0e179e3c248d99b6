// Package orch turns inbound relay events into registry operations and
// delivers the notifications each one triggers.
package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Policy   app.Policy
	// Now stamps chat messages; time.Now when nil.
	Now func() time.Time

	// mu covers a registry update together with its deliveries, so every
	// recipient sees notifications in the order the registry applied them.
	mu sync.Mutex
}

// Connect registers a freshly upgraded connection in the Connected state.
func (o *Orchestrator) Connect(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	o.Registry.Bind(sid, sess, cancel)
}

// Handle dispatches one inbound event by name and the sender's current
// state. Events that are unknown, malformed or not allowed in that state
// are dropped.
func (o *Orchestrator) Handle(sid core.SessionID, ev core.Event) {
	info, ok := o.Registry.Lookup(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", ev.Name).Msg("event for unknown session")
		return
	}

	switch ev.Name {
	case core.EventJoinRoom:
		var room string
		if err := ev.Arg(0, &room); err != nil {
			o.drop(sid, ev, err)
			return
		}
		// The display name is optional.
		var name string
		_ = ev.Arg(1, &name)
		o.Join(sid, domain.RoomName(room), name)

	case core.EventLeaveRoom:
		if !o.requireRoom(sid, ev, info) {
			return
		}
		o.Leave(sid)

	case core.EventSignal:
		if !o.requireRoom(sid, ev, info) {
			return
		}
		var (
			target string
			msg    json.RawMessage
		)
		if err := ev.Arg(0, &target); err != nil {
			o.drop(sid, ev, err)
			return
		}
		if err := ev.Arg(1, &msg); err != nil {
			o.drop(sid, ev, err)
			return
		}
		o.Signal(sid, core.SessionID(target), msg)

	case core.EventRoomChat:
		if !o.requireRoom(sid, ev, info) {
			return
		}
		var text string
		if err := ev.Arg(0, &text); err != nil {
			o.drop(sid, ev, err)
			return
		}
		o.Chat(sid, text)

	default:
		o.drop(sid, ev, errors.New("unknown event"))
	}
}

func (o *Orchestrator) requireRoom(sid core.SessionID, ev core.Event, info app.SessionInfo) bool {
	if info.State == core.StateInRoom {
		return true
	}
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", ev.Name).
		Str("state", info.State.String()).Msg("event not allowed in state")
	return false
}

func (o *Orchestrator) drop(sid core.SessionID, ev core.Event, err error) {
	log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("event", ev.Name).Msg("dropped event")
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// deliver fans frame out to every peer without blocking on any of them.
// Closed recipients are torn down; slow ones are handled by the Policy.
func (o *Orchestrator) deliver(room domain.RoomName, to []app.Peer, frame core.Frame) int {
	sent := 0
	for _, p := range to {
		err := p.Session.Signal().TrySend(frame)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, core.ErrBackpressure):
			o.onBackpressure(room, p)
		default:
			log.Warn().Err(err).Str("module", "orch").Str("sid", string(p.ID)).Msg("send failed, closing session")
			o.Registry.Cancel(p.ID)
		}
	}
	return sent
}

func (o *Orchestrator) onBackpressure(room domain.RoomName, p app.Peer) {
	action := app.DropFrame
	if o.Policy != nil {
		action = o.Policy.OnBackPressure(room, p)
	}
	switch action {
	case app.KickMember:
		log.Warn().Str("module", "orch").Str("sid", string(p.ID)).Str("room", string(room)).Msg("slow member kicked")
		o.Registry.Cancel(p.ID)
	case app.DropFrame, app.NoAction:
		log.Debug().Str("module", "orch").Str("sid", string(p.ID)).Str("room", string(room)).Msg("frame dropped on backpressure")
	}
}

// sendTo queues one event for a single peer and reports why it could not.
func (o *Orchestrator) sendTo(p app.Peer, name string, args ...any) error {
	frame, err := core.EncodeEvent(name, args...)
	if err != nil {
		return err
	}
	return p.Session.Signal().TrySend(frame)
}

func (o *Orchestrator) broadcast(room domain.RoomName, to []app.Peer, name string, args ...any) {
	if len(to) == 0 {
		return
	}
	frame, err := core.EncodeEvent(name, args...)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", name).Msg("encode")
		return
	}
	sent := o.deliver(room, to, frame)
	log.Debug().Str("module", "orch").Str("event", name).Str("room", string(room)).
		Int("targets", len(to)).Int("sent", sent).Msg("broadcast result")
}
