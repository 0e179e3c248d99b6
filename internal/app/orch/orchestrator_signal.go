package orch

import (
	"encoding/json"

	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/rs/zerolog/log"
)

// Signal relays msg from sid to target, unchanged. It is dropped unless
// msg carries a known kind and target is live and in a room.
func (o *Orchestrator) Signal(sid, target core.SessionID, msg json.RawMessage) {
	var head struct {
		Type domain.SignalKind `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil || !head.Type.Valid() {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("kind", string(head.Type)).Msg("bad signal message")
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	from, ok := o.Registry.Lookup(sid)
	if !ok || from.State != core.StateInRoom {
		return
	}
	to, ok := o.Registry.Lookup(target)
	if !ok || to.State != core.StateInRoom {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("target", string(target)).Msg("signal target not reachable")
		return
	}

	o.broadcast(to.RoomName, []app.Peer{to.Peer}, core.EventSignal, sid, msg)
}

// Chat stamps text with the relay clock and the sender's name and sends
// it to every member of the sender's room, sender included.
func (o *Orchestrator) Chat(sid core.SessionID, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	from, ok := o.Registry.Lookup(sid)
	if !ok || from.State != core.StateInRoom {
		return
	}
	sender := domain.User{ID: domain.UserID(sid), Username: from.Name}
	msg := domain.NewChatMessage(&sender, text, o.now())
	o.broadcast(from.RoomName, o.Registry.MembersOf(from.RoomName), core.EventRoomChat, msg)
}
