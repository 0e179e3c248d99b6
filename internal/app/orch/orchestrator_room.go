package orch

import (
	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join records the membership, tells the joiner who is already present
// and tells those members about the joiner. A join from a connection
// that is already in a room first announces its departure there.
func (o *Orchestrator) Join(sid core.SessionID, roomName domain.RoomName, displayName string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	res, err := o.Registry.Join(sid, roomName, displayName)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("join")
		return
	}
	if res.Vacated != nil {
		log.Info().Str("sid", string(sid)).Str("from_room", string(res.Vacated.Room)).Msg("moved out of room")
		o.announceLeft(sid, *res.Vacated)
	}

	existing := make([]core.SessionID, 0, len(res.Existing))
	for _, p := range res.Existing {
		existing = append(existing, p.ID)
	}
	// A joiner that cannot take its peer list is disconnected regardless of Policy.
	if err := o.sendTo(res.Self, core.EventExistingPeers, existing); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("existing-peers undeliverable, closing session")
		o.Registry.Cancel(sid)
	}

	joined := domain.User{ID: domain.UserID(sid), Username: res.Self.Name}
	o.broadcast(roomName, res.Existing, core.EventPeerJoined, joined)
	log.Info().Str("sid", string(sid)).Str("room", string(roomName)).Msg("added to room")
}

// Leave moves sid back to Connected and announces it to the room it left.
func (o *Orchestrator) Leave(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	dep, ok := o.Registry.Leave(sid)
	if !ok {
		return
	}
	o.announceLeft(sid, dep)
}

// Disconnect terminates sid. Remaining members of its room, if any, get
// exactly one peer-left.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	dep, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	o.announceLeft(sid, dep)
}

func (o *Orchestrator) announceLeft(sid core.SessionID, dep app.Departure) {
	o.broadcast(dep.Room, dep.Remaining, core.EventPeerLeft, sid)
}
