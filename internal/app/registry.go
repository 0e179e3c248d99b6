package app

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrUnknownSession = errors.New("unknown session")

// Peer is a point-in-time copy of one member, safe to use after the
// registry lock is released.
type Peer struct {
	ID      core.SessionID
	Name    string
	Session core.MemberSession
}

// Departure describes a vacated room and who is still in it.
type Departure struct {
	Room      domain.RoomName
	Remaining []Peer
}

// JoinResult is everything a join needs to notify: the joiner itself,
// the members already present (in join order) and, on a re-join, the
// room that was left behind.
type JoinResult struct {
	Self     Peer
	Existing []Peer
	Vacated  *Departure
}

// SessionInfo is a snapshot of one connection's registry state.
type SessionInfo struct {
	Peer
	State    core.ConnState
	RoomName domain.RoomName
}

type sessionEntry struct {
	Session  core.MemberSession
	State    core.ConnState
	RoomName domain.RoomName
	Cancel   context.CancelFunc
	seq      uint64
}

// Registry is the single source of truth for connection -> (room, name)
// and room -> members. Every method runs under one mutex and never
// performs network I/O, so each call is atomic relative to the others.
type Registry struct {
	mu       sync.Mutex
	sessions map[core.SessionID]*sessionEntry
	rooms    roomIndex
	seq      uint64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		rooms:    make(roomIndex),
	}
}

// Bind registers a live connection in the Connected state.
func (r *Registry) Bind(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, State: core.StateConnected, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

// Join puts sid into roomName under displayName. A connection that is
// already in a room leaves it first; that departure is reported in
// JoinResult.Vacated.
func (r *Registry) Join(sid core.SessionID, roomName domain.RoomName, displayName string) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sid]
	if !ok {
		return JoinResult{}, ErrUnknownSession
	}

	var res JoinResult
	if e.State == core.StateInRoom {
		dep := r.leaveLocked(sid, e)
		res.Vacated = &dep
	}

	res.Existing = r.peersLocked(roomName)

	e.Session.Meta().SetUsername(displayName)
	r.seq++
	e.seq = r.seq
	e.State = core.StateInRoom
	e.RoomName = roomName
	r.rooms.add(roomName, sid)
	res.Self = peerOf(sid, e)

	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomName)).
		Str("name", res.Self.Name).Int("existing", len(res.Existing)).Msg("joined room")
	return res, nil
}

// Leave removes sid from its room. It reports false when sid held no
// membership, so a second call is a no-op.
func (r *Registry) Leave(sid core.SessionID) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sid]
	if !ok || e.State != core.StateInRoom {
		return Departure{}, false
	}
	return r.leaveLocked(sid, e), true
}

// Unbind terminates sid: it leaves any room and is forgotten. The
// departure is reported only if sid was in a room.
func (r *Registry) Unbind(sid core.SessionID) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sid]
	if !ok {
		return Departure{}, false
	}
	var (
		dep  Departure
		left bool
	)
	if e.State == core.StateInRoom {
		dep, left = r.leaveLocked(sid, e), true
	}
	e.State = core.StateTerminated
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return dep, left
}

func (r *Registry) leaveLocked(sid core.SessionID, e *sessionEntry) Departure {
	name := e.RoomName
	r.rooms.remove(name, sid)
	e.State = core.StateConnected
	e.RoomName = ""
	e.seq = 0
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(name)).Msg("left room")
	return Departure{Room: name, Remaining: r.peersLocked(name)}
}

// MembersOf returns the members of roomName in join order.
func (r *Registry) MembersOf(roomName domain.RoomName) []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peersLocked(roomName)
}

func (r *Registry) peersLocked(roomName domain.RoomName) []Peer {
	sids := r.rooms.members(roomName)
	slices.SortFunc(sids, func(a, b core.SessionID) int {
		return cmp.Compare(r.sessions[a].seq, r.sessions[b].seq)
	})
	out := make([]Peer, 0, len(sids))
	for _, sid := range sids {
		out = append(out, peerOf(sid, r.sessions[sid]))
	}
	return out
}

// DisplayNameOf returns the name sid joined with, or domain.AnonymousName.
func (r *Registry) DisplayNameOf(sid core.SessionID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		if name := e.Session.Meta().Username; name != "" {
			return name
		}
	}
	return domain.AnonymousName
}

// Lookup returns a snapshot of sid's state.
func (r *Registry) Lookup(sid core.SessionID) (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{Peer: peerOf(sid, e), State: e.State, RoomName: e.RoomName}, true
}

// Rooms lists non-empty rooms by name.
func (r *Registry) Rooms() []core.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms.list()
}

// Cancel stops sid's connection context; its read pump then runs the
// disconnect path.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func peerOf(sid core.SessionID, e *sessionEntry) Peer {
	name := e.Session.Meta().Username
	if name == "" {
		name = domain.AnonymousName
	}
	return Peer{ID: sid, Name: name, Session: e.Session}
}
