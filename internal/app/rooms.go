package app

import (
	"cmp"
	"slices"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
)

// roomIndex is the room -> members view kept next to the session table.
// It is only touched under Registry.mu; empty rooms are dropped on removal.
type roomIndex map[domain.RoomName]map[core.SessionID]struct{}

func (ix roomIndex) add(name domain.RoomName, sid core.SessionID) {
	members, ok := ix[name]
	if !ok {
		members = make(map[core.SessionID]struct{})
		ix[name] = members
	}
	members[sid] = struct{}{}
}

func (ix roomIndex) remove(name domain.RoomName, sid core.SessionID) {
	members, ok := ix[name]
	if !ok {
		return
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(ix, name)
	}
}

func (ix roomIndex) members(name domain.RoomName) []core.SessionID {
	members := ix[name]
	out := make([]core.SessionID, 0, len(members))
	for sid := range members {
		out = append(out, sid)
	}
	return out
}

func (ix roomIndex) list() []core.RoomInfo {
	out := make([]core.RoomInfo, 0, len(ix))
	for name, members := range ix {
		out = append(out, core.RoomInfo{Name: name, MemberCount: len(members)})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
