package core

import "github.com/dkeye/Mesh/internal/domain"

// RoomInfo is a read-only view of a room for APIs.
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}
