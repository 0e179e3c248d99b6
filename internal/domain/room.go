package domain

// RoomName is the externally supplied room key. Any string is valid,
// including the empty one; a room exists only while it has members.
type RoomName string
