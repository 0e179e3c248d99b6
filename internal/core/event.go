package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Event names on the wire.
const (
	EventJoinRoom      = "join-room"
	EventLeaveRoom     = "leave-room"
	EventSignal        = "signal"
	EventRoomChat      = "room-chat"
	EventExistingPeers = "existing-peers"
	EventPeerJoined    = "peer-joined"
	EventPeerLeft      = "peer-left"

	EventWelcome = "welcome"
	EventPing    = "ping"
	EventPong    = "pong"
	EventWhoAmI  = "whoami"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrMissingArg     = errors.New("missing argument")
)

// Event is one named message with an ordered argument list:
//
//	{"event": "join-room", "args": ["r1", "alice"]}
type Event struct {
	Name string            `json:"event"`
	Args []json.RawMessage `json:"args"`
}

func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Name == "" {
		return Event{}, ErrMalformedEvent
	}
	return ev, nil
}

// Arg decodes the i-th argument into v.
func (e Event) Arg(i int, v any) error {
	if i < 0 || i >= len(e.Args) {
		return fmt.Errorf("%s arg %d: %w", e.Name, i, ErrMissingArg)
	}
	if err := json.Unmarshal(e.Args[i], v); err != nil {
		return fmt.Errorf("%s arg %d: %w", e.Name, i, err)
	}
	return nil
}

// EncodeEvent builds a frame for the named event. json.RawMessage
// arguments are written verbatim, everything else goes through json.Marshal.
func EncodeEvent(name string, args ...any) (Frame, error) {
	nameJSON, err := json.Marshal(name)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"event":`)
	buf.Write(nameJSON)
	buf.WriteString(`,"args":[`)
	for i, a := range args {
		if i > 0 {
			buf.WriteByte(',')
		}
		raw, ok := a.(json.RawMessage)
		if !ok {
			if raw, err = json.Marshal(a); err != nil {
				return nil, fmt.Errorf("encode %s arg %d: %w", name, i, err)
			}
		}
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		buf.Write(raw)
	}
	buf.WriteString(`]}`)
	return Frame(buf.Bytes()), nil
}
