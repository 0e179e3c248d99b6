package core

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is one encoded outbound event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks: it returns ErrBackpressure when the outbound
// buffer is full and ErrConnClosed once Close has been called.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
