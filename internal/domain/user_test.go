package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeUsername(t *testing.T) {
	long := strings.Repeat("ж", MaxUsernameLen+4)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: AnonymousName},
		{name: "blank", in: "   ", want: AnonymousName},
		{name: "trimmed", in: "  alice ", want: "alice"},
		{name: "capped by runes", in: long, want: strings.Repeat("ж", MaxUsernameLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeUsername(tt.in); got != tt.want {
				t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewChatMessageStampsMillis(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	msg := NewChatMessage(NewUser("a", "alice"), "hi", at)

	if msg.From != "a" || msg.Name != "alice" || msg.Text != "hi" {
		t.Errorf("NewChatMessage() = %+v", msg)
	}
	if msg.TS != 1_700_000_000_123 {
		t.Errorf("TS = %d, want 1700000000123", msg.TS)
	}
}

func TestSignalKindValid(t *testing.T) {
	for _, k := range []SignalKind{SignalOffer, SignalAnswer, SignalICE} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	for _, k := range []SignalKind{"", "pranswer", "rollback", "candidate", "OFFER"} {
		if k.Valid() {
			t.Errorf("%q should be invalid", k)
		}
	}
}
