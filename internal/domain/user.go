// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	AnonymousName  = "Anonymous"
	MaxUsernameLen = 36
)

type UserID string

type User struct {
	ID       UserID `json:"peerId"`
	Username string `json:"userName"`
}

// NewUser returns a user named by NormalizeUsername(username).
func NewUser(id UserID, username string) *User {
	return &User{ID: id, Username: NormalizeUsername(username)}
}

func (u *User) SetUsername(username string) {
	u.Username = NormalizeUsername(username)
}

// NormalizeUsername trims the name and caps it at MaxUsernameLen runes.
// An empty name becomes AnonymousName.
func NormalizeUsername(username string) string {
	name := strings.TrimSpace(username)
	if name == "" {
		return AnonymousName
	}
	if utf8.RuneCountInString(name) > MaxUsernameLen {
		name = string([]rune(name)[:MaxUsernameLen])
	}
	return name
}
