package domain

import "time"

// ChatMessage is a room chat line as delivered to members.
// TS is stamped by the relay in unix milliseconds.
type ChatMessage struct {
	From UserID `json:"from"`
	Name string `json:"name"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

func NewChatMessage(from *User, text string, at time.Time) ChatMessage {
	return ChatMessage{
		From: from.ID,
		Name: from.Username,
		Text: text,
		TS:   at.UnixMilli(),
	}
}
