package entity

import (
	"strings"
	"time"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleError     ChatRole = "error"
)

// ChatMessage is one entry of the transcript. Messages are never mutated
// after creation; the transcript only grows by appending.
type ChatMessage struct {
	Id         string    `json:"id"`
	Content    string    `json:"content"`
	Role       ChatRole  `json:"role"`
	Timestamp  time.Time `json:"timestamp"`
	Sources    []string  `json:"sources,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
}

func (m ChatMessage) IsBlank() bool {
	return strings.TrimSpace(m.Content) == ""
}

// ConversationHistoryEntry is the persisted projection of a ChatMessage
// shown in the recent-conversations panel.
type ConversationHistoryEntry struct {
	Id         string   `json:"id"`
	Content    string   `json:"content"`
	Role       ChatRole `json:"role"`
	Timestamp  string   `json:"timestamp"`
	Sources    []string `json:"sources,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ParsedTimestamp returns the entry time, or the zero time when the stored
// value is not RFC 3339.
func (e ConversationHistoryEntry) ParsedTimestamp() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ChatTranscript is the durable record of the active transcript.
type ChatTranscript struct {
	Messages    []ChatMessage `json:"messages"`
	LastUpdated time.Time     `json:"lastUpdated"`
}
