// Package domain contains core concepts of the chat client.
// This file defines the Message record and its mutation rules.
// A message is immutable once received, except for its status and
// reactions which are updated in place by later events.
package domain

const (
	StatusSent = "sent"
	StatusRead = "read"
)

// FileRef points at a server-side upload attached to a message.
type FileRef struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Mimetype     string `json:"mimetype"`
}

// ReplyRef is the snapshot of the message being replied to,
// taken by the server at send time.
type ReplyRef struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Reactions maps an emoji to the usernames that reacted with it.
type Reactions map[string][]string

// Message represents one chat message as the server ships it.
// IDs are server-assigned and unique across all conversations.
type Message struct {
	ID         int64     `json:"id"`
	Sender     string    `json:"sender"`
	Recipients string    `json:"recipients"`
	Content    string    `json:"content"`
	Timestamp  string    `json:"timestamp"`
	File       *FileRef  `json:"file"`
	Status     string    `json:"status"`
	ReplyTo    *ReplyRef `json:"reply_to"`
	Reactions  Reactions `json:"reactions"`
}

// IsOwn reports whether self authored the message.
func (m *Message) IsOwn(self string) bool {
	return m.Sender == self
}

// IsRead reports whether the counterpart has read the message.
func (m *Message) IsRead() bool {
	return m.Status == StatusRead
}

// MarkRead flips the status to read. Idempotent.
func (m *Message) MarkRead() {
	m.Status = StatusRead
}

// HasReacted reports whether user already reacted with emoji.
// It decides which of react_message / remove_reaction a toggle maps to.
func (m *Message) HasReacted(emoji, user string) bool {
	for _, u := range m.Reactions[emoji] {
		if u == user {
			return true
		}
	}
	return false
}

// SetReactions replaces the whole reaction map, as pushed by the server.
func (m *Message) SetReactions(r Reactions) {
	m.Reactions = r
}
