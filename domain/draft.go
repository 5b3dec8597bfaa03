package domain

// PendingFile is a locally selected attachment that has not been
// uploaded yet. Data stays in memory until send time.
type PendingFile struct {
	Name     string
	Mimetype string
	Data     []byte
}

// Draft is the unsent composer state of one conversation. It exists
// only client-side, is overwritten on send and restored when the user
// switches back to the conversation.
type Draft struct {
	Text string
	File *PendingFile
}

// Empty reports whether the draft carries nothing worth restoring.
func (d Draft) Empty() bool {
	return d.Text == "" && d.File == nil
}

// DraftBook stores drafts keyed by conversation. The zero value is not
// usable; create it with NewDraftBook.
type DraftBook struct {
	drafts map[ConversationID]Draft
}

func NewDraftBook() *DraftBook {
	return &DraftBook{drafts: make(map[ConversationID]Draft)}
}

// Save snapshots the composer state for a conversation,
// overwriting any previous draft.
func (b *DraftBook) Save(id ConversationID, d Draft) {
	if id == "" {
		return
	}
	b.drafts[id] = d
}

// Restore returns the draft for a conversation, or an empty draft.
func (b *DraftBook) Restore(id ConversationID) Draft {
	return b.drafts[id]
}

// Clear drops the draft of one conversation only.
func (b *DraftBook) Clear(id ConversationID) {
	delete(b.drafts, id)
}
