package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDraftBook_SaveRestoreClear(t *testing.T) {
	req := require.New(t)
	book := NewDraftBook()

	book.Save("bob", Draft{Text: "hello", File: &PendingFile{Name: "x.png"}})
	book.Save("group-2", Draft{Text: "meeting?"})

	d := book.Restore("bob")
	req.Equal("hello", d.Text)
	req.NotNil(d.File)
	req.Equal("x.png", d.File.Name)

	// Unknown conversations restore an empty draft.
	req.True(book.Restore("carol").Empty())

	// Clearing is scoped to one conversation.
	book.Clear("bob")
	req.True(book.Restore("bob").Empty())
	req.Equal("meeting?", book.Restore("group-2").Text)
}

func TestDraftBook_SaveOverwrites(t *testing.T) {
	req := require.New(t)
	book := NewDraftBook()

	book.Save("bob", Draft{Text: "first"})
	book.Save("bob", Draft{Text: "second"})
	req.Equal("second", book.Restore("bob").Text)

	// Saving under the empty id is a no-op, not a phantom draft.
	book.Save("", Draft{Text: "ghost"})
	req.True(book.Restore("").Empty())
}

func TestRoster_ReplaceAndPromote(t *testing.T) {
	req := require.New(t)

	var r Roster
	r.Replace([]RosterEntry{
		{Username: "alice", Online: true},
		{Username: "bob", Online: true},
		{Username: "carol", Online: false},
	}, "alice")

	entries := r.Entries()
	req.Len(entries, 2) // self excluded
	req.Equal("bob", entries[0].Username)

	r.Promote("carol")
	entries = r.Entries()
	req.Equal("carol", entries[0].Username)
	req.Equal("bob", entries[1].Username)

	// A wholesale refresh keeps the promoted order for known users.
	r.Replace([]RosterEntry{
		{Username: "bob", Online: false},
		{Username: "carol", Online: true},
		{Username: "dave", Online: true},
	}, "alice")
	entries = r.Entries()
	req.Equal("carol", entries[0].Username)
	req.Equal("bob", entries[1].Username)
	req.Equal("dave", entries[2].Username)
	req.False(entries[1].Online)
}

func TestCreateGroupCommand_NormalizeAndValidate(t *testing.T) {
	req := require.New(t)

	cmd := CreateGroupCommand{Name: "team", Members: []string{"bob", "bob"}}
	cmd.Normalize("alice")
	req.ElementsMatch([]string{"bob", "alice"}, cmd.Members)
	req.ElementsMatch([]string{"alice"}, cmd.Admins)
	req.NoError(cmd.Validate())

	empty := CreateGroupCommand{}
	req.Error(empty.Validate())
}
