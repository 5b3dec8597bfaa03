package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversationID_GroupToken(t *testing.T) {
	req := require.New(t)

	c := GroupConversation(42)
	req.Equal(ConversationID("group-42"), c)
	req.True(c.IsGroup())

	id, ok := c.GroupID()
	req.True(ok)
	req.Equal(int64(42), id)

	direct := ConversationID("bob")
	req.False(direct.IsGroup())
	_, ok = direct.GroupID()
	req.False(ok)
}

func TestAddressedToActive_Direct(t *testing.T) {
	req := require.New(t)
	self := "alice"

	incoming := &Message{Sender: "bob", Recipients: "alice"}
	req.True(AddressedToActive(incoming, self, "bob"))
	req.False(AddressedToActive(incoming, self, "carol"))
	req.False(AddressedToActive(incoming, self, ""))

	// Echo of a message alice sent from another session.
	own := &Message{Sender: "alice", Recipients: "bob"}
	req.True(AddressedToActive(own, self, "bob"))
	req.False(AddressedToActive(own, self, "carol"))
}

func TestAddressedToActive_Group(t *testing.T) {
	req := require.New(t)

	msg := &Message{Sender: "bob", Recipients: "group-7"}
	req.True(AddressedToActive(msg, "alice", GroupConversation(7)))
	req.False(AddressedToActive(msg, "alice", GroupConversation(8)))
	req.False(AddressedToActive(msg, "alice", "bob"))
}

func TestAddressedToActive_MultiRecipients(t *testing.T) {
	req := require.New(t)

	msg := &Message{Sender: "bob", Recipients: "alice, dave"}
	req.True(AddressedToActive(msg, "alice", "bob"))
	req.False(AddressedToActive(msg, "alice", "dave"))
}

func TestBadgeTarget(t *testing.T) {
	req := require.New(t)

	direct := &Message{Sender: "bob", Recipients: "alice"}
	target, ok := BadgeTarget(direct, "alice")
	req.True(ok)
	req.Equal(ConversationID("bob"), target)

	group := &Message{Sender: "bob", Recipients: "group-3"}
	target, ok = BadgeTarget(group, "alice")
	req.True(ok)
	req.Equal(ConversationID("group-3"), target)

	// Own messages never badge.
	own := &Message{Sender: "alice", Recipients: "bob"}
	_, ok = BadgeTarget(own, "alice")
	req.False(ok)

	// Messages between other people are ignored.
	other := &Message{Sender: "bob", Recipients: "carol"}
	_, ok = BadgeTarget(other, "alice")
	req.False(ok)
}

func TestMessage_ReactionToggle(t *testing.T) {
	req := require.New(t)

	msg := &Message{ID: 1, Reactions: Reactions{"👍": {"bob"}}}
	req.True(msg.HasReacted("👍", "bob"))
	req.False(msg.HasReacted("👍", "alice"))
	req.False(msg.HasReacted("❤️", "bob"))

	msg.SetReactions(Reactions{"👍": {"bob", "alice"}})
	req.True(msg.HasReacted("👍", "alice"))
}

func TestMessage_MarkRead(t *testing.T) {
	req := require.New(t)

	msg := &Message{ID: 1, Status: StatusSent}
	req.False(msg.IsRead())
	msg.MarkRead()
	req.True(msg.IsRead())
	msg.MarkRead()
	req.Equal(StatusRead, msg.Status)
}
