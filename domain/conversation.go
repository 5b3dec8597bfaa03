package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// groupPrefix marks synthetic group conversation tokens ("group-<id>").
const groupPrefix = "group-"

// ConversationID identifies a chat target: either a plain username
// (direct chat) or a synthetic group token. Exactly one conversation is
// active at a time; drafts and badges are keyed by this identifier.
type ConversationID string

// GroupConversation builds the token for a group id.
func GroupConversation(groupID int64) ConversationID {
	return ConversationID(fmt.Sprintf("%s%d", groupPrefix, groupID))
}

func (c ConversationID) IsGroup() bool {
	return strings.HasPrefix(string(c), groupPrefix)
}

// GroupID extracts the numeric group id from a group token.
// Returns false for direct conversations or malformed tokens.
func (c ConversationID) GroupID() (int64, bool) {
	if !c.IsGroup() {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(string(c), groupPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (c ConversationID) String() string { return string(c) }

// recipientsInclude reports whether the comma-separated recipients field
// names the given user.
func recipientsInclude(recipients, user string) bool {
	for _, r := range strings.Split(recipients, ",") {
		if strings.TrimSpace(r) == user {
			return true
		}
	}
	return false
}

// AddressedToActive is the ownership rule deciding whether an incoming
// message belongs to the currently open conversation and must be
// rendered live. Anything else is only badge-counted.
func AddressedToActive(msg *Message, self string, active ConversationID) bool {
	if active == "" {
		return false
	}
	if active.IsGroup() {
		return string(active) == msg.Recipients
	}
	switch {
	case string(active) == msg.Sender && msg.Recipients == self:
		return true
	case string(active) == msg.Recipients && msg.Sender == self:
		return true
	case recipientsInclude(msg.Recipients, self) && string(active) == msg.Sender:
		return true
	}
	return false
}

// BadgeTarget resolves which conversation an incoming message should be
// counted against when it is not rendered live. Returns false when the
// message does not concern self at all (e.g. sent by self from another
// session).
func BadgeTarget(msg *Message, self string) (ConversationID, bool) {
	if msg.Sender == self {
		return "", false
	}
	if strings.HasPrefix(msg.Recipients, groupPrefix) {
		return ConversationID(msg.Recipients), true
	}
	if recipientsInclude(msg.Recipients, self) {
		return ConversationID(msg.Sender), true
	}
	return "", false
}
