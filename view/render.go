package view

import (
	"fmt"
	"sort"
	"strings"

	"chat-console/domain"
)

// Tick states of an own message.
const (
	TickNone = ""     // counterpart messages carry no tick
	TickSent = "sent" // single check
	TickRead = "read" // double blue check
)

// File display classes, selected by mimetype.
const (
	FileImage = "image"
	FileVideo = "video"
	FileAudio = "audio"
	FileOther = "other"
)

// FileClass maps a mimetype onto the display class used to pick the
// preview block.
func FileClass(mimetype string) string {
	switch {
	case strings.HasPrefix(mimetype, "image/"):
		return FileImage
	case strings.HasPrefix(mimetype, "video/"):
		return FileVideo
	case strings.HasPrefix(mimetype, "audio/"):
		return FileAudio
	default:
		return FileOther
	}
}

// RenderMessage is a pure function from one message to its node tree.
// The same message always renders the same tree; mutated status or
// reactions simply render a new tree for the same id, which Timeline
// swaps in place.
func RenderMessage(msg *domain.Message, self string, latest bool) *Node {
	root := newNode(KindMessage).
		withAttr("msg-id", fmt.Sprintf("%d", msg.ID))
	if latest {
		root.withAttr("latest", "true")
	}

	switch {
	case msg.IsOwn(self):
		root.withAttr("class", "mine")
	default:
		root.withAttr("class", "theirs")
	}

	root.append(newNode(KindSender).withText(msg.Sender))

	if msg.ReplyTo != nil {
		root.append(newNode(KindReply).
			withAttr("sender", msg.ReplyTo.Sender).
			withText(msg.ReplyTo.Content))
	}

	if msg.Content != "" {
		root.append(newNode(KindContent).withText(msg.Content))
	}

	if msg.File != nil {
		root.append(newNode(KindFile).
			withAttr("class", FileClass(msg.File.Mimetype)).
			withAttr("filename", msg.File.Filename).
			withAttr("mimetype", msg.File.Mimetype).
			withText(msg.File.OriginalName))
	}

	if len(msg.Reactions) > 0 {
		root.append(renderReactions(msg, self))
	}

	if msg.IsOwn(self) {
		tick := TickSent
		if msg.IsRead() {
			tick = TickRead
		}
		root.append(newNode(KindTicks).withAttr("state", tick))
	}

	root.append(newNode(KindTimestamp).withText(msg.Timestamp))
	return root
}

func renderReactions(msg *domain.Message, self string) *Node {
	bar := newNode(KindReactions)
	emojis := make([]string, 0, len(msg.Reactions))
	for emoji := range msg.Reactions {
		emojis = append(emojis, emoji)
	}
	sort.Strings(emojis)
	for _, emoji := range emojis {
		users := msg.Reactions[emoji]
		reaction := newNode(KindReaction).
			withAttr("emoji", emoji).
			withAttr("count", fmt.Sprintf("%d", len(users))).
			withText(strings.Join(users, ", "))
		if msg.HasReacted(emoji, self) {
			reaction.withAttr("reacted", "true")
		}
		bar.append(reaction)
	}
	return bar
}

// RenderRoster renders the user list with unread badges. Badge counts
// of zero are omitted, matching the hidden-badge behavior.
func RenderRoster(entries []domain.RosterEntry, badges map[domain.ConversationID]int) *Node {
	list := newNode(KindRosterList)
	for _, e := range entries {
		item := newNode(KindRosterItem).
			withAttr("user", e.Username).
			withAttr("online", fmt.Sprintf("%t", e.Online)).
			withText(e.Username)
		if count := badges[domain.ConversationID(e.Username)]; count > 0 {
			item.append(newNode(KindBadge).withText(badgeText(count)))
		}
		list.append(item)
	}
	return list
}

// RenderGroups renders the group list with unread badges.
func RenderGroups(groups []domain.GroupSummary, badges map[domain.ConversationID]int) *Node {
	list := newNode(KindGroupList)
	for _, g := range groups {
		item := newNode(KindGroupItem).
			withAttr("group-id", fmt.Sprintf("%d", g.ID)).
			withText(g.Name)
		if g.Icon != "" {
			item.withAttr("icon", g.Icon)
		}
		if count := badges[domain.GroupConversation(g.ID)]; count > 0 {
			item.append(newNode(KindBadge).withText(badgeText(count)))
		}
		list.append(item)
	}
	return list
}

// badgeText mirrors the first-unread special case: a first unread shows
// NEW, further ones show the count.
func badgeText(count int) string {
	if count == 1 {
		return "NEW"
	}
	return fmt.Sprintf("%d", count)
}

// RenderTyping renders the transient typing indicator.
func RenderTyping(from string) *Node {
	return newNode(KindTyping).withAttr("from", from).withText("Typing...")
}
