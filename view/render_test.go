package view

import (
	"testing"

	"chat-console/domain"

	"github.com/stretchr/testify/require"
)

func TestRenderMessage_OwnWithTicks(t *testing.T) {
	req := require.New(t)

	msg := &domain.Message{
		ID: 5, Sender: "alice", Recipients: "bob",
		Content: "hello", Status: domain.StatusSent, Timestamp: "2026-08-29 10:00:00",
	}
	node := RenderMessage(msg, "alice", true)

	req.Equal(KindMessage, node.Kind)
	req.Equal("5", node.Attrs["msg-id"])
	req.Equal("mine", node.Attrs["class"])
	req.Equal("true", node.Attrs["latest"])

	req.Equal("alice", node.Find(KindSender).Text)
	req.Equal("hello", node.Find(KindContent).Text)
	req.Equal(TickSent, node.Find(KindTicks).Attrs["state"])
	req.Equal("2026-08-29 10:00:00", node.Find(KindTimestamp).Text)

	msg.MarkRead()
	req.Equal(TickRead, RenderMessage(msg, "alice", false).Find(KindTicks).Attrs["state"])
}

func TestRenderMessage_TheirsHasNoTicks(t *testing.T) {
	req := require.New(t)

	msg := &domain.Message{ID: 6, Sender: "bob", Recipients: "alice", Content: "hi"}
	node := RenderMessage(msg, "alice", false)

	req.Equal("theirs", node.Attrs["class"])
	req.Nil(node.Find(KindTicks))
}

func TestRenderMessage_FileClasses(t *testing.T) {
	req := require.New(t)

	cases := map[string]string{
		"image/png":       FileImage,
		"video/mp4":       FileVideo,
		"audio/webm":      FileAudio,
		"application/pdf": FileOther,
	}
	for mime, class := range cases {
		msg := &domain.Message{
			ID: 1, Sender: "bob",
			File: &domain.FileRef{Filename: "f", OriginalName: "orig", Mimetype: mime},
		}
		file := RenderMessage(msg, "alice", false).Find(KindFile)
		req.NotNil(file)
		req.Equal(class, file.Attrs["class"], mime)
		req.Equal("orig", file.Text)
	}
}

func TestRenderMessage_ReplyAndReactions(t *testing.T) {
	req := require.New(t)

	msg := &domain.Message{
		ID: 7, Sender: "bob", Content: "sure",
		ReplyTo:   &domain.ReplyRef{ID: 3, Sender: "alice", Content: "lunch?"},
		Reactions: domain.Reactions{"👍": {"alice", "carol"}, "❤️": {"bob"}},
	}
	node := RenderMessage(msg, "alice", false)

	reply := node.Find(KindReply)
	req.NotNil(reply)
	req.Equal("alice", reply.Attrs["sender"])
	req.Equal("lunch?", reply.Text)

	reactions := node.FindAll(KindReaction)
	req.Len(reactions, 2)
	byEmoji := map[string]*Node{}
	for _, r := range reactions {
		byEmoji[r.Attrs["emoji"]] = r
	}
	req.Equal("2", byEmoji["👍"].Attrs["count"])
	req.Equal("true", byEmoji["👍"].Attrs["reacted"])
	req.NotContains(byEmoji["❤️"].Attrs, "reacted")
}

func TestRenderMessage_Idempotent(t *testing.T) {
	req := require.New(t)

	msg := &domain.Message{ID: 9, Sender: "bob", Content: "x"}
	first := RenderMessage(msg, "alice", false)
	second := RenderMessage(msg, "alice", false)
	req.Equal(first, second)
}

func TestRenderMessage_ReactionOrderIsStable(t *testing.T) {
	req := require.New(t)

	msg := &domain.Message{
		ID:     9,
		Sender: "bob",
		Reactions: domain.Reactions{
			"👍": {"alice"},
			"❤️": {"carol"},
			"😂": {"bob", "alice"},
		},
	}

	emojis := func(n *Node) []string {
		var out []string
		for _, r := range n.FindAll(KindReaction) {
			out = append(out, r.Attrs["emoji"])
		}
		return out
	}

	first := RenderMessage(msg, "alice", false)
	req.Equal([]string{"❤️", "👍", "😂"}, emojis(first))
	for range 10 {
		req.Equal(emojis(first), emojis(RenderMessage(msg, "alice", false)))
	}
}

func TestRenderRoster_Badges(t *testing.T) {
	req := require.New(t)

	node := RenderRoster(
		[]domain.RosterEntry{{Username: "bob", Online: true}, {Username: "carol"}},
		map[domain.ConversationID]int{"bob": 1, "carol": 0},
	)

	items := node.FindAll(KindRosterItem)
	req.Len(items, 2)
	req.Equal("NEW", items[0].Find(KindBadge).Text)
	req.Nil(items[1].Find(KindBadge))
}

func TestRenderGroups_BadgeCount(t *testing.T) {
	req := require.New(t)

	node := RenderGroups(
		[]domain.GroupSummary{{ID: 4, Name: "team"}},
		map[domain.ConversationID]int{domain.GroupConversation(4): 3},
	)
	item := node.FindAll(KindGroupItem)[0]
	req.Equal("team", item.Text)
	req.Equal("3", item.Find(KindBadge).Text)
}

func TestTimeline_UpsertIsIdempotent(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	msg := &domain.Message{ID: 1, Sender: "bob", Content: "a", Status: domain.StatusSent}
	appended := timeline.Upsert(msg.ID, RenderMessage(msg, "alice", true))
	req.True(appended)
	req.Equal(1, timeline.Len())

	// Re-render of the same id replaces instead of duplicating.
	msg.MarkRead()
	appended = timeline.Upsert(msg.ID, RenderMessage(msg, "bob", false))
	req.False(appended)
	req.Equal(1, timeline.Len())
	node, ok := timeline.Get(1)
	req.True(ok)
	req.Equal(TickRead, node.Find(KindTicks).Attrs["state"])
}

func TestTimeline_OrderRemoveClear(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	for id := int64(1); id <= 3; id++ {
		timeline.Upsert(id, &Node{Kind: KindMessage})
	}
	req.Equal([]int64{1, 2, 3}, timeline.IDs())

	timeline.Remove(2)
	req.Equal([]int64{1, 3}, timeline.IDs())
	req.Len(timeline.Nodes(), 2)

	timeline.Clear()
	req.Zero(timeline.Len())
}
