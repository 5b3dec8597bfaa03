// Package view turns domain records into structured render
// instructions: a virtual node tree a front-end can walk, instead of
// markup strings. Rendering is pure and snapshot-testable.
package view

// Node kinds produced by this package.
const (
	KindMessage    = "message"
	KindSender     = "sender"
	KindReply      = "reply-preview"
	KindContent    = "content"
	KindFile       = "file"
	KindReactions  = "reactions-bar"
	KindReaction   = "reaction"
	KindTicks      = "ticks"
	KindTimestamp  = "timestamp"
	KindRosterList = "roster"
	KindRosterItem = "roster-item"
	KindGroupList  = "group-list"
	KindGroupItem  = "group-item"
	KindBadge      = "badge"
	KindTyping     = "typing-indicator"
)

// Node is one render instruction. Attrs carry presentation hints
// (classes, ids); Text is the literal content of leaf nodes.
type Node struct {
	Kind     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

func newNode(kind string) *Node {
	return &Node{Kind: kind, Attrs: map[string]string{}}
}

func (n *Node) withAttr(key, value string) *Node {
	n.Attrs[key] = value
	return n
}

func (n *Node) withText(text string) *Node {
	n.Text = text
	return n
}

func (n *Node) append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Find returns the first descendant of the given kind, depth-first.
func (n *Node) Find(kind string) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
		if hit := child.Find(kind); hit != nil {
			return hit
		}
	}
	return nil
}

// FindAll collects every descendant of the given kind, depth-first.
func (n *Node) FindAll(kind string) []*Node {
	var out []*Node
	for _, child := range n.Children {
		if child.Kind == kind {
			out = append(out, child)
		}
		out = append(out, child.FindAll(kind)...)
	}
	return out
}
