package view

// Timeline is the conversation view: message nodes keyed by id, in
// arrival order. Upsert with a known id replaces the node in place
// instead of appending a duplicate, making re-renders idempotent.
type Timeline struct {
	order []int64
	nodes map[int64]*Node
}

func NewTimeline() *Timeline {
	return &Timeline{nodes: make(map[int64]*Node)}
}

// Upsert inserts or replaces the node for a message id. It reports
// whether the node was appended (new id), in which case the view
// should scroll to the bottom.
func (t *Timeline) Upsert(id int64, node *Node) bool {
	if _, known := t.nodes[id]; known {
		t.nodes[id] = node
		return false
	}
	t.order = append(t.order, id)
	t.nodes[id] = node
	return true
}

// Get returns the current node for a message id, if any.
func (t *Timeline) Get(id int64) (*Node, bool) {
	node, ok := t.nodes[id]
	return node, ok
}

// Remove drops a message from the view (local deletion).
func (t *Timeline) Remove(id int64) {
	if _, ok := t.nodes[id]; !ok {
		return
	}
	delete(t.nodes, id)
	for i, known := range t.order {
		if known == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Clear empties the timeline (conversation switch).
func (t *Timeline) Clear() {
	t.order = nil
	t.nodes = make(map[int64]*Node)
}

// Len returns the number of rendered messages.
func (t *Timeline) Len() int {
	return len(t.order)
}

// Nodes returns the message nodes in display order.
func (t *Timeline) Nodes() []*Node {
	out := make([]*Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

// IDs returns the message ids in display order.
func (t *Timeline) IDs() []int64 {
	out := make([]int64, len(t.order))
	copy(out, t.order)
	return out
}
