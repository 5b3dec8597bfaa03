package domain

// GroupMember is one group participant with their admin flag.
type GroupMember struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// GroupSummary is the list-view shape returned by GET /groups.
type GroupSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

// Group is the full record returned by GET /groups/{id}.
// AdminOnly gates whether non-admin members may post; the gate itself
// is enforced server-side, the client only surfaces the error event.
type Group struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   string        `json:"created_at"`
	Members     []GroupMember `json:"members"`
	IsAdmin     bool          `json:"is_admin"`
	AdminOnly   bool          `json:"admin_only"`
}

// Conversation returns the synthetic token for this group.
func (g *Group) Conversation() ConversationID {
	return GroupConversation(g.ID)
}

// MemberNames lists member usernames in declaration order.
func (g *Group) MemberNames() []string {
	names := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		names = append(names, m.Username)
	}
	return names
}
