package domain

// RosterEntry is one user as reported by the status endpoint.
type RosterEntry struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// Roster is the ordered user list shown next to the conversation view.
// It is refreshed wholesale from the server, never diffed; only the
// local ordering (most recently active first) is client state.
type Roster struct {
	entries []RosterEntry
}

// Replace swaps the whole roster for a fresh server snapshot, dropping
// self from the visible list and preserving the previous local ordering
// for users that are still present.
func (r *Roster) Replace(entries []RosterEntry, self string) {
	previous := make(map[string]int, len(r.entries))
	for i, e := range r.entries {
		previous[e.Username] = i
	}
	kept := make([]RosterEntry, 0, len(entries))
	fresh := make([]RosterEntry, 0, len(entries))
	for _, e := range entries {
		if e.Username == self {
			continue
		}
		if _, ok := previous[e.Username]; ok {
			kept = append(kept, e)
		} else {
			fresh = append(fresh, e)
		}
	}
	// Known users keep their relative order, newcomers go to the tail.
	for i := range kept {
		for j := i + 1; j < len(kept); j++ {
			if previous[kept[j].Username] < previous[kept[i].Username] {
				kept[i], kept[j] = kept[j], kept[i]
			}
		}
	}
	r.entries = append(kept, fresh...)
}

// Promote moves a user to the top of the list, surfacing the most
// recently active conversation first.
func (r *Roster) Promote(username string) {
	for i, e := range r.entries {
		if e.Username == username {
			r.entries = append([]RosterEntry{e}, append(r.entries[:i:i], r.entries[i+1:]...)...)
			return
		}
	}
}

// Entries returns the roster in display order.
func (r *Roster) Entries() []RosterEntry {
	out := make([]RosterEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
