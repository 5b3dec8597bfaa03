package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"chat-console/domain"
	"chat-console/domain/event"
)

// stubServer is an in-process stand-in for the real chat server: the
// REST surface plus the websocket event channel, with just enough
// semantics to drive a full client scenario.
type stubServer struct {
	http     *httptest.Server
	upgrader websocket.Upgrader
	debug    bool

	mu          sync.Mutex
	nextMsgID   int64
	nextFileID  int64
	nextGroupID int64
	messages    map[int64]*domain.Message
	order       []int64
	files       map[int64]fileRecord
	groups      map[int64]*domain.Group
	deleted     map[int64][]string
	conns       map[string]*stubConn
	seen        map[string]bool
}

type fileRecord struct {
	Filename     string
	OriginalName string
	Mimetype     string
}

// stubConn serializes writes to one client connection.
type stubConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *stubConn) push(name string, payload any) {
	raw, err := event.Encode(name, payload)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteMessage(websocket.TextMessage, raw)
}

func newStubServer(debug bool) *stubServer {
	s := &stubServer{
		debug:    debug,
		messages: make(map[int64]*domain.Message),
		files:    make(map[int64]fileRecord),
		groups:   make(map[int64]*domain.Group),
		deleted:  make(map[int64][]string),
		conns:    make(map[string]*stubConn),
		seen:     make(map[string]bool),
	}

	r := chi.NewRouter()
	r.Get("/socket.io", s.handleWS)
	r.Get("/history", s.handleHistory)
	r.Get("/users_status", s.handleUsersStatus)
	r.Get("/groups", s.handleGroups)
	r.Get("/groups/{id}", s.handleGroupInfo)
	r.Post("/groups", s.handleCreateGroup)
	r.Post("/groups/{id}/{action}", s.handleGroupAction)
	r.Post("/upload", s.handleUpload)
	r.Post("/delete_message/{id}", s.handleDeleteMessage)

	s.http = httptest.NewServer(r)
	return s
}

func (s *stubServer) close() {
	s.http.Close()
}

func (s *stubServer) baseURL() string {
	return s.http.URL
}

func (s *stubServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.http.URL, "http") + "/socket.io"
}

func (s *stubServer) connected(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[username] != nil
}

// handleWS upgrades, waits for the identity join, then relays client
// events for that user until the connection dies.
func (s *stubServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sc := &stubConn{ws: conn}

	username := ""
	defer func() {
		_ = conn.Close()
		if username != "" {
			s.mu.Lock()
			if s.conns[username] == sc {
				delete(s.conns, username)
			}
			s.mu.Unlock()
			s.broadcastUserList()
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env event.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		if s.debug {
			fmt.Printf("stub <- %s %s: %s\n", username, env.Event, env.Data)
		}

		if username == "" {
			// First frame must be the identity join.
			var join event.Join
			if env.Event != event.JoinName || json.Unmarshal(env.Data, &join) != nil {
				return
			}
			username = join.Room
			s.mu.Lock()
			s.conns[username] = sc
			s.seen[username] = true
			s.mu.Unlock()
			s.broadcastUserList()
			continue
		}
		s.dispatch(username, env)
	}
}

func (s *stubServer) dispatch(from string, env event.Envelope) {
	switch env.Event {
	case event.JoinName, event.LeaveName:
		// Group room membership is tracked through the group records.

	case event.SendMessageName:
		var p event.SendMessage
		if json.Unmarshal(env.Data, &p) == nil {
			s.deliver(from, p)
		}

	case event.MessageReadName:
		var p event.MessageRead
		if json.Unmarshal(env.Data, &p) == nil {
			s.markRead(p.MsgID)
		}

	case event.TypingName:
		var p event.Typing
		if json.Unmarshal(env.Data, &p) == nil {
			s.relayTyping(from, p.To, true)
		}

	case event.StopTypingName:
		var p event.StopTyping
		if json.Unmarshal(env.Data, &p) == nil {
			s.relayTyping(from, p.To, false)
		}

	case event.ReactMessageName:
		var p event.ReactMessage
		if json.Unmarshal(env.Data, &p) == nil {
			s.react(from, p.MsgID, p.Emoji, true)
		}

	case event.RemoveReactionName:
		var p event.RemoveReaction
		if json.Unmarshal(env.Data, &p) == nil {
			s.react(from, p.MsgID, p.Emoji, false)
		}

	case event.GroupDeletedName:
		var p event.GroupDeleted
		if json.Unmarshal(env.Data, &p) == nil {
			s.propagateGroupDeleted(from, p.GroupID)
		}
	}
}

// deliver stores a message and pushes receive_message to everyone
// involved, the sender included.
func (s *stubServer) deliver(from string, p event.SendMessage) {
	s.mu.Lock()
	s.nextMsgID++
	msg := &domain.Message{
		ID:         s.nextMsgID,
		Sender:     from,
		Recipients: p.Recipients,
		Content:    p.Content,
		Timestamp:  time.Now().Format("2006-01-02 15:04:05"),
		Status:     domain.StatusSent,
	}
	if p.FileID != nil {
		if f, ok := s.files[*p.FileID]; ok {
			msg.File = &domain.FileRef{Filename: f.Filename, OriginalName: f.OriginalName, Mimetype: f.Mimetype}
		}
	}
	if p.ReplyTo != nil {
		if original, ok := s.messages[*p.ReplyTo]; ok {
			msg.ReplyTo = &domain.ReplyRef{
				ID:        original.ID,
				Sender:    original.Sender,
				Content:   original.Content,
				Timestamp: original.Timestamp,
			}
		}
	}
	s.messages[msg.ID] = msg
	s.order = append(s.order, msg.ID)
	targets := s.participantsLocked(msg)
	s.mu.Unlock()

	for _, conn := range targets {
		conn.push(event.ReceiveMessageName, event.ReceiveMessage{Message: *msg})
	}
}

// participantsLocked resolves the connections of everyone who should
// see a message: group members for group tokens, the named users plus
// the sender otherwise.
func (s *stubServer) participantsLocked(msg *domain.Message) []*stubConn {
	usernames := map[string]bool{msg.Sender: true}
	if conversation := domain.ConversationID(msg.Recipients); conversation.IsGroup() {
		if id, ok := conversation.GroupID(); ok {
			if g, ok := s.groups[id]; ok {
				for _, m := range g.Members {
					usernames[m.Username] = true
				}
			}
		}
	} else {
		for _, r := range strings.Split(msg.Recipients, ",") {
			usernames[strings.TrimSpace(r)] = true
		}
	}

	var out []*stubConn
	for u := range usernames {
		if conn := s.conns[u]; conn != nil {
			out = append(out, conn)
		}
	}
	return out
}

func (s *stubServer) markRead(msgID int64) {
	s.mu.Lock()
	msg, ok := s.messages[msgID]
	var sender *stubConn
	if ok {
		msg.Status = domain.StatusRead
		sender = s.conns[msg.Sender]
	}
	s.mu.Unlock()

	if sender != nil {
		sender.push(event.MessageReadName, event.MessageRead{MsgID: msgID})
	}
}

func (s *stubServer) relayTyping(from, to string, show bool) {
	name := event.ShowTypingName
	if !show {
		name = event.HideTypingName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conversation := domain.ConversationID(to); conversation.IsGroup() {
		id, ok := conversation.GroupID()
		if !ok {
			return
		}
		g, ok := s.groups[id]
		if !ok {
			return
		}
		for _, m := range g.Members {
			if m.Username == from {
				continue
			}
			if conn := s.conns[m.Username]; conn != nil {
				conn.push(name, event.ShowTyping{From: from, Room: to})
			}
		}
		return
	}
	if conn := s.conns[to]; conn != nil {
		conn.push(name, event.ShowTyping{From: from})
	}
}

func (s *stubServer) react(user string, msgID int64, emoji string, add bool) {
	s.mu.Lock()
	msg, ok := s.messages[msgID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if msg.Reactions == nil {
		msg.Reactions = domain.Reactions{}
	}
	users := msg.Reactions[emoji]
	if add {
		if !msg.HasReacted(emoji, user) {
			msg.Reactions[emoji] = append(users, user)
		}
	} else {
		kept := users[:0]
		for _, u := range users {
			if u != user {
				kept = append(kept, u)
			}
		}
		if len(kept) == 0 {
			delete(msg.Reactions, emoji)
		} else {
			msg.Reactions[emoji] = kept
		}
	}
	payload := event.UpdateReactions{MsgID: msgID, Reactions: msg.Reactions}
	targets := s.participantsLocked(msg)
	s.mu.Unlock()

	for _, conn := range targets {
		conn.push(event.UpdateReactionsName, payload)
	}
}

func (s *stubServer) propagateGroupDeleted(from string, groupID int64) {
	s.mu.Lock()
	members := s.deleted[groupID]
	if g, ok := s.groups[groupID]; ok {
		members = g.MemberNames()
		delete(s.groups, groupID)
	}
	var targets []*stubConn
	for _, m := range members {
		if m == from {
			continue
		}
		if conn := s.conns[m]; conn != nil {
			targets = append(targets, conn)
		}
	}
	delete(s.deleted, groupID)
	s.mu.Unlock()

	for _, conn := range targets {
		conn.push(event.GroupDeletedName, event.GroupDeleted{GroupID: groupID})
	}
}

func (s *stubServer) broadcastUserList() {
	s.mu.Lock()
	var targets []*stubConn
	for _, conn := range s.conns {
		targets = append(targets, conn)
	}
	s.mu.Unlock()

	for _, conn := range targets {
		conn.push(event.UserListName, event.UserList{})
	}
}

func (s *stubServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	groupID := r.URL.Query().Get("group_id")

	s.mu.Lock()
	var out []domain.Message
	for _, id := range s.order {
		msg := s.messages[id]
		if groupID != "" {
			if msg.Recipients == "group-"+groupID {
				out = append(out, *msg)
			}
			continue
		}
		if msg.Sender == user || strings.Contains(msg.Recipients, user) {
			if !domain.ConversationID(msg.Recipients).IsGroup() {
				out = append(out, *msg)
			}
		}
	}
	s.mu.Unlock()

	writeJSON(w, out)
}

func (s *stubServer) handleUsersStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var out []domain.RosterEntry
	for u := range s.seen {
		out = append(out, domain.RosterEntry{Username: u, Online: s.conns[u] != nil})
	}
	s.mu.Unlock()
	writeJSON(w, out)
}

func (s *stubServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := []domain.GroupSummary{}
	for _, g := range s.groups {
		out = append(out, domain.GroupSummary{ID: g.ID, Name: g.Name, Icon: g.Icon, CreatedBy: g.CreatedBy})
	}
	s.mu.Unlock()
	writeJSON(w, out)
}

func (s *stubServer) handleGroupInfo(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	g, ok := s.groups[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"error": "group not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, g)
}

func (s *stubServer) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Icon        string   `json:"icon"`
		Members     []string `json:"members"`
		Admins      []string `json:"admins"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, map[string]any{"success": false, "error": "bad request"})
		return
	}

	admins := map[string]bool{}
	for _, a := range body.Admins {
		admins[a] = true
	}

	s.mu.Lock()
	s.nextGroupID++
	g := &domain.Group{
		ID:          s.nextGroupID,
		Name:        body.Name,
		Description: body.Description,
		Icon:        body.Icon,
	}
	for _, m := range body.Members {
		g.Members = append(g.Members, domain.GroupMember{Username: m, IsAdmin: admins[m]})
	}
	s.groups[g.ID] = g
	s.mu.Unlock()

	writeJSON(w, map[string]any{"success": true, "group_id": g.ID})
}

func (s *stubServer) handleGroupAction(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	action := chi.URLParam(r, "action")

	s.mu.Lock()
	g, ok := s.groups[id]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, map[string]any{"success": false, "error": "group not found"})
		return
	}
	switch action {
	case "update":
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if json.NewDecoder(r.Body).Decode(&body) == nil {
			g.Name = body.Name
			g.Description = body.Description
		}
	case "admin_only":
		var body struct {
			AdminOnly bool `json:"admin_only"`
		}
		if json.NewDecoder(r.Body).Decode(&body) == nil {
			g.AdminOnly = body.AdminOnly
		}
	case "delete":
		// Membership is remembered so the follow-up group_deleted
		// event still reaches the other members.
		s.deleted[id] = g.MemberNames()
		delete(s.groups, id)
	case "set_members_admins", "mute", "unmute", "leave":
		// Accepted; membership bookkeeping is not needed by the scenario.
	default:
		s.mu.Unlock()
		writeJSON(w, map[string]any{"success": false, "error": "unknown action"})
		return
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"success": true})
}

func (s *stubServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error": "missing file"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	s.mu.Lock()
	s.nextFileID++
	id := s.nextFileID
	record := fileRecord{
		Filename:     fmt.Sprintf("%d_%s", id, header.Filename),
		OriginalName: header.Filename,
		Mimetype:     header.Header.Get("Content-Type"),
	}
	s.files[id] = record
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"file_id":       id,
		"filename":      record.Filename,
		"original_name": record.OriginalName,
		"mimetype":      record.Mimetype,
	})
}

func (s *stubServer) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	_, ok := s.messages[id]
	delete(s.messages, id)
	for i, known := range s.order {
		if known == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, map[string]any{"success": false, "error": "message not found"})
		return
	}
	writeJSON(w, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
