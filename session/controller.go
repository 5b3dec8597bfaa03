// Package session holds the sync core: one Controller owning all
// client-side state (active conversation, drafts, badges, roster,
// composer) and reconciling it against server events. Every transition
// goes through one mutex, mirroring the single-threaded model the
// server-owned protocol assumes.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chat-console/api"
	"chat-console/contract"
	"chat-console/domain"
	"chat-console/domain/event"
	"chat-console/media"
	"chat-console/view"
)

const defaultTypingTimeout = 1500 * time.Millisecond

// Backend is the REST surface the controller needs. *api.Client
// implements it; tests substitute a fake.
type Backend interface {
	History(ctx context.Context, conversation domain.ConversationID) ([]domain.Message, error)
	UsersStatus(ctx context.Context) ([]domain.RosterEntry, error)
	Groups(ctx context.Context) ([]domain.GroupSummary, error)
	GroupInfo(ctx context.Context, groupID int64) (*domain.Group, error)
	CreateGroup(ctx context.Context, cmd domain.CreateGroupCommand) (int64, error)
	UpdateGroup(ctx context.Context, cmd domain.UpdateGroupCommand) error
	SetMembersAdmins(ctx context.Context, cmd domain.SetMembersCommand) error
	SetAdminOnly(ctx context.Context, groupID int64, adminOnly bool) error
	DeleteGroup(ctx context.Context, groupID int64) error
	MuteGroup(ctx context.Context, groupID int64) error
	UnmuteGroup(ctx context.Context, groupID int64) error
	LeaveGroup(ctx context.Context, groupID int64) error
	DeleteMessage(ctx context.Context, msgID int64) error
	Upload(ctx context.Context, file *domain.PendingFile) (*api.UploadResult, error)
}

// Alerter raises desktop notifications. *notify.Manager implements it.
type Alerter interface {
	MessageReceived(msg *domain.Message) error
}

// Controller is the single owner of presentation state. Safe for
// concurrent use; server events and user actions serialize on one lock.
type Controller struct {
	mu sync.Mutex

	self    string
	emitter contract.Emitter
	backend Backend
	alerter Alerter
	log     *slog.Logger

	active   domain.ConversationID
	timeline *view.Timeline
	messages map[int64]*domain.Message
	lastID   int64

	drafts *domain.DraftBook
	text   string
	file   *domain.PendingFile
	reply  *int64

	badges map[domain.ConversationID]int
	roster domain.Roster
	groups []domain.GroupSummary

	typingTimeout time.Duration
	typingTimer   *time.Timer
	typingOut     bool
	typingFrom    string

	recorder *media.Recorder
	previews *media.PreviewStore

	adminNotices int
	lastError    string
}

type Option func(*Controller)

// WithTypingTimeout overrides the stop_typing delay.
func WithTypingTimeout(d time.Duration) Option {
	return func(c *Controller) { c.typingTimeout = d }
}

// WithRecorder plugs an audio capture source.
func WithRecorder(r *media.Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func NewController(self string, emitter contract.Emitter, backend Backend, alerter Alerter, log *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		self:          self,
		emitter:       emitter,
		backend:       backend,
		alerter:       alerter,
		log:           log,
		timeline:      view.NewTimeline(),
		messages:      make(map[int64]*domain.Message),
		drafts:        domain.NewDraftBook(),
		badges:        make(map[domain.ConversationID]int),
		typingTimeout: defaultTypingTimeout,
		previews:      media.NewPreviewStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open switches the active conversation: the current draft is saved,
// the target's draft restored, its badge cleared, its room joined when
// it is a group, and its history reloaded through the renderer. A
// failed group join aborts the switch with all prior state intact.
func (c *Controller) Open(ctx context.Context, conversation domain.ConversationID) error {
	if conversation.IsGroup() {
		if err := c.emitter.Send(event.JoinName, event.Join{Room: conversation.String()}); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.stashDraftLocked()
	c.stopTypingLocked()

	previous := c.active
	c.active = conversation
	c.typingFrom = ""
	c.lastError = ""
	delete(c.badges, conversation)

	draft := c.drafts.Restore(conversation)
	c.text = draft.Text
	c.file = draft.File
	c.reply = nil
	c.mu.Unlock()

	if previous.IsGroup() && previous != conversation {
		if err := c.emitter.Send(event.LeaveName, event.Leave{Room: previous.String()}); err != nil {
			c.log.Debug("Leave failed", "room", previous, "error", err)
		}
	}
	return c.reloadHistory(ctx, conversation)
}

// Close abandons the active conversation, releasing its preview.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stashDraftLocked()
	c.stopTypingLocked()
	c.previews.ReleaseAll(c.active)
	c.active = ""
	c.text = ""
	c.file = nil
	c.reply = nil
	c.typingFrom = ""
	c.timeline.Clear()
	c.messages = make(map[int64]*domain.Message)
}

// Resync refreshes everything the server owns: roster, group list and
// the active conversation's history. The channel calls it after every
// (re)connect.
func (c *Controller) Resync(ctx context.Context) error {
	if err := c.refreshRoster(ctx); err != nil {
		return err
	}
	if err := c.refreshGroups(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if active == "" {
		return nil
	}
	return c.reloadHistory(ctx, active)
}

func (c *Controller) reloadHistory(ctx context.Context, conversation domain.ConversationID) error {
	history, err := c.backend.History(ctx, conversation)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != conversation {
		// Switched again while the fetch was in flight.
		return nil
	}
	c.timeline.Clear()
	c.messages = make(map[int64]*domain.Message)
	for i := range history {
		msg := history[i]
		c.renderLocked(&msg)
	}
	return nil
}

// renderLocked stores and renders one message. A counterpart message
// not yet read is acknowledged with an emitted message_read before the
// node is built, so its ticks render in the read state everywhere.
func (c *Controller) renderLocked(msg *domain.Message) {
	c.messages[msg.ID] = msg
	if !msg.IsOwn(c.self) && !msg.IsRead() {
		msg.MarkRead()
		if err := c.emitter.Send(event.MessageReadName, event.MessageRead{MsgID: msg.ID}); err != nil {
			c.log.Debug("Read ack failed", "msg_id", msg.ID, "error", err)
		}
	}

	_, known := c.timeline.Get(msg.ID)
	latest := !known || msg.ID == c.lastID
	if appended := c.timeline.Upsert(msg.ID, view.RenderMessage(msg, c.self, latest)); appended {
		if previous, ok := c.messages[c.lastID]; ok && c.lastID != msg.ID {
			c.timeline.Upsert(c.lastID, view.RenderMessage(previous, c.self, false))
		}
		c.lastID = msg.ID
	}
}

func (c *Controller) refreshRoster(ctx context.Context) error {
	entries, err := c.backend.UsersStatus(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.roster.Replace(entries, c.self)
	c.mu.Unlock()
	return nil
}

// promoteGroupLocked moves a group to the top of the list, the group
// counterpart of Roster.Promote.
func (c *Controller) promoteGroupLocked(conversation domain.ConversationID) {
	id, ok := conversation.GroupID()
	if !ok {
		return
	}
	for i, g := range c.groups {
		if g.ID == id {
			c.groups = append([]domain.GroupSummary{g}, append(c.groups[:i:i], c.groups[i+1:]...)...)
			return
		}
	}
}

func (c *Controller) refreshGroups(ctx context.Context) error {
	groups, err := c.backend.Groups(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.groups = groups
	c.mu.Unlock()
	return nil
}

func (c *Controller) stashDraftLocked() {
	if c.active == "" {
		return
	}
	draft := domain.Draft{Text: c.text, File: c.file}
	if draft.Empty() {
		c.drafts.Clear(c.active)
		return
	}
	c.drafts.Save(c.active, draft)
}

func (c *Controller) stopTypingLocked() {
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	if !c.typingOut {
		return
	}
	c.typingOut = false
	to := c.active.String()
	if err := c.emitter.Send(event.StopTypingName, event.StopTyping{To: to}); err != nil {
		c.log.Debug("Stop typing failed", "to", to, "error", err)
	}
}

// matchesActive reports whether a typing indicator concerns the open
// conversation. Groups carry the room token; direct chats only a sender.
func (c *Controller) matchesActive(from, room string) bool {
	if c.active == "" {
		return false
	}
	if room != "" {
		return c.active.String() == room
	}
	return c.active.String() == from && !strings.HasPrefix(from, "group-")
}

// Accessors used by the front-end and the state inspector. All return
// copies.

func (c *Controller) Self() string { return c.self }

func (c *Controller) Active() domain.ConversationID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) Badges() map[domain.ConversationID]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[domain.ConversationID]int, len(c.badges))
	for k, v := range c.badges {
		out[k] = v
	}
	return out
}

func (c *Controller) BadgeCount(conversation domain.ConversationID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.badges[conversation]
}

func (c *Controller) Nodes() []*view.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeline.Nodes()
}

func (c *Controller) TimelineIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeline.IDs()
}

func (c *Controller) RosterEntries() []domain.RosterEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roster.Entries()
}

func (c *Controller) GroupList() []domain.GroupSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.GroupSummary, len(c.groups))
	copy(out, c.groups)
	return out
}

func (c *Controller) Draft() domain.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Draft{Text: c.text, File: c.file}
}

func (c *Controller) TypingFrom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typingFrom
}

func (c *Controller) AdminNotices() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adminNotices
}

// LastError returns and clears the transient composer error.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := c.lastError
	c.lastError = ""
	return msg
}

// Previews exposes the preview store for leak checks.
func (c *Controller) Previews() *media.PreviewStore { return c.previews }

var _ contract.EventSink = (*Controller)(nil)
