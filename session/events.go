package session

import (
	"context"
	"fmt"

	"chat-console/domain"
	"chat-console/domain/event"
	"chat-console/errors"
)

// Consume routes one decoded server event into the state machine. It
// implements contract.EventSink; the channel calls it from its read
// loop, so handlers must not block on the network beyond quick fetches.
func (c *Controller) Consume(ctx context.Context, name string, payload any) error {
	switch p := payload.(type) {
	case event.ReceiveMessage:
		return c.onReceiveMessage(&p.Message)
	case event.MessageRead:
		c.onMessageRead(p.MsgID)
	case event.UserList:
		return c.refreshRoster(ctx)
	case event.ShowTyping:
		c.onTyping(p.From, p.Room, true)
	case event.HideTyping:
		c.onTyping(p.From, p.Room, false)
	case event.UpdateReactions:
		c.onUpdateReactions(p.MsgID, p.Reactions)
	case event.GroupDeleted:
		c.onGroupDeleted(p.GroupID)
	case event.GroupAdminOnlyError:
		c.mu.Lock()
		c.lastError = p.Error
		c.mu.Unlock()
	case event.NewUserRequest, event.NewPasswordResetRequest:
		c.mu.Lock()
		c.adminNotices++
		c.mu.Unlock()
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownEvent, name)
	}
	return nil
}

// onReceiveMessage applies the ownership rule: render live in the open
// conversation, or count a badge and promote the source conversation.
func (c *Controller) onReceiveMessage(msg *domain.Message) error {
	c.mu.Lock()
	if domain.AddressedToActive(msg, c.self, c.active) {
		c.renderLocked(msg)
		c.mu.Unlock()
	} else if target, ok := domain.BadgeTarget(msg, c.self); ok {
		c.badges[target]++
		if target.IsGroup() {
			c.promoteGroupLocked(target)
		} else {
			c.roster.Promote(string(target))
		}
		c.mu.Unlock()
	} else {
		c.mu.Unlock()
		return nil
	}

	if msg.Sender != c.self {
		if err := c.alerter.MessageReceived(msg); err != nil {
			c.log.Debug("Notification suppressed", "error", err)
		}
	}
	return nil
}

// onMessageRead is the read-receipt echo: every stored copy of the id
// flips to read, other sessions of the same user included.
func (c *Controller) onMessageRead(msgID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.messages[msgID]
	if !ok {
		return
	}
	msg.MarkRead()
	c.renderLocked(msg)
}

func (c *Controller) onTyping(from, room string, show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.matchesActive(from, room) {
		return
	}
	if show {
		c.typingFrom = from
		return
	}
	if c.typingFrom == from {
		c.typingFrom = ""
	}
}

func (c *Controller) onUpdateReactions(msgID int64, reactions domain.Reactions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.messages[msgID]
	if !ok {
		return
	}
	msg.SetReactions(reactions)
	c.renderLocked(msg)
}

// onGroupDeleted converges on a group deletion done elsewhere: the
// group leaves the list, and the conversation closes if it was open.
func (c *Controller) onGroupDeleted(groupID int64) {
	conversation := domain.GroupConversation(groupID)

	c.mu.Lock()
	kept := c.groups[:0]
	for _, g := range c.groups {
		if g.ID != groupID {
			kept = append(kept, g)
		}
	}
	c.groups = kept
	delete(c.badges, conversation)
	wasOpen := c.active == conversation
	c.mu.Unlock()

	if wasOpen {
		c.Close()
	}
}
