package session

import (
	"context"
	"strings"
	"time"

	"chat-console/domain"
	"chat-console/domain/event"
	"chat-console/errors"
)

// SetText updates the composer text and drives the typing protocol:
// the first keystroke emits typing{to: active} and every keystroke
// re-arms the stop_typing timer.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text
	if c.active == "" || text == "" {
		return
	}

	to := c.active.String()
	if !c.typingOut {
		c.typingOut = true
		if err := c.emitter.Send(event.TypingName, event.Typing{To: to}); err != nil {
			c.log.Debug("Typing emit failed", "to", to, "error", err)
		}
	}
	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(c.typingTimeout, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.typingOut {
			return
		}
		c.typingOut = false
		c.typingTimer = nil
		if err := c.emitter.Send(event.StopTypingName, event.StopTyping{To: to}); err != nil {
			c.log.Debug("Stop typing failed", "to", to, "error", err)
		}
	})
}

// AttachFile selects a local file for the next send and opens a scoped
// preview on it. A second selection replaces (and releases) the first.
func (c *Controller) AttachFile(name, mime string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return errors.ErrNoActiveChat
	}
	c.file = &domain.PendingFile{Name: name, Mimetype: mime, Data: data}
	c.previews.Acquire(c.active, name, mime)
	return nil
}

// ClearAttachment drops the pending file and releases its preview.
func (c *Controller) ClearAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file = nil
	c.previews.ReleaseAll(c.active)
}

// SetReply targets a rendered message for the next send.
func (c *Controller) SetReply(msgID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.messages[msgID]; !ok {
		return errors.ErrMessageNotFound
	}
	c.reply = &msgID
	return nil
}

func (c *Controller) ClearReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reply = nil
}

// Send emits the composer content to the active conversation. With an
// attachment the upload happens first and send_message is only emitted
// once the server has returned a file id; an upload failure leaves the
// composer untouched. Success clears text, attachment, reply target and
// the conversation's draft.
func (c *Controller) Send(ctx context.Context) error {
	c.mu.Lock()
	conversation := c.active
	if conversation == "" {
		c.mu.Unlock()
		return errors.ErrNoActiveChat
	}
	cmd := domain.SendCommand{
		Content: strings.TrimSpace(c.text),
		File:    c.file,
		ReplyTo: c.reply,
	}
	if cmd.Empty() {
		c.mu.Unlock()
		return errors.ErrEmptyMessage
	}
	c.stopTypingLocked()
	c.mu.Unlock()

	var fileID *int64
	if cmd.File != nil {
		result, err := c.backend.Upload(ctx, cmd.File)
		if err != nil {
			return err
		}
		fileID = &result.FileID
	}

	payload := event.SendMessage{
		Recipients: conversation.String(),
		Content:    cmd.Content,
		ReplyTo:    cmd.ReplyTo,
		FileID:     fileID,
	}
	if err := c.emitter.Send(event.SendMessageName, payload); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == conversation {
		c.text = ""
		c.file = nil
		c.reply = nil
	}
	c.drafts.Clear(conversation)
	c.previews.ReleaseAll(conversation)
	return nil
}

// ToggleReaction emits react_message or remove_reaction depending on
// whether self already reacted with that emoji. The local reaction map
// only changes when the server pushes update_reactions back.
func (c *Controller) ToggleReaction(msgID int64, emoji string) error {
	c.mu.Lock()
	msg, ok := c.messages[msgID]
	if !ok {
		c.mu.Unlock()
		return errors.ErrMessageNotFound
	}
	reacted := msg.HasReacted(emoji, c.self)
	c.mu.Unlock()

	if reacted {
		return c.emitter.Send(event.RemoveReactionName, event.RemoveReaction{MsgID: msgID, Emoji: emoji})
	}
	return c.emitter.Send(event.ReactMessageName, event.ReactMessage{MsgID: msgID, Emoji: emoji})
}

// ToggleRecording starts audio capture, or stops it and attaches the
// captured blob to the composer. It reports whether a recording is in
// flight after the call.
func (c *Controller) ToggleRecording(ctx context.Context) (bool, error) {
	if c.recorder == nil {
		return false, errors.ErrMicrophoneDenied
	}
	if !c.recorder.Recording() {
		if _, err := c.recorder.Start(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	blob, err := c.recorder.Stop()
	if err != nil {
		return false, err
	}
	return false, c.AttachFile(blob.Name, blob.Mimetype, blob.Data)
}

// DeleteMessage removes a message server-side, then locally.
func (c *Controller) DeleteMessage(ctx context.Context, msgID int64) error {
	if err := c.backend.DeleteMessage(ctx, msgID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeline.Remove(msgID)
	delete(c.messages, msgID)
	return nil
}
