// Package notify raises desktop notifications for messages that arrive
// while the window lacks focus. Delivery is gated on an explicit
// permission state, mirroring the browser permission model.
package notify

import (
	"fmt"
	"log/slog"

	"chat-console/domain"
	"chat-console/errors"
)

// Permission states for desktop notifications.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notifier is the OS-level delivery mechanism.
type Notifier interface {
	Notify(title, body string) error
}

// FocusTracker reports whether the chat window currently has focus.
type FocusTracker interface {
	Focused() bool
}

// Manager decides when a notification actually fires.
type Manager struct {
	notifier   Notifier
	focus      FocusTracker
	permission Permission
	log        *slog.Logger
}

func NewManager(notifier Notifier, focus FocusTracker, log *slog.Logger) *Manager {
	return &Manager{
		notifier:   notifier,
		focus:      focus,
		permission: PermissionDefault,
		log:        log,
	}
}

// SetPermission records the user's answer to the permission prompt.
func (m *Manager) SetPermission(p Permission) {
	m.permission = p
}

// MessageReceived raises a notification for an incoming message unless
// the window has focus or permission was not granted. Files with no
// text fall back to a generic body.
func (m *Manager) MessageReceived(msg *domain.Message) error {
	if m.permission != PermissionGranted {
		return errors.ErrPermissionNotGiven
	}
	if m.focus.Focused() {
		return nil
	}

	body := msg.Content
	if body == "" && msg.File != nil {
		body = "Sent a file"
	}
	title := fmt.Sprintf("New message from %s", msg.Sender)
	if err := m.notifier.Notify(title, body); err != nil {
		m.log.Debug("Notification failed", "error", err)
		return err
	}
	return nil
}
