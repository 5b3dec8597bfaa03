// Package event defines the bit-exact wire contract of the event
// channel: event names, payload shapes, and the JSON envelope. This is
// the boundary that must interoperate with the existing server.
package event

import "chat-console/domain"

// Server-pushed event names.
const (
	ReceiveMessageName          = "receive_message"
	MessageReadName             = "message_read"
	UserListName                = "user_list"
	ShowTypingName              = "show_typing"
	HideTypingName              = "hide_typing"
	UpdateReactionsName         = "update_reactions"
	GroupDeletedName            = "group_deleted"
	GroupAdminOnlyErrorName     = "group_admin_only_error"
	NewUserRequestName          = "new_user_request"
	NewPasswordResetRequestName = "new_password_reset_request"
)

// Client-emitted event names. message_read and group_deleted travel in
// both directions with the same payload.
const (
	JoinName           = "join"
	LeaveName          = "leave"
	SendMessageName    = "send_message"
	TypingName         = "typing"
	StopTypingName     = "stop_typing"
	ReactMessageName   = "react_message"
	RemoveReactionName = "remove_reaction"
)

// ReceiveMessage carries a full message record.
type ReceiveMessage struct {
	domain.Message
}

// MessageRead is both the ack a client emits after rendering a
// counterpart message and the echo the server pushes to the sender.
type MessageRead struct {
	MsgID int64 `json:"msg_id"`
}

// UserList signals that the roster changed; the payload carries the
// online usernames but clients refetch /users_status wholesale instead
// of trusting it.
type UserList struct {
	Users []string `json:"-"`
}

// Typing indicators. Room is set for group conversations only.
type ShowTyping struct {
	From string `json:"from"`
	Room string `json:"room,omitempty"`
}

type HideTyping struct {
	From string `json:"from"`
	Room string `json:"room,omitempty"`
}

// UpdateReactions replaces the reaction map of one message.
type UpdateReactions struct {
	MsgID     int64            `json:"msg_id"`
	Reactions domain.Reactions `json:"reactions"`
}

// GroupDeleted propagates a group deletion to all connected members.
type GroupDeleted struct {
	GroupID int64 `json:"group_id"`
}

// GroupAdminOnlyError is pushed to a non-admin who tried to post in an
// admin-only group. The gate itself lives server-side.
type GroupAdminOnlyError struct {
	Error string `json:"error"`
}

// Admin notifications.
type NewUserRequest struct {
	Username    string `json:"username"`
	RequestedBy string `json:"requested_by"`
}

type NewPasswordResetRequest struct {
	Username string `json:"username"`
}

// Emitted payloads.

type Join struct {
	Room string `json:"room"`
}

type Leave struct {
	Room string `json:"room"`
}

// SendMessage references an upload by id; the upload must have
// completed before this event is emitted.
type SendMessage struct {
	Recipients string `json:"recipients"`
	Content    string `json:"content"`
	ReplyTo    *int64 `json:"reply_to,omitempty"`
	FileID     *int64 `json:"file_id,omitempty"`
}

type Typing struct {
	To string `json:"to"`
}

type StopTyping struct {
	To string `json:"to"`
}

type ReactMessage struct {
	MsgID int64  `json:"msg_id"`
	Emoji string `json:"emoji"`
}

type RemoveReaction struct {
	MsgID int64  `json:"msg_id"`
	Emoji string `json:"emoji"`
}
