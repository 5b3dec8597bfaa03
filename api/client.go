// Package api is the HTTP client for the server-owned REST surface:
// history, roster status, group lifecycle, uploads, message deletion.
// All durable state lives on the server; this package never caches.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"chat-console/domain"
	"chat-console/errors"

	"github.com/gabriel-vasile/mimetype"
)

const defaultTimeout = 30 * time.Second

// Client talks to one chat server. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

// actionReply is the {success, error} shape every mutating endpoint
// returns. A missing success flag counts as failure (generic fallback).
type actionReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (r actionReply) err() error {
	if r.Success {
		return nil
	}
	if r.Error != "" {
		return fmt.Errorf("%w: %s", errors.ErrServerRejected, r.Error)
	}
	return fmt.Errorf("%w: unknown error", errors.ErrServerRejected)
}

// History fetches the recent messages of a direct conversation or, for
// group tokens, of the group room. Messages come back oldest first.
func (c *Client) History(ctx context.Context, conversation domain.ConversationID) ([]domain.Message, error) {
	query := url.Values{}
	if groupID, ok := conversation.GroupID(); ok {
		query.Set("group_id", strconv.FormatInt(groupID, 10))
	} else {
		query.Set("user", conversation.String())
	}

	var messages []domain.Message
	if err := c.getJSON(ctx, "/history?"+query.Encode(), &messages); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return messages, nil
}

// UsersStatus returns every user with their online flag. The roster is
// always refreshed wholesale from this endpoint.
func (c *Client) UsersStatus(ctx context.Context) ([]domain.RosterEntry, error) {
	var entries []domain.RosterEntry
	if err := c.getJSON(ctx, "/users_status", &entries); err != nil {
		return nil, fmt.Errorf("users status: %w", err)
	}
	return entries, nil
}

// Groups lists the groups the current user belongs to.
func (c *Client) Groups(ctx context.Context) ([]domain.GroupSummary, error) {
	var groups []domain.GroupSummary
	if err := c.getJSON(ctx, "/groups", &groups); err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}
	return groups, nil
}

// GroupInfo returns the full record of one group, members included.
func (c *Client) GroupInfo(ctx context.Context, groupID int64) (*domain.Group, error) {
	var group domain.Group
	if err := c.getJSON(ctx, fmt.Sprintf("/groups/%d", groupID), &group); err != nil {
		return nil, fmt.Errorf("group info: %w", err)
	}
	return &group, nil
}

type createGroupReply struct {
	actionReply
	GroupID int64 `json:"group_id"`
}

// CreateGroup creates a group and returns its server-assigned id.
func (c *Client) CreateGroup(ctx context.Context, cmd domain.CreateGroupCommand) (int64, error) {
	body := map[string]any{
		"name":        cmd.Name,
		"description": cmd.Description,
		"icon":        cmd.Icon,
		"members":     cmd.Members,
		"admins":      cmd.Admins,
	}
	var reply createGroupReply
	if err := c.postJSON(ctx, "/groups", body, &reply); err != nil {
		return 0, fmt.Errorf("create group: %w", err)
	}
	if err := reply.err(); err != nil {
		return 0, fmt.Errorf("create group: %w", err)
	}
	return reply.GroupID, nil
}

// UpdateGroup changes name and description.
func (c *Client) UpdateGroup(ctx context.Context, cmd domain.UpdateGroupCommand) error {
	body := map[string]any{"name": cmd.Name, "description": cmd.Description}
	return c.groupAction(ctx, cmd.GroupID, "update", body)
}

// SetMembersAdmins replaces the member and admin sets.
func (c *Client) SetMembersAdmins(ctx context.Context, cmd domain.SetMembersCommand) error {
	body := map[string]any{"members": cmd.Members, "admins": cmd.Admins}
	return c.groupAction(ctx, cmd.GroupID, "set_members_admins", body)
}

// SetAdminOnly toggles admin-only posting. Enforcement is server-side.
func (c *Client) SetAdminOnly(ctx context.Context, groupID int64, adminOnly bool) error {
	return c.groupAction(ctx, groupID, "admin_only", map[string]any{"admin_only": adminOnly})
}

func (c *Client) DeleteGroup(ctx context.Context, groupID int64) error {
	return c.groupAction(ctx, groupID, "delete", nil)
}

func (c *Client) MuteGroup(ctx context.Context, groupID int64) error {
	return c.groupAction(ctx, groupID, "mute", nil)
}

func (c *Client) UnmuteGroup(ctx context.Context, groupID int64) error {
	return c.groupAction(ctx, groupID, "unmute", nil)
}

func (c *Client) LeaveGroup(ctx context.Context, groupID int64) error {
	return c.groupAction(ctx, groupID, "leave", nil)
}

// DeleteMessage removes a message server-side.
func (c *Client) DeleteMessage(ctx context.Context, msgID int64) error {
	var reply actionReply
	if err := c.postJSON(ctx, fmt.Sprintf("/delete_message/%d", msgID), nil, &reply); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if err := reply.err(); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// UploadResult is the server's reference to a persisted blob. The
// file_id is what a subsequent send_message must carry.
type UploadResult struct {
	FileID       int64  `json:"file_id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Mimetype     string `json:"mimetype"`
}

// Upload persists a blob out-of-band before the message referencing it
// is emitted. The content type is sniffed when the caller didn't set one.
func (c *Client) Upload(ctx context.Context, file *domain.PendingFile) (*UploadResult, error) {
	contentType := file.Mimetype
	if contentType == "" {
		contentType = mimetype.Detect(file.Data).String()
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreatePart(partHeader(file.Name, contentType))
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if _, err = part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", errors.ErrUploadFailed, readError(resp.Body))
	}

	var result UploadResult
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUploadFailed, err)
	}
	if result.FileID == 0 {
		// The success flag here is the presence of a file_id.
		return nil, fmt.Errorf("%w: no file reference returned", errors.ErrUploadFailed)
	}
	c.log.Debug("Upload complete", "file_id", result.FileID, "mimetype", result.Mimetype)
	return &result, nil
}

func (c *Client) groupAction(ctx context.Context, groupID int64, action string, body any) error {
	var reply actionReply
	path := fmt.Sprintf("/groups/%d/%s", groupID, action)
	if err := c.postJSON(ctx, path, body, &reply); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrGroupActionFailed, action, err)
	}
	if err := reply.err(); err != nil {
		return fmt.Errorf("group %s: %w", action, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", errors.ErrServerRejected, readError(resp.Body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readError extracts the {"error": ...} body when there is one, or
// falls back to a generic message.
func readError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return "unknown error"
}
