package session

import (
	"context"

	"chat-console/domain"
	"chat-console/domain/event"
)

// Group lifecycle: every mutation is an HTTP action followed by a
// wholesale group-list refresh, so the local list always reflects the
// server's answer rather than an optimistic guess.

// CreateGroup validates and creates a group, returning its id. The
// creator is always part of the member and admin sets.
func (c *Controller) CreateGroup(ctx context.Context, cmd domain.CreateGroupCommand) (int64, error) {
	cmd.Normalize(c.self)
	if err := cmd.Validate(); err != nil {
		return 0, err
	}
	groupID, err := c.backend.CreateGroup(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return groupID, c.refreshGroups(ctx)
}

func (c *Controller) UpdateGroup(ctx context.Context, cmd domain.UpdateGroupCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := c.backend.UpdateGroup(ctx, cmd); err != nil {
		return err
	}
	return c.refreshGroups(ctx)
}

func (c *Controller) SetMembersAdmins(ctx context.Context, cmd domain.SetMembersCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := c.backend.SetMembersAdmins(ctx, cmd); err != nil {
		return err
	}
	return c.refreshGroups(ctx)
}

func (c *Controller) SetAdminOnly(ctx context.Context, groupID int64, adminOnly bool) error {
	return c.backend.SetAdminOnly(ctx, groupID, adminOnly)
}

// DeleteGroup removes the group server-side, emits group_deleted so
// other members converge, and applies the same local close that the
// incoming event would.
func (c *Controller) DeleteGroup(ctx context.Context, groupID int64) error {
	if err := c.backend.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	if err := c.emitter.Send(event.GroupDeletedName, event.GroupDeleted{GroupID: groupID}); err != nil {
		c.log.Debug("Group deleted broadcast failed", "group_id", groupID, "error", err)
	}
	c.onGroupDeleted(groupID)
	return nil
}

func (c *Controller) MuteGroup(ctx context.Context, groupID int64) error {
	if err := c.backend.MuteGroup(ctx, groupID); err != nil {
		return err
	}
	return c.refreshGroups(ctx)
}

func (c *Controller) UnmuteGroup(ctx context.Context, groupID int64) error {
	if err := c.backend.UnmuteGroup(ctx, groupID); err != nil {
		return err
	}
	return c.refreshGroups(ctx)
}

// LeaveGroup removes self from the group and closes it when open.
func (c *Controller) LeaveGroup(ctx context.Context, groupID int64) error {
	if err := c.backend.LeaveGroup(ctx, groupID); err != nil {
		return err
	}
	conversation := domain.GroupConversation(groupID)
	c.mu.Lock()
	wasOpen := c.active == conversation
	delete(c.badges, conversation)
	c.mu.Unlock()
	if wasOpen {
		c.Close()
	}
	return c.refreshGroups(ctx)
}

// GroupInfo fetches the full record of one group.
func (c *Controller) GroupInfo(ctx context.Context, groupID int64) (*domain.Group, error) {
	return c.backend.GroupInfo(ctx, groupID)
}
