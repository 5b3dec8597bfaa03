package domain

import (
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// SendCommand is what the composer hands to the controller.
// Exactly one upload (file or recording) may accompany a send; the
// send_message emission waits for the upload response.
type SendCommand struct {
	Content string
	File    *PendingFile
	ReplyTo *int64
}

// Empty reports whether there is nothing to send at all.
func (c SendCommand) Empty() bool {
	return c.Content == "" && c.File == nil
}

// CreateGroupCommand creates a group. The creator is always folded into
// both members and admins, mirroring the server's rule.
type CreateGroupCommand struct {
	Name        string   `validate:"required"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Members     []string `validate:"required,min=1"`
	Admins      []string
}

// Normalize folds self into members/admins and deduplicates both.
func (c *CreateGroupCommand) Normalize(self string) {
	c.Members = lo.Uniq(append(c.Members, self))
	c.Admins = lo.Uniq(append(c.Admins, self))
}

func (c CreateGroupCommand) Validate() error {
	return validate.Struct(c)
}

// UpdateGroupCommand changes name/description of an existing group.
type UpdateGroupCommand struct {
	GroupID     int64  `validate:"required"`
	Name        string `validate:"required"`
	Description string
}

func (c UpdateGroupCommand) Validate() error {
	return validate.Struct(c)
}

// SetMembersCommand replaces the member and admin sets of a group.
type SetMembersCommand struct {
	GroupID int64    `validate:"required"`
	Members []string `validate:"required,min=1"`
	Admins  []string
}

func (c SetMembersCommand) Validate() error {
	return validate.Struct(c)
}
