package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-station-inbox/core"
)

type UploadService interface {
	UploadPhoto(ctx context.Context, req core.UploadPhotoRequest) (core.InboxResponse, error)
	ReportProblem(ctx context.Context, req core.ReportProblemRequest) (core.InboxResponse, error)
}

type ModerationService interface {
	ProcessAdminCommand(ctx context.Context, cmd core.AdminCommand) error
	DeleteUserInboxEntry(ctx context.Context, user core.User, id string) error
}

type UploadPhotoCommand struct {
	service UploadService
}

func NewUploadPhotoCommand(service UploadService) *UploadPhotoCommand {
	return &UploadPhotoCommand{service: service}
}

// Execute stores the InboxResponse in the result collector. Rejected uploads
// are reported through the response state, not as an error.
func (c *UploadPhotoCommand) Execute(ctx context.Context, msg UploadPhotoMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: upload service is required")
	}
	out, err := c.service.UploadPhoto(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReportProblemCommand struct {
	service UploadService
}

func NewReportProblemCommand(service UploadService) *ReportProblemCommand {
	return &ReportProblemCommand{service: service}
}

func (c *ReportProblemCommand) Execute(ctx context.Context, msg ReportProblemMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: problem report service is required")
	}
	out, err := c.service.ReportProblem(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ProcessAdminCommand struct {
	service ModerationService
}

func NewProcessAdminCommand(service ModerationService) *ProcessAdminCommand {
	return &ProcessAdminCommand{service: service}
}

func (c *ProcessAdminCommand) Execute(ctx context.Context, msg ProcessAdminCommandMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: moderation service is required")
	}
	cmd, err := msg.AdminCommand()
	if err != nil {
		return err
	}
	return c.service.ProcessAdminCommand(ctx, cmd)
}

type DeleteUserInboxEntryCommand struct {
	service ModerationService
}

func NewDeleteUserInboxEntryCommand(service ModerationService) *DeleteUserInboxEntryCommand {
	return &DeleteUserInboxEntryCommand{service: service}
}

func (c *DeleteUserInboxEntryCommand) Execute(ctx context.Context, msg DeleteUserInboxEntryMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: moderation service is required")
	}
	return c.service.DeleteUserInboxEntry(ctx, msg.User, msg.ID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
