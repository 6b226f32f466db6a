package command

import (
	"strings"

	"github.com/goliatone/go-station-inbox/core"
)

const (
	TypeUploadPhoto          = "inbox.command.photo.upload"
	TypeReportProblem        = "inbox.command.problem.report"
	TypeProcessAdminCommand  = "inbox.command.admin.process"
	TypeDeleteUserInboxEntry = "inbox.command.entry.withdraw"
)

type UploadPhotoMessage struct {
	Request core.UploadPhotoRequest
}

func (UploadPhotoMessage) Type() string { return TypeUploadPhoto }

func (m UploadPhotoMessage) Validate() error {
	if strings.TrimSpace(m.Request.User.ID) == "" {
		return commandValidationError("user_id", "user is required")
	}
	return nil
}

type ReportProblemMessage struct {
	Request core.ReportProblemRequest
}

func (ReportProblemMessage) Type() string { return TypeReportProblem }

func (m ReportProblemMessage) Validate() error {
	if strings.TrimSpace(m.Request.User.ID) == "" {
		return commandValidationError("user_id", "user is required")
	}
	if strings.TrimSpace(string(m.Request.Report.Type)) == "" {
		return commandValidationError("type", "problem type is required")
	}
	return nil
}

// ProcessAdminCommandMessage carries the raw admin command kind as submitted
// by the moderation client. Unknown kinds fail validation.
type ProcessAdminCommandMessage struct {
	Kind    core.AdminCommandKind
	Command core.InboxCommand
}

func (ProcessAdminCommandMessage) Type() string { return TypeProcessAdminCommand }

func (m ProcessAdminCommandMessage) Validate() error {
	if strings.TrimSpace(m.Command.ID) == "" {
		return commandValidationError("id", "inbox entry id is required")
	}
	if _, err := m.AdminCommand(); err != nil {
		return commandWrapValidation(err, "command: invalid admin command")
	}
	return nil
}

func (m ProcessAdminCommandMessage) AdminCommand() (core.AdminCommand, error) {
	return core.NewAdminCommand(m.Kind, m.Command)
}

type DeleteUserInboxEntryMessage struct {
	User core.User
	ID   string
}

func (DeleteUserInboxEntryMessage) Type() string { return TypeDeleteUserInboxEntry }

func (m DeleteUserInboxEntryMessage) Validate() error {
	if strings.TrimSpace(m.User.ID) == "" {
		return commandValidationError("user_id", "user is required")
	}
	if strings.TrimSpace(m.ID) == "" {
		return commandValidationError("id", "inbox entry id is required")
	}
	return nil
}
