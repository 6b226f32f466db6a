package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-station-inbox/core"
)

var (
	_ gocmd.Commander[UploadPhotoMessage]          = (*UploadPhotoCommand)(nil)
	_ gocmd.Commander[ReportProblemMessage]        = (*ReportProblemCommand)(nil)
	_ gocmd.Commander[ProcessAdminCommandMessage]  = (*ProcessAdminCommand)(nil)
	_ gocmd.Commander[DeleteUserInboxEntryMessage] = (*DeleteUserInboxEntryCommand)(nil)

	_ UploadService     = (core.InboxService)(nil)
	_ ModerationService = (core.InboxService)(nil)
)
