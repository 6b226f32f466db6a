package inbox

import (
	"fmt"

	inboxcommand "github.com/goliatone/go-station-inbox/command"
	"github.com/goliatone/go-station-inbox/core"
	inboxquery "github.com/goliatone/go-station-inbox/query"
)

type Commands struct {
	UploadPhoto          *inboxcommand.UploadPhotoCommand
	ReportProblem        *inboxcommand.ReportProblemCommand
	ProcessAdminCommand  *inboxcommand.ProcessAdminCommand
	DeleteUserInboxEntry *inboxcommand.DeleteUserInboxEntryCommand
}

type Queries struct {
	ListAdminInbox           *inboxquery.ListAdminInboxQuery
	UserInbox                *inboxquery.UserInboxQuery
	PublicInbox              *inboxquery.PublicInboxQuery
	CountPendingInboxEntries *inboxquery.CountPendingInboxEntriesQuery
	NextZ                    *inboxquery.NextZQuery
	ListRecentImports        *inboxquery.ListRecentImportsQuery
	PickRecentImport         *inboxquery.PickRecentImportQuery
	ListPhotographerStations *inboxquery.ListPhotographerStationsQuery
}

// Facade bundles the command and query handlers bound to one inbox service.
type Facade struct {
	service  core.InboxService
	commands Commands
	queries  Queries
}

func NewFacade(service core.InboxService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("inbox: inbox service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		UploadPhoto:          inboxcommand.NewUploadPhotoCommand(service),
		ReportProblem:        inboxcommand.NewReportProblemCommand(service),
		ProcessAdminCommand:  inboxcommand.NewProcessAdminCommand(service),
		DeleteUserInboxEntry: inboxcommand.NewDeleteUserInboxEntryCommand(service),
	}
	facade.queries = Queries{
		ListAdminInbox:           inboxquery.NewListAdminInboxQuery(service),
		UserInbox:                inboxquery.NewUserInboxQuery(service),
		PublicInbox:              inboxquery.NewPublicInboxQuery(service),
		CountPendingInboxEntries: inboxquery.NewCountPendingInboxEntriesQuery(service),
		NextZ:                    inboxquery.NewNextZQuery(service),
		ListRecentImports:        inboxquery.NewListRecentImportsQuery(service),
		PickRecentImport:         inboxquery.NewPickRecentImportQuery(service),
		ListPhotographerStations: inboxquery.NewListPhotographerStationsQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() core.InboxService {
	if f == nil {
		return nil
	}
	return f.service
}
