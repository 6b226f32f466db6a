package query

import (
	"strings"

	"github.com/goliatone/go-station-inbox/core"
)

const (
	TypeListAdminInbox           = "inbox.query.admin.list"
	TypeUserInbox                = "inbox.query.user.list"
	TypePublicInbox              = "inbox.query.public.list"
	TypeCountPendingInboxEntries = "inbox.query.pending.count"
	TypeNextZ                    = "inbox.query.station.next_z"
	TypeListRecentImports        = "inbox.query.recent_imports.list"
	TypePickRecentImport         = "inbox.query.recent_imports.pick"
	TypeListPhotographerStations = "inbox.query.photographer.stations"
)

type ListAdminInboxMessage struct {
	User core.User
}

func (ListAdminInboxMessage) Type() string { return TypeListAdminInbox }

func (m ListAdminInboxMessage) Validate() error {
	if !m.User.Admin {
		return queryValidationError("user", "admin user is required")
	}
	return nil
}

type UserInboxMessage struct {
	Request core.UserInboxRequest
}

func (UserInboxMessage) Type() string { return TypeUserInbox }

func (m UserInboxMessage) Validate() error {
	if strings.TrimSpace(m.Request.User.ID) == "" {
		return queryValidationError("user_id", "user is required")
	}
	for _, id := range m.Request.IDs {
		if strings.TrimSpace(id) == "" {
			return queryValidationError("ids", "ids must not contain blanks")
		}
	}
	return nil
}

type PublicInboxMessage struct{}

func (PublicInboxMessage) Type() string { return TypePublicInbox }

type CountPendingInboxEntriesMessage struct{}

func (CountPendingInboxEntriesMessage) Type() string { return TypeCountPendingInboxEntries }

type NextZMessage struct{}

func (NextZMessage) Type() string { return TypeNextZ }

type ListRecentImportsMessage struct{}

func (ListRecentImportsMessage) Type() string { return TypeListRecentImports }

type PickRecentImportMessage struct{}

func (PickRecentImportMessage) Type() string { return TypePickRecentImport }

type ListPhotographerStationsMessage struct {
	PhotographerID string
}

func (ListPhotographerStationsMessage) Type() string { return TypeListPhotographerStations }

func (m ListPhotographerStationsMessage) Validate() error {
	if strings.TrimSpace(m.PhotographerID) == "" {
		return queryValidationError("photographer_id", "photographer id is required")
	}
	return nil
}
