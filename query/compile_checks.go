package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-station-inbox/core"
)

var (
	_ gocmd.Querier[ListAdminInboxMessage, []core.AdminInboxEntry]   = (*ListAdminInboxQuery)(nil)
	_ gocmd.Querier[UserInboxMessage, []core.InboxStateQuery]        = (*UserInboxQuery)(nil)
	_ gocmd.Querier[PublicInboxMessage, []core.PublicInboxEntry]     = (*PublicInboxQuery)(nil)
	_ gocmd.Querier[CountPendingInboxEntriesMessage, int]            = (*CountPendingInboxEntriesQuery)(nil)
	_ gocmd.Querier[NextZMessage, string]                            = (*NextZQuery)(nil)
	_ gocmd.Querier[ListRecentImportsMessage, []core.Station]        = (*ListRecentImportsQuery)(nil)
	_ gocmd.Querier[PickRecentImportMessage, RecentImportPick]       = (*PickRecentImportQuery)(nil)
	_ gocmd.Querier[ListPhotographerStationsMessage, []core.Station] = (*ListPhotographerStationsQuery)(nil)

	_ InboxReader   = (core.InboxService)(nil)
	_ StationReader = (core.InboxService)(nil)
)
