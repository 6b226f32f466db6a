package query

import (
	"context"

	"github.com/goliatone/go-station-inbox/core"
)

type InboxReader interface {
	ListAdminInbox(ctx context.Context, user core.User) ([]core.AdminInboxEntry, error)
	UserInbox(ctx context.Context, req core.UserInboxRequest) ([]core.InboxStateQuery, error)
	PublicInbox(ctx context.Context) ([]core.PublicInboxEntry, error)
	CountPendingInboxEntries(ctx context.Context) (int, error)
}

type StationReader interface {
	NextZ(ctx context.Context) (string, error)
	ListRecentImports(ctx context.Context) ([]core.Station, error)
	ListPhotographerStations(ctx context.Context, photographerID string) ([]core.Station, error)
	PickRecentImport(ctx context.Context) (core.Station, bool, error)
}

// RecentImportPick wraps the daily pick; Found is false when nothing was
// imported inside the window.
type RecentImportPick struct {
	Station core.Station `json:"station"`
	Found   bool         `json:"found"`
}

type ListAdminInboxQuery struct {
	reader InboxReader
}

func NewListAdminInboxQuery(reader InboxReader) *ListAdminInboxQuery {
	return &ListAdminInboxQuery{reader: reader}
}

func (q *ListAdminInboxQuery) Query(ctx context.Context, msg ListAdminInboxMessage) ([]core.AdminInboxEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: inbox reader is required")
	}
	return q.reader.ListAdminInbox(ctx, msg.User)
}

type UserInboxQuery struct {
	reader InboxReader
}

func NewUserInboxQuery(reader InboxReader) *UserInboxQuery {
	return &UserInboxQuery{reader: reader}
}

func (q *UserInboxQuery) Query(ctx context.Context, msg UserInboxMessage) ([]core.InboxStateQuery, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: inbox reader is required")
	}
	return q.reader.UserInbox(ctx, msg.Request)
}

type PublicInboxQuery struct {
	reader InboxReader
}

func NewPublicInboxQuery(reader InboxReader) *PublicInboxQuery {
	return &PublicInboxQuery{reader: reader}
}

func (q *PublicInboxQuery) Query(ctx context.Context, _ PublicInboxMessage) ([]core.PublicInboxEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: inbox reader is required")
	}
	return q.reader.PublicInbox(ctx)
}

type CountPendingInboxEntriesQuery struct {
	reader InboxReader
}

func NewCountPendingInboxEntriesQuery(reader InboxReader) *CountPendingInboxEntriesQuery {
	return &CountPendingInboxEntriesQuery{reader: reader}
}

func (q *CountPendingInboxEntriesQuery) Query(ctx context.Context, _ CountPendingInboxEntriesMessage) (int, error) {
	if q == nil || q.reader == nil {
		return 0, queryDependencyError("query: inbox reader is required")
	}
	return q.reader.CountPendingInboxEntries(ctx)
}

type NextZQuery struct {
	reader StationReader
}

func NewNextZQuery(reader StationReader) *NextZQuery {
	return &NextZQuery{reader: reader}
}

func (q *NextZQuery) Query(ctx context.Context, _ NextZMessage) (string, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: station reader is required")
	}
	return q.reader.NextZ(ctx)
}

type ListRecentImportsQuery struct {
	reader StationReader
}

func NewListRecentImportsQuery(reader StationReader) *ListRecentImportsQuery {
	return &ListRecentImportsQuery{reader: reader}
}

func (q *ListRecentImportsQuery) Query(ctx context.Context, _ ListRecentImportsMessage) ([]core.Station, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: station reader is required")
	}
	return q.reader.ListRecentImports(ctx)
}

type PickRecentImportQuery struct {
	reader StationReader
}

func NewPickRecentImportQuery(reader StationReader) *PickRecentImportQuery {
	return &PickRecentImportQuery{reader: reader}
}

func (q *PickRecentImportQuery) Query(ctx context.Context, _ PickRecentImportMessage) (RecentImportPick, error) {
	if q == nil || q.reader == nil {
		return RecentImportPick{}, queryDependencyError("query: station reader is required")
	}
	station, found, err := q.reader.PickRecentImport(ctx)
	if err != nil {
		return RecentImportPick{}, err
	}
	return RecentImportPick{Station: station, Found: found}, nil
}

type ListPhotographerStationsQuery struct {
	reader StationReader
}

func NewListPhotographerStationsQuery(reader StationReader) *ListPhotographerStationsQuery {
	return &ListPhotographerStationsQuery{reader: reader}
}

func (q *ListPhotographerStationsQuery) Query(
	ctx context.Context,
	msg ListPhotographerStationsMessage,
) ([]core.Station, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: station reader is required")
	}
	return q.reader.ListPhotographerStations(ctx, msg.PhotographerID)
}
