package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-station-inbox/core"
)

type InboxStore struct {
	db   *bun.DB
	repo repository.Repository[*inboxEntryRecord]
}

func NewInboxStore(db *bun.DB) (*InboxStore, error) {
	repo, err := newValidatedRepository(db, inboxEntryHandlers(), "inbox entry")
	if err != nil {
		return nil, err
	}
	return &InboxStore{db: db, repo: repo}, nil
}

func (s *InboxStore) FindByID(ctx context.Context, id string) (core.InboxEntry, bool, error) {
	if s == nil || s.db == nil {
		return core.InboxEntry{}, false, fmt.Errorf("sqlstore: inbox store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.InboxEntry{}, false, nil
	}
	var row inboxEntryRow
	err := s.selectEntries(&row).
		Where("ie.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.InboxEntry{}, false, nil
		}
		return core.InboxEntry{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s *InboxStore) FindPendingInboxEntries(ctx context.Context) ([]core.InboxEntry, error) {
	return s.findEntries(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("ie.done = ?", false)
	})
}

func (s *InboxStore) FindByUser(ctx context.Context, photographerID string, includeDone bool) ([]core.InboxEntry, error) {
	return s.findEntries(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("ie.photographer_id = ?", strings.TrimSpace(photographerID))
		if !includeDone {
			q = q.Where("ie.done = ?", false)
		}
		return q
	})
}

func (s *InboxStore) FindPendingByStation(ctx context.Context, key core.StationKey) ([]core.InboxEntry, error) {
	return s.findEntries(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("ie.done = ?", false).
			Where("ie.country_code = ?", strings.TrimSpace(key.Country)).
			Where("ie.station_id = ?", strings.TrimSpace(key.ID))
	})
}

// FindPublicInboxEntries lists pending uploads without any photographer data.
func (s *InboxStore) FindPublicInboxEntries(ctx context.Context) ([]core.PublicInboxRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: inbox store is not configured")
	}
	var rows []publicInboxRow
	err := s.db.NewSelect().
		TableExpr("inbox_entries AS ie").
		ColumnExpr("ie.country_code, ie.station_id, ie.title, ie.lat, ie.lon").
		ColumnExpr("COALESCE(st.title, '') AS station_title").
		ColumnExpr("st.lat AS station_lat").
		ColumnExpr("st.lon AS station_lon").
		Join("LEFT JOIN stations AS st ON st.country_code = ie.country_code AND st.id = ie.station_id").
		Where("ie.done = ?", false).
		Where("ie.problem_report_type IS NULL").
		OrderExpr("ie.created_at ASC, ie.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]core.PublicInboxRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *InboxStore) Insert(ctx context.Context, entry core.InboxEntry) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("sqlstore: inbox store is not configured")
	}
	record := newInboxEntryRecord(entry)
	if record.PhotographerID == "" {
		return "", fmt.Errorf("sqlstore: inbox entry photographer id is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (s *InboxStore) Reject(ctx context.Context, id string, reason string) error {
	return s.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("done = ?", true).Set("reject_reason = ?", reason)
	})
}

func (s *InboxStore) Done(ctx context.Context, id string) error {
	return s.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("done = ?", true)
	})
}

func (s *InboxStore) UpdateCRC32(ctx context.Context, id string, crc32 uint32) error {
	return s.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("crc32 = ?", int64(crc32))
	})
}

func (s *InboxStore) UpdatePhotoID(ctx context.Context, id string, photoID string) error {
	return s.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("photo_id = ?", strings.TrimSpace(photoID))
	})
}

// UpdateMissingStationImported points the entry at the station created for it
// and closes the entry.
func (s *InboxStore) UpdateMissingStationImported(ctx context.Context, id string, key core.StationKey, title string) error {
	return s.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("country_code = ?", strings.TrimSpace(key.Country)).
			Set("station_id = ?", strings.TrimSpace(key.ID)).
			Set("title = ?", strings.TrimSpace(title)).
			Set("done = ?", true)
	})
}

func (s *InboxStore) CountPendingInboxEntries(ctx context.Context) (int, error) {
	return s.count(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("ie.done = ?", false)
	})
}

func (s *InboxStore) CountPendingInboxEntriesForStation(ctx context.Context, excludeID string, key core.StationKey) (int, error) {
	return s.count(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("ie.done = ?", false).
			Where("ie.id <> ?", strings.TrimSpace(excludeID)).
			Where("ie.country_code = ?", strings.TrimSpace(key.Country)).
			Where("ie.station_id = ?", strings.TrimSpace(key.ID))
	})
}

func (s *InboxStore) CountPendingInboxEntriesForNearbyCoordinates(
	ctx context.Context,
	excludeID string,
	coordinates core.Coordinates,
	proximity core.Proximity,
) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: inbox store is not configured")
	}
	minLat, maxLat, minLon, maxLon := proximity.BoundingBox(coordinates)
	var records []inboxEntryRecord
	err := s.db.NewSelect().
		Model(&records).
		Column("id", "lat", "lon").
		Where("ie.done = ?", false).
		Where("ie.id <> ?", strings.TrimSpace(excludeID)).
		Where("ie.lat BETWEEN ? AND ?", minLat, maxLat).
		Where("ie.lon BETWEEN ? AND ?", minLon, maxLon).
		Scan(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, record := range records {
		if candidate := joinCoordinates(record.Lat, record.Lon); candidate != nil && proximity.Nearby(*candidate, coordinates) {
			count++
		}
	}
	return count, nil
}

func (s *InboxStore) MarkNotified(ctx context.Context, ids []string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: inbox store is not configured")
	}
	trimmed := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			trimmed = append(trimmed, id)
		}
	}
	if len(trimmed) == 0 {
		return nil
	}
	_, err := s.db.NewUpdate().
		Model((*inboxEntryRecord)(nil)).
		Set("notified = ?", true).
		Where("id IN (?)", bun.In(trimmed)).
		Exec(ctx)
	return err
}

func (s *InboxStore) MarkPosted(ctx context.Context, id string) error {
	return s.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("posted = ?", true)
	})
}

func (s *InboxStore) selectEntries(model any) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(model).
		ColumnExpr("ie.*").
		ColumnExpr("COALESCE(u.name, '') AS photographer_name").
		ColumnExpr("COALESCE(ph.url_path, '') AS existing_photo_url_path").
		ColumnExpr("COALESCE(st.title, '') AS station_title").
		ColumnExpr("st.lat AS station_lat").
		ColumnExpr("st.lon AS station_lon").
		Join("LEFT JOIN users AS u ON u.id = ie.photographer_id").
		Join("LEFT JOIN photos AS ph ON ph.id = ie.photo_id").
		Join("LEFT JOIN stations AS st ON st.country_code = ie.country_code AND st.id = ie.station_id")
}

func (s *InboxStore) findEntries(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]core.InboxEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: inbox store is not configured")
	}
	var rows []inboxEntryRow
	err := filter(s.selectEntries(&rows)).
		OrderExpr("ie.created_at ASC, ie.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.InboxEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *InboxStore) count(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: inbox store is not configured")
	}
	return filter(s.db.NewSelect().Model((*inboxEntryRecord)(nil))).Count(ctx)
}

func (s *InboxStore) update(ctx context.Context, id string, apply func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: inbox store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: inbox entry id is required")
	}
	query := s.db.NewUpdate().
		Model((*inboxEntryRecord)(nil)).
		Where("id = ?", id)
	result, err := apply(query).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(result, fmt.Errorf("%w: id %q", core.ErrInboxEntryNotFound, id))
}
