package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-station-inbox/core"
)

const communityStationPrefix = "Z"

type StationStore struct {
	db *bun.DB
}

func NewStationStore(db *bun.DB) (*StationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &StationStore{db: db}, nil
}

func (s *StationStore) FindByKey(ctx context.Context, key core.StationKey) (core.Station, bool, error) {
	if s == nil || s.db == nil {
		return core.Station{}, false, fmt.Errorf("sqlstore: station store is not configured")
	}
	var record stationRecord
	err := s.db.NewSelect().
		Model(&record).
		Where("st.country_code = ?", strings.TrimSpace(key.Country)).
		Where("st.id = ?", strings.TrimSpace(key.ID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Station{}, false, nil
		}
		return core.Station{}, false, err
	}
	stations, err := s.withPhotos(ctx, []stationRecord{record})
	if err != nil {
		return core.Station{}, false, err
	}
	return stations[0], true, nil
}

func (s *StationStore) FindRecentImports(ctx context.Context, since time.Time) ([]core.Station, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: station store is not configured")
	}
	var records []stationRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("EXISTS (SELECT 1 FROM photos AS ph WHERE ph.country_code = st.country_code AND ph.station_id = st.id AND ph.created_at >= ?)", since.UTC()).
		OrderExpr("st.country_code ASC, st.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return s.withPhotos(ctx, records)
}

func (s *StationStore) FindByPhotographer(ctx context.Context, photographerID string) ([]core.Station, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: station store is not configured")
	}
	var records []stationRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("EXISTS (SELECT 1 FROM photos AS ph WHERE ph.country_code = st.country_code AND ph.station_id = st.id AND ph.photographer_id = ?)", strings.TrimSpace(photographerID)).
		OrderExpr("st.country_code ASC, st.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return s.withPhotos(ctx, records)
}

// CountNearbyCoordinates narrows candidates with the proximity bounding box and
// applies the exact distance check in Go.
func (s *StationStore) CountNearbyCoordinates(ctx context.Context, coordinates core.Coordinates, proximity core.Proximity) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: station store is not configured")
	}
	minLat, maxLat, minLon, maxLon := proximity.BoundingBox(coordinates)
	var records []stationRecord
	err := s.db.NewSelect().
		Model(&records).
		Column("country_code", "id", "lat", "lon").
		Where("st.lat BETWEEN ? AND ?", minLat, maxLat).
		Where("st.lon BETWEEN ? AND ?", minLon, maxLon).
		Scan(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, record := range records {
		if proximity.Nearby(core.Coordinates{Lat: record.Lat, Lon: record.Lon}, coordinates) {
			count++
		}
	}
	return count, nil
}

func (s *StationStore) Insert(ctx context.Context, station core.Station) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: station store is not configured")
	}
	record := newStationRecord(station)
	if record.CountryCode == "" || record.ID == "" {
		return fmt.Errorf("sqlstore: station key is required")
	}
	_, err := s.db.NewInsert().Model(record).Exec(ctx)
	return err
}

// Delete removes the station together with its photos.
func (s *StationStore) Delete(ctx context.Context, key core.StationKey) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: station store is not configured")
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*photoRecord)(nil)).
			Where("country_code = ?", strings.TrimSpace(key.Country)).
			Where("station_id = ?", strings.TrimSpace(key.ID)).
			Exec(ctx); err != nil {
			return err
		}
		result, err := tx.NewDelete().
			Model((*stationRecord)(nil)).
			Where("country_code = ?", strings.TrimSpace(key.Country)).
			Where("id = ?", strings.TrimSpace(key.ID)).
			Exec(ctx)
		if err != nil {
			return err
		}
		return requireAffected(result, stationNotFound(key))
	})
}

func (s *StationStore) UpdateActive(ctx context.Context, key core.StationKey, active bool) error {
	return s.update(ctx, key, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("active = ?", active)
	})
}

func (s *StationStore) UpdateLocation(ctx context.Context, key core.StationKey, coordinates core.Coordinates) error {
	return s.update(ctx, key, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("lat = ?", coordinates.Lat).Set("lon = ?", coordinates.Lon)
	})
}

func (s *StationStore) ChangeTitle(ctx context.Context, key core.StationKey, title string) error {
	return s.update(ctx, key, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("title = ?", strings.TrimSpace(title))
	})
}

// MaxZ returns the highest numeric suffix of community station ids across all
// countries, or 0 when there are none.
func (s *StationStore) MaxZ(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: station store is not configured")
	}
	var ids []string
	err := s.db.NewSelect().
		Model((*stationRecord)(nil)).
		Column("id").
		Where("st.id LIKE ?", communityStationPrefix+"%").
		Scan(ctx, &ids)
	if err != nil {
		return 0, err
	}
	maxZ := 0
	for _, id := range ids {
		n, convErr := strconv.Atoi(strings.TrimPrefix(id, communityStationPrefix))
		if convErr == nil && n > maxZ {
			maxZ = n
		}
	}
	return maxZ, nil
}

func (s *StationStore) update(ctx context.Context, key core.StationKey, apply func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: station store is not configured")
	}
	query := s.db.NewUpdate().
		Model((*stationRecord)(nil)).
		Where("country_code = ?", strings.TrimSpace(key.Country)).
		Where("id = ?", strings.TrimSpace(key.ID))
	result, err := apply(query).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(result, stationNotFound(key))
}

func (s *StationStore) withPhotos(ctx context.Context, records []stationRecord) ([]core.Station, error) {
	out := make([]core.Station, 0, len(records))
	for _, record := range records {
		photos, err := loadStationPhotos(ctx, s.db, core.StationKey{Country: record.CountryCode, ID: record.ID})
		if err != nil {
			return nil, err
		}
		out = append(out, record.toDomain(photos))
	}
	return out, nil
}

func loadStationPhotos(ctx context.Context, db bun.IDB, key core.StationKey) ([]core.Photo, error) {
	var rows []photoRow
	err := db.NewSelect().
		Model(&rows).
		ColumnExpr("ph.*").
		ColumnExpr("COALESCE(u.name, '') AS photographer_name").
		ColumnExpr("COALESCE(u.license, '') AS photographer_license").
		ColumnExpr("COALESCE(u.email_verified, FALSE) AS photographer_email_verified").
		ColumnExpr("COALESCE(u.own_photos, FALSE) AS photographer_own_photos").
		ColumnExpr("COALESCE(u.admin, FALSE) AS photographer_admin").
		Join("LEFT JOIN users AS u ON u.id = ph.photographer_id").
		Where("ph.country_code = ?", key.Country).
		Where("ph.station_id = ?", key.ID).
		OrderExpr("ph.created_at ASC, ph.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	photos := make([]core.Photo, 0, len(rows))
	for _, row := range rows {
		photos = append(photos, row.toDomain())
	}
	return photos, nil
}

func stationNotFound(key core.StationKey) error {
	return fmt.Errorf("sqlstore: station %s not found", key)
}
