package sqlstore

import (
	"context"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-station-inbox/core"
)

type PhotoStore struct {
	db   *bun.DB
	repo repository.Repository[*photoRecord]
}

func NewPhotoStore(db *bun.DB) (*PhotoStore, error) {
	repo, err := newValidatedRepository(db, photoHandlers(), "photo")
	if err != nil {
		return nil, err
	}
	return &PhotoStore{db: db, repo: repo}, nil
}

func (s *PhotoStore) Insert(ctx context.Context, photo core.Photo) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("sqlstore: photo store is not configured")
	}
	record := newPhotoRecord(photo)
	if record.CountryCode == "" || record.StationID == "" {
		return "", fmt.Errorf("sqlstore: photo station key is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (s *PhotoStore) Update(ctx context.Context, photo core.Photo) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: photo store is not configured")
	}
	record := newPhotoRecord(photo)
	if record.ID == "" {
		return fmt.Errorf("sqlstore: photo id is required")
	}
	_, err := s.repo.Update(ctx, record, repository.UpdateByID(record.ID))
	return err
}

func (s *PhotoStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: photo store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*photoRecord)(nil)).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(result, photoNotFound(id))
}

func (s *PhotoStore) SetAllPhotosForStationSecondary(ctx context.Context, key core.StationKey) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: photo store is not configured")
	}
	_, err := s.db.NewUpdate().
		Model((*photoRecord)(nil)).
		Set("is_primary = ?", false).
		Where("country_code = ?", strings.TrimSpace(key.Country)).
		Where("station_id = ?", strings.TrimSpace(key.ID)).
		Exec(ctx)
	return err
}

func (s *PhotoStore) SetPrimary(ctx context.Context, id string) error {
	return s.set(ctx, id, "is_primary = ?", true)
}

func (s *PhotoStore) UpdatePhotoOutdated(ctx context.Context, id string) error {
	return s.set(ctx, id, "outdated = ?", true)
}

func (s *PhotoStore) set(ctx context.Context, id string, expr string, value any) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: photo store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*photoRecord)(nil)).
		Set(expr, value).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(result, photoNotFound(id))
}

func photoNotFound(id string) error {
	return fmt.Errorf("sqlstore: photo %q not found", strings.TrimSpace(id))
}
