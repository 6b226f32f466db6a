package sqlstore

import (
	"context"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-station-inbox/core"
)

// UserStore reads photographer profiles. Profiles are owned by the account
// system and are never written here.
type UserStore struct {
	repo repository.Repository[*userRecord]
}

func NewUserStore(db *bun.DB) (*UserStore, error) {
	repo, err := newValidatedRepository(db, userHandlers(), "user")
	if err != nil {
		return nil, err
	}
	return &UserStore{repo: repo}, nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (core.User, bool, error) {
	if s == nil || s.repo == nil {
		return core.User{}, false, fmt.Errorf("sqlstore: user store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.User{}, false, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("id", "=", id),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.User{}, false, err
	}
	if len(records) == 0 || records[0] == nil {
		return core.User{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

type CountryStore struct {
	repo repository.Repository[*countryRecord]
}

func NewCountryStore(db *bun.DB) (*CountryStore, error) {
	repo, err := newValidatedRepository(db, countryHandlers(), "country")
	if err != nil {
		return nil, err
	}
	return &CountryStore{repo: repo}, nil
}

func (s *CountryStore) FindByID(ctx context.Context, code string) (core.Country, bool, error) {
	if s == nil || s.repo == nil {
		return core.Country{}, false, fmt.Errorf("sqlstore: country store is not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return core.Country{}, false, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("code", "=", code),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Country{}, false, err
	}
	if len(records) == 0 || records[0] == nil {
		return core.Country{}, false, nil
	}
	return records[0].toDomain(), true, nil
}
