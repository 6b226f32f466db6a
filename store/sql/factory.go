package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-station-inbox/core"
)

// RepositoryFactory builds every SQL-backed store from one bun database. It
// satisfies core.RepositoryStoreFactory and core.StoreProvider.
type RepositoryFactory struct {
	db           *bun.DB
	countryCache repositorycache.CacheService

	stationStore core.StationStore
	photoStore   core.PhotoStore
	inboxStore   core.InboxStore
	userStore    core.UserStore
	countryStore core.CountryStore
	outboxStore  *OutboxStore
}

type FactoryOption func(*RepositoryFactory)

// WithCountryCache puts country lookups behind the given cache.
func WithCountryCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.countryCache = cacheService
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.inboxStore != nil && f.stationStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) StationStore() core.StationStore {
	if f == nil {
		return nil
	}
	return f.stationStore
}

func (f *RepositoryFactory) PhotoStore() core.PhotoStore {
	if f == nil {
		return nil
	}
	return f.photoStore
}

func (f *RepositoryFactory) InboxStore() core.InboxStore {
	if f == nil {
		return nil
	}
	return f.inboxStore
}

func (f *RepositoryFactory) UserStore() core.UserStore {
	if f == nil {
		return nil
	}
	return f.userStore
}

func (f *RepositoryFactory) CountryStore() core.CountryStore {
	if f == nil {
		return nil
	}
	return f.countryStore
}

func (f *RepositoryFactory) OutboxStore() *OutboxStore {
	if f == nil {
		return nil
	}
	return f.outboxStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	stationStore, err := NewStationStore(f.db)
	if err != nil {
		return err
	}
	photoStore, err := NewPhotoStore(f.db)
	if err != nil {
		return err
	}
	inboxStore, err := NewInboxStore(f.db)
	if err != nil {
		return err
	}
	userStore, err := NewUserStore(f.db)
	if err != nil {
		return err
	}
	countryStore, err := NewCountryStore(f.db)
	if err != nil {
		return err
	}
	outboxStore, err := NewOutboxStore(f.db)
	if err != nil {
		return err
	}

	f.stationStore = stationStore
	f.photoStore = photoStore
	f.inboxStore = inboxStore
	f.userStore = userStore
	f.countryStore = countryStore
	if f.countryCache != nil {
		cached, cacheErr := NewCachedCountryStore(countryStore, f.countryCache)
		if cacheErr != nil {
			return cacheErr
		}
		f.countryStore = cached
	}
	f.outboxStore = outboxStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
