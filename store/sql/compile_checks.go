package sqlstore

import (
	"github.com/goliatone/go-station-inbox/core"
	"github.com/goliatone/go-station-inbox/monitor"
)

var (
	_ core.StationStore           = (*StationStore)(nil)
	_ core.PhotoStore             = (*PhotoStore)(nil)
	_ core.InboxStore             = (*InboxStore)(nil)
	_ core.UserStore              = (*UserStore)(nil)
	_ core.CountryStore           = (*CountryStore)(nil)
	_ core.CountryStore           = (*CachedCountryStore)(nil)
	_ monitor.OutboxStore         = (*OutboxStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
