package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-station-inbox/core"
)

const countryCacheKeyPrefix = "go-station-inbox::country::v1"

// cachedCountry keeps misses in the cache as well as hits.
type cachedCountry struct {
	Country core.Country
	Found   bool
}

// CachedCountryStore fronts a CountryStore with a read-through cache. Country
// rows change rarely and are read on every photo import.
type CachedCountryStore struct {
	base  core.CountryStore
	cache repositorycache.CacheService
}

func NewCachedCountryStore(base core.CountryStore, cacheService repositorycache.CacheService) (*CachedCountryStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base country store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: country cache service is required")
	}
	return &CachedCountryStore{base: base, cache: cacheService}, nil
}

// CountryCacheKey returns go-station-inbox::country::v1::<code> with the
// trimmed code URL-path escaped.
func CountryCacheKey(code string) (string, error) {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return "", fmt.Errorf("sqlstore: country code is required")
	}
	return countryCacheKeyPrefix + "::" + url.PathEscape(normalized), nil
}

func (s *CachedCountryStore) FindByID(ctx context.Context, code string) (core.Country, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Country{}, false, fmt.Errorf("sqlstore: cached country store is not configured")
	}
	cacheKey, err := CountryCacheKey(code)
	if err != nil {
		return core.Country{}, false, nil
	}
	cached, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedCountry, error) {
		country, found, fetchErr := s.base.FindByID(ctx, strings.TrimSpace(code))
		if fetchErr != nil {
			return cachedCountry{}, fetchErr
		}
		return cachedCountry{Country: cloneCountry(country), Found: found}, nil
	})
	if err != nil {
		return core.Country{}, false, err
	}
	return cloneCountry(cached.Country), cached.Found, nil
}

// Invalidate drops the cached row for code.
func (s *CachedCountryStore) Invalidate(ctx context.Context, code string) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached country store is not configured")
	}
	cacheKey, err := CountryCacheKey(code)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func cloneCountry(country core.Country) core.Country {
	cloned := country
	if country.OverrideLicense != nil {
		license := *country.OverrideLicense
		cloned.OverrideLicense = &license
	}
	return cloned
}
