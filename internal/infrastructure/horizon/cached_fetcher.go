package horizon

import (
	"context"
	"time"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/repository"
	"stellar-network-explorer/internal/domain/service"
)

// CachedFetcher decorates a PageFetcher with page memoization. A hit skips
// the rate limiter entirely, which is the whole point: repeated collections
// over overlapping neighborhoods spend no API budget on pages already seen.
//
// Only FetchPage is cached. Account details are cheap and change often
// enough that caching them would mostly serve stale balances.
type CachedFetcher struct {
	next  service.PageFetcher
	cache repository.PageCache
	ttl   time.Duration
}

// NewCachedFetcher wraps next with the given cache.
func NewCachedFetcher(next service.PageFetcher, cache repository.PageCache, ttl time.Duration) service.PageFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl}
}

func (f *CachedFetcher) FetchPage(ctx context.Context, accountID, cursor string) (*entity.TransferPage, error) {
	key := accountID + "|" + cursor
	if page, ok := f.cache.Get(key); ok {
		return page, nil
	}

	page, err := f.next.FetchPage(ctx, accountID, cursor)
	if err != nil {
		return nil, err
	}
	f.cache.Set(key, page, f.ttl)
	return page, nil
}

func (f *CachedFetcher) FetchAccount(ctx context.Context, accountID string) (*entity.Account, error) {
	return f.next.FetchAccount(ctx, accountID)
}
