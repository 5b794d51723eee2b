package repository

import (
	"time"

	"stellar-network-explorer/internal/domain/entity"
)

// PageCache memoizes page fetches keyed by account and resume cursor. Purely
// a latency optimization: the collection core is correct without it.
type PageCache interface {
	Get(key string) (*entity.TransferPage, bool)
	Set(key string, page *entity.TransferPage, ttl time.Duration)
}
