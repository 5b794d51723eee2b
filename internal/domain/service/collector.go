package service

import (
	"context"
	"time"

	"stellar-network-explorer/internal/domain/entity"
)

// PageFetcher fetches one page of payment-like events for one account,
// normalized into transfers, given a resume cursor (empty = most recent).
type PageFetcher interface {
	// FetchPage returns the next page of transfers for the account. A
	// transient failure surfaces as an error; the caller owns retry and
	// abort decisions.
	FetchPage(ctx context.Context, accountID, cursor string) (*entity.TransferPage, error)

	// FetchAccount resolves account details. Returns entity.ErrNotFound
	// for deleted or merged accounts.
	FetchAccount(ctx context.Context, accountID string) (*entity.Account, error)
}

// PaginationFilter narrows a bounded pagination scan. Asset and date checks
// run per record during pagination so scans can stop early.
type PaginationFilter struct {
	AssetCodes []string
	DateFrom   *time.Time
	DateTo     *time.Time
	MaxPages   int
}

// AccountPaginator drives PageFetcher across one account's full history,
// under the page cap, reporting how complete the scan was.
type AccountPaginator interface {
	CollectAccount(ctx context.Context, accountID string, filter PaginationFilter) ([]*entity.Transfer, entity.Completeness, error)
}

// NetworkCollector performs the bounded recursive exploration of the payment
// graph and produces the filtered, aggregated collection result. Cancelling
// the context returns whatever partial result has been accumulated.
type NetworkCollector interface {
	Collect(ctx context.Context, req *entity.CollectionRequest) (*entity.CollectionResult, error)
}

// EventPublisher announces completed collection runs to downstream consumers.
type EventPublisher interface {
	PublishCollectionCompleted(ctx context.Context, result *entity.CollectionResult) error
}
