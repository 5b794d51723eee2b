package horizon

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/service"
	"stellar-network-explorer/internal/infrastructure/logger"
)

// Paginator walks one account's payment history newest-first, page by page,
// applying per-record filters so date-bounded scans can stop early instead of
// exhausting the page budget.
type Paginator struct {
	fetcher  service.PageFetcher
	pageSize int
	logger   *logger.Logger
}

// NewPaginator creates an AccountPaginator over the given fetcher. pageSize
// must match the fetcher's page size; it decides whether the final page was
// full when the page cap is reached.
func NewPaginator(fetcher service.PageFetcher, pageSize int, log *logger.Logger) service.AccountPaginator {
	return &Paginator{
		fetcher:  fetcher,
		pageSize: pageSize,
		logger:   log.WithComponent("paginator"),
	}
}

// CollectAccount gathers the account's transfers under the filter. The scan
// ends at natural end-of-data, at the page cap, or as soon as a record is
// older than the filter's DateFrom (records arrive newest-first, so nothing
// beyond that point can match).
//
// HitPageCap is only reported when the cap stopped a scan that might have had
// more to give: the cap was reached, the last page was full, and no date stop
// fired.
func (p *Paginator) CollectAccount(
	ctx context.Context,
	accountID string,
	filter service.PaginationFilter,
) ([]*entity.Transfer, entity.Completeness, error) {
	assetWanted := make(map[string]struct{}, len(filter.AssetCodes))
	for _, code := range filter.AssetCodes {
		assetWanted[code] = struct{}{}
	}

	var (
		transfers    []*entity.Transfer
		completeness entity.Completeness
		cursor       string
		lastPageFull bool
		dateStopped  bool
	)

scan:
	for completeness.PagesFetched < filter.MaxPages {
		select {
		case <-ctx.Done():
			return transfers, completeness, ctx.Err()
		default:
		}

		page, err := p.fetcher.FetchPage(ctx, accountID, cursor)
		if err != nil {
			return transfers, completeness, fmt.Errorf("page %d: %w", completeness.PagesFetched+1, err)
		}
		completeness.PagesFetched++
		lastPageFull = !page.EndOfData

		for _, t := range page.Records {
			if filter.DateFrom != nil && t.CreatedAt.Before(*filter.DateFrom) {
				// Newest-first ordering: every later record is older still.
				dateStopped = true
				break scan
			}
			if filter.DateTo != nil && t.CreatedAt.After(*filter.DateTo) {
				continue
			}
			if len(assetWanted) > 0 {
				if _, ok := assetWanted[t.Asset()]; !ok {
					continue
				}
			}
			transfers = append(transfers, t)
		}

		if page.EndOfData {
			break
		}
		cursor = page.NextCursor
	}

	completeness.HitPageCap = completeness.PagesFetched >= filter.MaxPages && lastPageFull && !dateStopped
	if completeness.HitPageCap {
		p.logger.Debug("Account history truncated at page cap",
			zap.String("account", entity.ShortID(accountID)),
			zap.Int("pages", completeness.PagesFetched))
	}

	return transfers, completeness, nil
}
