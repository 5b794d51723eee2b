package horizon

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/service"
	"stellar-network-explorer/internal/infrastructure/logger"
)

func testAddr(suffix string) string {
	return "G" + strings.Repeat("A", 55-len(suffix)) + suffix
}

// scriptedFetcher serves a fixed sequence of pages.
type scriptedFetcher struct {
	pages []*entity.TransferPage
	calls int
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, accountID, cursor string) (*entity.TransferPage, error) {
	if f.calls >= len(f.pages) {
		return &entity.TransferPage{EndOfData: true}, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func (f *scriptedFetcher) FetchAccount(ctx context.Context, accountID string) (*entity.Account, error) {
	return nil, entity.ErrNotFound
}

func pageOf(n int, full bool, baseTime time.Time, asset string) *entity.TransferPage {
	page := &entity.TransferPage{EndOfData: !full}
	for i := 0; i < n; i++ {
		page.Records = append(page.Records, &entity.Transfer{
			Kind:      entity.OpPayment,
			From:      testAddr("B2"),
			To:        testAddr("C3"),
			Amount:    decimal.NewFromInt(1),
			AssetCode: asset,
			TxHash:    fmt.Sprintf("h%d", i),
			CreatedAt: baseTime.Add(-time.Duration(i) * time.Hour),
		})
	}
	page.NextCursor = "next"
	return page
}

func newTestPaginator(t *testing.T, fetcher service.PageFetcher) service.AccountPaginator {
	t.Helper()
	log, err := logger.NewLogger("error", "development")
	require.NoError(t, err)
	return NewPaginator(fetcher, 2, log)
}

func TestCollectAccount_HitPageCapOnFullLastPage(t *testing.T) {
	t0 := time.Now().UTC()
	fetcher := &scriptedFetcher{pages: []*entity.TransferPage{
		pageOf(2, true, t0, "XLM"),
		pageOf(2, true, t0, "XLM"),
		pageOf(2, true, t0, "XLM"),
		pageOf(2, true, t0, "XLM"),
		pageOf(2, true, t0, "XLM"),
	}}

	transfers, completeness, err := newTestPaginator(t, fetcher).CollectAccount(
		context.Background(), testAddr("B2"), service.PaginationFilter{MaxPages: 3})
	require.NoError(t, err)

	assert.Len(t, transfers, 6)
	assert.Equal(t, 3, completeness.PagesFetched)
	assert.True(t, completeness.HitPageCap, "cap reached with a full last page means possible truncation")
}

func TestCollectAccount_NaturalEndIsNotTruncation(t *testing.T) {
	t0 := time.Now().UTC()
	fetcher := &scriptedFetcher{pages: []*entity.TransferPage{
		pageOf(2, true, t0, "XLM"),
		pageOf(1, false, t0, "XLM"),
	}}

	transfers, completeness, err := newTestPaginator(t, fetcher).CollectAccount(
		context.Background(), testAddr("B2"), service.PaginationFilter{MaxPages: 10})
	require.NoError(t, err)

	assert.Len(t, transfers, 3)
	assert.Equal(t, 2, completeness.PagesFetched)
	assert.False(t, completeness.HitPageCap)
}

func TestCollectAccount_DateFromStopsEarly(t *testing.T) {
	t0 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	fetcher := &scriptedFetcher{pages: []*entity.TransferPage{
		pageOf(2, true, t0, "XLM"),
		pageOf(2, true, t0.AddDate(0, 0, -30), "XLM"),
		pageOf(2, true, t0.AddDate(0, 0, -60), "XLM"),
	}}

	from := t0.AddDate(0, 0, -7)
	transfers, completeness, err := newTestPaginator(t, fetcher).CollectAccount(
		context.Background(), testAddr("B2"), service.PaginationFilter{MaxPages: 3, DateFrom: &from})
	require.NoError(t, err)

	assert.Len(t, transfers, 2, "only the recent page's records survive")
	assert.Equal(t, 2, completeness.PagesFetched, "the scan stops inside the second page")
	assert.False(t, completeness.HitPageCap, "a date stop is never truncation, even at the cap")
}

func TestCollectAccount_AssetFilterAppliesPerRecord(t *testing.T) {
	t0 := time.Now().UTC()
	mixed := &entity.TransferPage{EndOfData: true}
	mixed.Records = append(mixed.Records,
		&entity.Transfer{From: testAddr("B2"), To: testAddr("C3"), AssetCode: "XLM", Amount: decimal.NewFromInt(1), CreatedAt: t0},
		&entity.Transfer{From: testAddr("B2"), To: testAddr("C3"), AssetCode: "USDC", Amount: decimal.NewFromInt(2), CreatedAt: t0},
	)
	fetcher := &scriptedFetcher{pages: []*entity.TransferPage{mixed}}

	transfers, _, err := newTestPaginator(t, fetcher).CollectAccount(
		context.Background(), testAddr("B2"), service.PaginationFilter{MaxPages: 5, AssetCodes: []string{"USDC"}})
	require.NoError(t, err)

	require.Len(t, transfers, 1)
	assert.Equal(t, "USDC", transfers[0].AssetCode)
}

func TestCollectAccount_DateToSkipsWithoutStopping(t *testing.T) {
	t0 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	fetcher := &scriptedFetcher{pages: []*entity.TransferPage{
		pageOf(2, true, t0, "XLM"),
		pageOf(2, false, t0.AddDate(0, 0, -10), "XLM"),
	}}

	to := t0.AddDate(0, 0, -5)
	transfers, completeness, err := newTestPaginator(t, fetcher).CollectAccount(
		context.Background(), testAddr("B2"), service.PaginationFilter{MaxPages: 5, DateTo: &to})
	require.NoError(t, err)

	assert.Len(t, transfers, 2, "newer-than-DateTo records are skipped, older pages still scanned")
	assert.Equal(t, 2, completeness.PagesFetched)
}
