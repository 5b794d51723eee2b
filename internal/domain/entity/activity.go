package entity

import (
	"github.com/shopspring/decimal"
)

// ActivityStat is the per-account aggregate accumulated while the network
// collector walks the payment graph. One instance per discovered account,
// mutated incrementally as each transfer is ingested.
type ActivityStat struct {
	TransactionCount int
	TotalVolume      decimal.Decimal
	Counterparties   map[string]struct{}

	// DirectWithRoot marks accounts with at least one transfer directly
	// touching the traversal root. Direct partners are never dropped by
	// the wallet selector.
	DirectWithRoot bool
}

// NewActivityStat returns an empty activity record.
func NewActivityStat() *ActivityStat {
	return &ActivityStat{
		TotalVolume:    decimal.Zero,
		Counterparties: make(map[string]struct{}),
	}
}

// Record folds one transfer touching this account into the aggregate.
func (s *ActivityStat) Record(counterparty string, amount decimal.Decimal) {
	s.TransactionCount++
	s.TotalVolume = s.TotalVolume.Add(amount)
	if counterparty != "" {
		s.Counterparties[counterparty] = struct{}{}
	}
}

// Completeness reports how much of one account's history a bounded
// pagination scan actually covered.
type Completeness struct {
	PagesFetched int `json:"pages_fetched"`

	// HitPageCap is true when the scan stopped because the page cap was
	// reached while the last page was still full-sized: the account may
	// have more history than was collected. Natural end-of-data and early
	// date stops do not set it.
	HitPageCap bool `json:"hit_page_cap"`
}
