package service

import (
	"time"

	"stellar-network-explorer/internal/domain/entity"
)

// FilterStage is a named pure function from transfer list to transfer list.
// Stages share no state, so they can be reordered or omitted freely.
type FilterStage struct {
	Name  string
	Apply func([]*entity.Transfer) []*entity.Transfer
}

// FilterPipeline applies an ordered sequence of stages and records how many
// transfers each stage dropped. Order is a performance decision: cheapest and
// most restrictive predicates go first.
type FilterPipeline struct {
	stages []FilterStage
}

// NewFilterPipeline builds a pipeline from the given stages.
func NewFilterPipeline(stages ...FilterStage) *FilterPipeline {
	return &FilterPipeline{stages: stages}
}

// Apply runs every stage in order and returns the surviving transfers plus
// the per-stage drop counts.
func (p *FilterPipeline) Apply(transfers []*entity.Transfer) ([]*entity.Transfer, map[string]int) {
	report := make(map[string]int, len(p.stages))
	result := transfers

	for _, stage := range p.stages {
		before := len(result)
		result = stage.Apply(result)
		report[stage.Name] = before - len(result)
	}

	return result, report
}

// WalletMembershipStage retains transfers where either endpoint is in the
// selected node set. Requiring only one endpoint preserves edges into the
// root's immediate neighborhood at the cost of node-budget adherence.
func WalletMembershipStage(wallets []string) FilterStage {
	member := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		member[w] = struct{}{}
	}

	return FilterStage{
		Name: "wallet_filter",
		Apply: func(txs []*entity.Transfer) []*entity.Transfer {
			if len(member) == 0 {
				return txs
			}
			var out []*entity.Transfer
			for _, tx := range txs {
				if _, ok := member[tx.From]; ok {
					out = append(out, tx)
					continue
				}
				if _, ok := member[tx.To]; ok {
					out = append(out, tx)
				}
			}
			return out
		},
	}
}

// AssetStage retains transfers whose asset code is in the given set.
func AssetStage(assets []string) FilterStage {
	wanted := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		wanted[a] = struct{}{}
	}

	return FilterStage{
		Name: "asset_filter",
		Apply: func(txs []*entity.Transfer) []*entity.Transfer {
			if len(wanted) == 0 {
				return txs
			}
			var out []*entity.Transfer
			for _, tx := range txs {
				if _, ok := wanted[tx.Asset()]; ok {
					out = append(out, tx)
				}
			}
			return out
		},
	}
}

// TypeStage retains transfers of the given operation kinds.
func TypeStage(kinds []entity.OperationKind) FilterStage {
	wanted := make(map[entity.OperationKind]struct{}, len(kinds))
	for _, k := range kinds {
		wanted[k] = struct{}{}
	}

	return FilterStage{
		Name: "type_filter",
		Apply: func(txs []*entity.Transfer) []*entity.Transfer {
			if len(wanted) == 0 {
				return txs
			}
			var out []*entity.Transfer
			for _, tx := range txs {
				if _, ok := wanted[tx.Kind]; ok {
					out = append(out, tx)
				}
			}
			return out
		},
	}
}

// DateRangeStage retains transfers inside [from, to]. Either bound may be nil.
func DateRangeStage(from, to *time.Time) FilterStage {
	return FilterStage{
		Name: "date_filter",
		Apply: func(txs []*entity.Transfer) []*entity.Transfer {
			if from == nil && to == nil {
				return txs
			}
			var out []*entity.Transfer
			for _, tx := range txs {
				if from != nil && tx.CreatedAt.Before(*from) {
					continue
				}
				if to != nil && tx.CreatedAt.After(*to) {
					continue
				}
				out = append(out, tx)
			}
			return out
		},
	}
}

// AmountRangeStage retains transfers inside [min, max]. A negative bound is
// the "unset" sentinel and disables that side of the check; it is never an
// actual amount constraint since amounts are non-negative.
func AmountRangeStage(minAmount, maxAmount float64) FilterStage {
	return FilterStage{
		Name: "amount_filter",
		Apply: func(txs []*entity.Transfer) []*entity.Transfer {
			if minAmount < 0 && maxAmount < 0 {
				return txs
			}
			var out []*entity.Transfer
			for _, tx := range txs {
				amount := tx.Amount.InexactFloat64()
				if minAmount >= 0 && amount < minAmount {
					continue
				}
				if maxAmount >= 0 && amount > maxAmount {
					continue
				}
				out = append(out, tx)
			}
			return out
		},
	}
}

// DirectionStage retains transfers sent and/or received by the root account.
// Without a root the stage is a no-op: direction is meaningless.
func DirectionStage(root string, directions []entity.Direction) FilterStage {
	var wantSent, wantReceived bool
	for _, d := range directions {
		switch d {
		case entity.DirectionSent:
			wantSent = true
		case entity.DirectionReceived:
			wantReceived = true
		}
	}

	return FilterStage{
		Name: "direction_filter",
		Apply: func(txs []*entity.Transfer) []*entity.Transfer {
			if root == "" || (!wantSent && !wantReceived) {
				return txs
			}
			var out []*entity.Transfer
			for _, tx := range txs {
				if wantSent && tx.From == root {
					out = append(out, tx)
					continue
				}
				if wantReceived && tx.To == root {
					out = append(out, tx)
				}
			}
			return out
		},
	}
}

// NewStandardPipeline assembles the canonical stage order for a collection
// request: node membership, asset, type, date range, amount range, direction.
func NewStandardPipeline(req *entity.CollectionRequest, selectedWallets []string) *FilterPipeline {
	var stages []FilterStage

	if len(selectedWallets) > 0 {
		stages = append(stages, WalletMembershipStage(selectedWallets))
	}
	if len(req.AssetFilter) > 0 {
		stages = append(stages, AssetStage(req.AssetFilter))
	}
	if len(req.TypeFilter) > 0 {
		stages = append(stages, TypeStage(req.TypeFilter))
	}
	if req.DateFrom != nil || req.DateTo != nil {
		stages = append(stages, DateRangeStage(req.DateFrom, req.DateTo))
	}
	if req.MinAmount >= 0 || req.MaxAmount >= 0 {
		stages = append(stages, AmountRangeStage(req.MinAmount, req.MaxAmount))
	}
	if len(req.DirectionFilter) > 0 {
		stages = append(stages, DirectionStage(req.RootAccount, req.DirectionFilter))
	}

	return NewFilterPipeline(stages...)
}
