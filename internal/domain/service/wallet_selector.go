package service

import (
	"sort"

	"stellar-network-explorer/internal/domain/entity"
)

// WalletSelector picks which discovered accounts make it into the final
// network when discovery exceeds the requested node budget.
type WalletSelector struct{}

// NewWalletSelector creates a WalletSelector.
func NewWalletSelector() *WalletSelector {
	return &WalletSelector{}
}

// Select returns up to maxNodes addresses from the discovered set. The root
// and all of its direct counterparties are always included, even when that
// exceeds maxNodes: a network missing the root's own partners is misleading.
// Remaining slots are filled per the strategy, most-active by default.
//
// order is the discovery order of the traversal and drives the
// breadth-first strategy; it must contain every key of activity.
func (s *WalletSelector) Select(
	activity map[string]*entity.ActivityStat,
	order []string,
	root string,
	strategy entity.SelectionStrategy,
	maxNodes int,
) []string {
	if len(activity) <= maxNodes {
		return s.orderedKeys(activity, order)
	}

	selected := make(map[string]struct{}, maxNodes)
	selected[root] = struct{}{}
	for addr, stat := range activity {
		if stat.DirectWithRoot {
			selected[addr] = struct{}{}
		}
	}

	var candidates []string
	for _, addr := range order {
		if _, ok := selected[addr]; ok {
			continue
		}
		if _, ok := activity[addr]; !ok {
			continue
		}
		candidates = append(candidates, addr)
	}

	if strategy == entity.StrategyMostActive {
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := activity[candidates[i]], activity[candidates[j]]
			if a.TransactionCount != b.TransactionCount {
				return a.TransactionCount > b.TransactionCount
			}
			if cmp := a.TotalVolume.Cmp(b.TotalVolume); cmp != 0 {
				return cmp > 0
			}
			return candidates[i] < candidates[j]
		})
	}

	for _, addr := range candidates {
		if len(selected) >= maxNodes {
			break
		}
		selected[addr] = struct{}{}
	}

	result := make([]string, 0, len(selected))
	for _, addr := range order {
		if _, ok := selected[addr]; ok {
			result = append(result, addr)
		}
	}
	return result
}

func (s *WalletSelector) orderedKeys(activity map[string]*entity.ActivityStat, order []string) []string {
	result := make([]string, 0, len(activity))
	for _, addr := range order {
		if _, ok := activity[addr]; ok {
			result = append(result, addr)
		}
	}
	return result
}
