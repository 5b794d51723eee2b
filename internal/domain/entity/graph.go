package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// WalletNode is a node of the assembled payment graph: an account plus the
// activity attributes the layout and analytics layers consume.
type WalletNode struct {
	Address          string          `json:"address"`
	BalanceXLM       decimal.Decimal `json:"balance_xlm"`
	Sequence         string          `json:"sequence,omitempty"`
	TransactionCount int             `json:"transaction_count"`
	TotalVolume      decimal.Decimal `json:"total_volume"`
	Counterparties   int             `json:"counterparties"`
	DirectWithRoot   bool            `json:"direct_with_root"`
	NotFound         bool            `json:"not_found,omitempty"`
}

// AggregatedEdge merges every transfer between one ordered (from, to) pair.
// At most one edge exists per ordered pair; opposite directions stay separate.
type AggregatedEdge struct {
	From      string                     `json:"from"`
	To        string                     `json:"to"`
	Weight    decimal.Decimal            `json:"weight"`
	Count     int                        `json:"count"`
	Assets    map[string]decimal.Decimal `json:"assets"`
	FirstSeen time.Time                  `json:"first_seen"`
	LastSeen  time.Time                  `json:"last_seen"`
}

// BuildEdges aggregates transfers into directed edges. Self-transfers are
// dropped here, at edge-build time. Output order is deterministic
// (from asc, then to asc).
func BuildEdges(transfers []*Transfer) []*AggregatedEdge {
	byPair := make(map[[2]string]*AggregatedEdge)

	for _, t := range transfers {
		if t.From == "" || t.To == "" || t.From == t.To {
			continue
		}

		key := [2]string{t.From, t.To}
		edge, ok := byPair[key]
		if !ok {
			edge = &AggregatedEdge{
				From:      t.From,
				To:        t.To,
				Weight:    decimal.Zero,
				Assets:    make(map[string]decimal.Decimal),
				FirstSeen: t.CreatedAt,
				LastSeen:  t.CreatedAt,
			}
			byPair[key] = edge
		}

		edge.Weight = edge.Weight.Add(t.Amount)
		edge.Count++
		asset := t.Asset()
		edge.Assets[asset] = edge.Assets[asset].Add(t.Amount)

		if t.CreatedAt.Before(edge.FirstSeen) {
			edge.FirstSeen = t.CreatedAt
		}
		if t.CreatedAt.After(edge.LastSeen) {
			edge.LastSeen = t.CreatedAt
		}
	}

	edges := make([]*AggregatedEdge, 0, len(byPair))
	for _, edge := range byPair {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// EdgeEndpoints returns the set of addresses appearing on either side of the
// given transfers, excluding self-transfers.
func EdgeEndpoints(transfers []*Transfer) map[string]struct{} {
	endpoints := make(map[string]struct{})
	for _, t := range transfers {
		if t.From == "" || t.To == "" || t.From == t.To {
			continue
		}
		endpoints[t.From] = struct{}{}
		endpoints[t.To] = struct{}{}
	}
	return endpoints
}
