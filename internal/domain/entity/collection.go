package entity

import (
	"errors"
	"fmt"
	"time"
)

// SelectionStrategy decides how the wallet selector fills the node budget.
type SelectionStrategy string

const (
	// StrategyMostActive keeps the accounts with the highest transaction
	// counts (volume, then address, as tie-breaks).
	StrategyMostActive SelectionStrategy = "most_active"

	// StrategyBreadthFirst keeps accounts in discovery order.
	StrategyBreadthFirst SelectionStrategy = "breadth_first"
)

// Direction classifies a transfer relative to the traversal root.
type Direction string

const (
	DirectionSent     Direction = "Sent"
	DirectionReceived Direction = "Received"
)

// ErrInvalidRequest indicates a malformed collection request, rejected
// before any network call.
var ErrInvalidRequest = errors.New("invalid collection request")

// AmountUnset is the sentinel for "no amount bound": any negative min/max
// amount disables that side of the range check.
const AmountUnset = -1.0

// CollectionRequest carries every parameter of one network collection run.
type CollectionRequest struct {
	RootAccount        string            `json:"root_account"`
	MaxDepth           int               `json:"max_depth"`
	MaxAccounts        int               `json:"max_accounts"`
	Strategy           SelectionStrategy `json:"strategy"`
	AssetFilter        []string          `json:"asset_filter,omitempty"`
	TypeFilter         []OperationKind   `json:"type_filter,omitempty"`
	DateFrom           *time.Time        `json:"date_from,omitempty"`
	DateTo             *time.Time        `json:"date_to,omitempty"`
	DirectionFilter    []Direction       `json:"direction_filter,omitempty"`
	MinAmount          float64           `json:"min_amount"`
	MaxAmount          float64           `json:"max_amount"`
	MaxPagesPerAccount int               `json:"max_pages_per_account"`
}

// Validate rejects malformed requests before any network call is made.
func (r *CollectionRequest) Validate() error {
	if err := ValidateAccountID(r.RootAccount); err != nil {
		return err
	}
	if r.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must be >= 0, got %d", ErrInvalidRequest, r.MaxDepth)
	}
	if r.MaxAccounts <= 0 {
		return fmt.Errorf("%w: max_accounts must be > 0, got %d", ErrInvalidRequest, r.MaxAccounts)
	}
	if r.MaxPagesPerAccount <= 0 {
		return fmt.Errorf("%w: max_pages_per_account must be > 0, got %d", ErrInvalidRequest, r.MaxPagesPerAccount)
	}
	switch r.Strategy {
	case StrategyMostActive, StrategyBreadthFirst:
	default:
		return fmt.Errorf("%w: unknown selection strategy %q", ErrInvalidRequest, r.Strategy)
	}
	for _, d := range r.DirectionFilter {
		if d != DirectionSent && d != DirectionReceived {
			return fmt.Errorf("%w: unknown direction %q", ErrInvalidRequest, d)
		}
	}
	return nil
}

// Diagnostics reports what the filter pipeline and the bounded traversal did
// to the collected data. Truncation is a correctness-relevant signal: a
// hit_page_cap account may have more history than was fetched.
type Diagnostics struct {
	InitialTransferCount int                     `json:"initial_transfer_count"`
	StageDropCounts      map[string]int          `json:"per_stage_drop_counts"`
	FinalTransferCount   int                     `json:"final_transfer_count"`
	AccountsDiscovered   int                     `json:"accounts_discovered"`
	AccountsSelected     int                     `json:"accounts_selected"`
	Completeness         map[string]Completeness `json:"per_account_completeness"`
	TruncatedAccounts    []string                `json:"truncated_accounts,omitempty"`
	FailedAccounts       []string                `json:"failed_accounts,omitempty"`
}

// CollectionResult is the consistent (wallet-set, edge-set) pair a collection
// run produces, plus derived analytics and run diagnostics.
type CollectionResult struct {
	Root        string                 `json:"root"`
	Nodes       map[string]*WalletNode `json:"nodes"`
	Edges       []*AggregatedEdge      `json:"edges"`
	Metrics     []*WalletMetrics       `json:"metrics"`
	Clusters    [][]string             `json:"clusters,omitempty"`
	Centrality  []*CentralityMetrics   `json:"centrality,omitempty"`
	Diagnostics Diagnostics            `json:"diagnostics"`
	CollectedAt time.Time              `json:"collected_at"`
}
