package repository

import (
	"context"

	"stellar-network-explorer/internal/domain/entity"
)

// GraphRepository defines the downstream boundary for persisted graph
// snapshots. The collection core never depends on a concrete store.
type GraphRepository interface {
	// SaveSnapshot persists the nodes and aggregated edges of a collection run.
	SaveSnapshot(ctx context.Context, result *entity.CollectionResult) error

	// GetTopWallets retrieves the most active persisted wallets.
	GetTopWallets(ctx context.Context, limit int) ([]*entity.WalletNode, error)

	// GetTransferPath finds a shortest payment path between two wallets.
	GetTransferPath(ctx context.Context, fromAddress, toAddress string, maxHops int) ([]string, error)
}
