package database

import (
	"context"
	"fmt"
	"sort"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/repository"
	"stellar-network-explorer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Neo4JGraphRepository implements GraphRepository on Neo4J. Snapshots merge
// into one shared graph: repeated collections over overlapping neighborhoods
// accumulate instead of overwriting each other.
type Neo4JGraphRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JGraphRepository creates a new Neo4J graph repository
func NewNeo4JGraphRepository(client *Neo4JClient, logger *logger.Logger) repository.GraphRepository {
	return &Neo4JGraphRepository{
		client: client,
		logger: logger.WithComponent("neo4j-graph-repo"),
	}
}

const timestampLayout = "2006-01-02T15:04:05.000Z"

// SaveSnapshot persists the wallets and aggregated edges of one collection run.
func (r *Neo4JGraphRepository) SaveSnapshot(ctx context.Context, result *entity.CollectionResult) error {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	collectedAt := result.CollectedAt.UTC().Format(timestampLayout)

	nodeRows := make([]map[string]interface{}, 0, len(result.Nodes))
	for _, node := range result.Nodes {
		nodeRows = append(nodeRows, map[string]interface{}{
			"address":           node.Address,
			"balance_xlm":       node.BalanceXLM.InexactFloat64(),
			"transaction_count": node.TransactionCount,
			"total_volume":      node.TotalVolume.InexactFloat64(),
			"counterparties":    node.Counterparties,
			"not_found":         node.NotFound,
		})
	}
	sort.Slice(nodeRows, func(i, j int) bool {
		return nodeRows[i]["address"].(string) < nodeRows[j]["address"].(string)
	})

	nodeQuery := `
		UNWIND $nodes AS node
		MERGE (w:Wallet {address: node.address})
		SET w.balance_xlm = node.balance_xlm,
			w.transaction_count = node.transaction_count,
			w.total_volume = node.total_volume,
			w.counterparties = node.counterparties,
			w.not_found = node.not_found,
			w.last_collected = datetime($collected_at)
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, nodeQuery, map[string]interface{}{
			"nodes":        nodeRows,
			"collected_at": collectedAt,
		}); err != nil {
			return nil, err
		}
		return nil, r.saveEdges(ctx, tx, result.Edges)
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	r.logger.Info("Saved collection snapshot",
		zap.String("root", entity.ShortID(result.Root)),
		zap.Int("wallets", len(nodeRows)),
		zap.Int("edges", len(result.Edges)))
	return nil
}

func (r *Neo4JGraphRepository) saveEdges(ctx context.Context, tx neo4j.ManagedTransaction, edges []*entity.AggregatedEdge) error {
	if len(edges) == 0 {
		return nil
	}

	edgeRows := make([]map[string]interface{}, 0, len(edges))
	for _, edge := range edges {
		assets := make([]string, 0, len(edge.Assets))
		for code := range edge.Assets {
			assets = append(assets, code)
		}
		sort.Strings(assets)

		edgeRows = append(edgeRows, map[string]interface{}{
			"from":        edge.From,
			"to":          edge.To,
			"weight":      edge.Weight.InexactFloat64(),
			"tx_count":    edge.Count,
			"asset_codes": assets,
			"first_seen":  edge.FirstSeen.UTC().Format(timestampLayout),
			"last_seen":   edge.LastSeen.UTC().Format(timestampLayout),
		})
	}

	edgeQuery := `
		UNWIND $edges AS edge
		MATCH (from:Wallet {address: edge.from})
		MATCH (to:Wallet {address: edge.to})
		MERGE (from)-[r:SENT_TO]->(to)
		SET r.weight = edge.weight,
			r.tx_count = edge.tx_count,
			r.asset_codes = edge.asset_codes,
			r.first_seen = datetime(edge.first_seen),
			r.last_seen = datetime(edge.last_seen)
	`

	_, err := tx.Run(ctx, edgeQuery, map[string]interface{}{"edges": edgeRows})
	return err
}

// GetTopWallets retrieves the most active persisted wallets by transaction count.
func (r *Neo4JGraphRepository) GetTopWallets(ctx context.Context, limit int) ([]*entity.WalletNode, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (w:Wallet)
		RETURN w.address, w.balance_xlm, w.transaction_count, w.total_volume, w.counterparties
		ORDER BY w.transaction_count DESC, w.address ASC
		LIMIT $limit
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]interface{}{"limit": limit})
		if err != nil {
			return nil, err
		}

		var wallets []*entity.WalletNode
		for records.Next(ctx) {
			values := records.Record().Values
			node := &entity.WalletNode{
				Address: values[0].(string),
			}
			if balance, ok := values[1].(float64); ok {
				node.BalanceXLM = decimal.NewFromFloat(balance)
			}
			if count, ok := values[2].(int64); ok {
				node.TransactionCount = int(count)
			}
			if volume, ok := values[3].(float64); ok {
				node.TotalVolume = decimal.NewFromFloat(volume)
			}
			if parties, ok := values[4].(int64); ok {
				node.Counterparties = int(parties)
			}
			wallets = append(wallets, node)
		}
		return wallets, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get top wallets: %w", err)
	}

	return result.([]*entity.WalletNode), nil
}

// GetTransferPath finds a shortest directed payment path between two wallets.
func (r *Neo4JGraphRepository) GetTransferPath(ctx context.Context, fromAddress, toAddress string, maxHops int) ([]string, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH path = shortestPath((from:Wallet {address: $from})-[:SENT_TO*1..%d]->(to:Wallet {address: $to}))
		RETURN [node IN nodes(path) | node.address] AS addresses
	`, maxHops)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]interface{}{
			"from": fromAddress,
			"to":   toAddress,
		})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			return []string(nil), records.Err()
		}

		raw := records.Record().Values[0].([]any)
		path := make([]string, 0, len(raw))
		for _, addr := range raw {
			path = append(path, addr.(string))
		}
		return path, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer path: %w", err)
	}

	return result.([]string), nil
}
