package entity

import (
	"time"
)

// WalletType is an advisory behavioral label derived from percentile
// thresholds. Heuristic only, never a guarantee.
type WalletType string

const (
	WalletTypeExchange    WalletType = "exchange"
	WalletTypeHolder      WalletType = "holder"
	WalletTypeBotTrader   WalletType = "bot_trader"
	WalletTypeDistributor WalletType = "distributor"
	WalletTypeCollector   WalletType = "collector"
	WalletTypeRegular     WalletType = "regular"
)

// WalletMetrics is the per-wallet analytics record derived from the final
// (node-set, edge-set) pair.
type WalletMetrics struct {
	Address      string `json:"address"`
	AddressShort string `json:"address_short"`

	BalanceXLM float64 `json:"balance_xlm"`

	TotalTransactions    int     `json:"total_transactions"`
	SentTransactions     int     `json:"sent_transactions"`
	ReceivedTransactions int     `json:"received_transactions"`
	TotalVolume          float64 `json:"total_volume"`
	SentVolume           float64 `json:"sent_volume"`
	ReceivedVolume       float64 `json:"received_volume"`
	AvgTransactionSize   float64 `json:"avg_transaction_size"`

	UniqueCounterparties  int     `json:"unique_counterparties"`
	InDegree              int     `json:"in_degree"`
	OutDegree             int     `json:"out_degree"`
	ClusteringCoefficient float64 `json:"clustering_coefficient"`

	FirstTransaction time.Time `json:"first_transaction"`
	LastTransaction  time.Time `json:"last_transaction"`
	DaysActive       int       `json:"days_active"`

	ActivityScore  float64 `json:"activity_score"`
	InfluenceScore float64 `json:"influence_score"`

	VolumeRank       int `json:"volume_rank"`
	TransactionRank  int `json:"transaction_rank"`
	CounterpartyRank int `json:"counterparty_rank"`
	ActivityRank     int `json:"activity_rank"`
	OverallRank      int `json:"overall_rank"`

	WalletType WalletType `json:"wallet_type"`
}

// CentralityMetrics holds the network-position measures of one wallet in the
// aggregated directed graph.
type CentralityMetrics struct {
	Address     string  `json:"address"`
	Degree      float64 `json:"degree_centrality"`
	Betweenness float64 `json:"betweenness_centrality"`
	Closeness   float64 `json:"closeness_centrality"`
	PageRank    float64 `json:"pagerank"`
}
