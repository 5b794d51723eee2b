package service

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellar-network-explorer/internal/domain/entity"
)

func nodeSet(addrs ...string) map[string]*entity.WalletNode {
	nodes := make(map[string]*entity.WalletNode, len(addrs))
	for _, addr := range addrs {
		nodes[addr] = &entity.WalletNode{Address: addr, BalanceXLM: decimal.Zero, TotalVolume: decimal.Zero}
	}
	return nodes
}

func metricsByAddr(metrics []*entity.WalletMetrics) map[string]*entity.WalletMetrics {
	byAddr := make(map[string]*entity.WalletMetrics, len(metrics))
	for _, m := range metrics {
		byAddr[m.Address] = m
	}
	return byAddr
}

func TestComputeMetrics_VolumeAndDegrees(t *testing.T) {
	a, b, c := testAddr("B2"), testAddr("C3"), testAddr("D4")
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []*entity.Transfer{
		transfer(a, b, 100, "XLM", t0),
		transfer(a, c, 50, "XLM", t0.AddDate(0, 0, 2)),
		transfer(b, a, 25, "XLM", t0.AddDate(0, 0, 4)),
	}
	nodes := nodeSet(a, b, c)
	edges := entity.BuildEdges(txs)

	metrics := NewWalletAnalyzer().ComputeMetrics(nodes, edges, txs)
	require.Len(t, metrics, 3)
	byAddr := metricsByAddr(metrics)

	ma := byAddr[a]
	assert.Equal(t, 3, ma.TotalTransactions)
	assert.Equal(t, 2, ma.SentTransactions)
	assert.Equal(t, 1, ma.ReceivedTransactions)
	assert.InDelta(t, 175, ma.TotalVolume, 1e-9)
	assert.InDelta(t, 150, ma.SentVolume, 1e-9)
	assert.InDelta(t, 25, ma.ReceivedVolume, 1e-9)
	assert.Equal(t, 2, ma.UniqueCounterparties)
	assert.Equal(t, 2, ma.OutDegree)
	assert.Equal(t, 1, ma.InDegree)
	assert.Equal(t, 5, ma.DaysActive)
	assert.Equal(t, t0, ma.FirstTransaction)
	assert.Equal(t, t0.AddDate(0, 0, 4), ma.LastTransaction)
	assert.InDelta(t, 175.0/3, ma.AvgTransactionSize, 1e-9)
}

func TestComputeMetrics_ActivityScoreFormula(t *testing.T) {
	a, b := testAddr("B2"), testAddr("C3")
	t0 := time.Now().UTC()
	txs := []*entity.Transfer{transfer(a, b, 100, "XLM", t0)}
	nodes := nodeSet(a, b)

	metrics := NewWalletAnalyzer().ComputeMetrics(nodes, entity.BuildEdges(txs), txs)
	byAddr := metricsByAddr(metrics)

	// 1 tx, 100 volume, 1 counterparty, 1 day active.
	want := 0.3*math.Log1p(1) + 0.3*math.Log1p(100) + 0.2*math.Log1p(1) + 0.2*math.Log1p(1)
	want = math.Round(want*100) / 100
	assert.InDelta(t, want, byAddr[a].ActivityScore, 1e-9)
}

func TestComputeMetrics_CompetitionRanking(t *testing.T) {
	a, b, c := testAddr("B2"), testAddr("C3"), testAddr("D4")
	t0 := time.Now().UTC()
	// a sends the same amount to b twice, then c once: a leads every dimension.
	txs := []*entity.Transfer{
		transfer(a, b, 100, "XLM", t0),
		transfer(a, b, 100, "XLM", t0),
		transfer(a, c, 100, "XLM", t0),
	}
	nodes := nodeSet(a, b, c)

	metrics := NewWalletAnalyzer().ComputeMetrics(nodes, entity.BuildEdges(txs), txs)
	byAddr := metricsByAddr(metrics)

	assert.Equal(t, 1, byAddr[a].VolumeRank)
	assert.Equal(t, 2, byAddr[b].VolumeRank)
	assert.Equal(t, 3, byAddr[c].VolumeRank)
	assert.Equal(t, 1, byAddr[a].OverallRank)
	assert.Equal(t, byAddr[a].Address, metrics[0].Address, "output is sorted by overall rank")
}

func TestClassifyTypes_DistributorAndCollector(t *testing.T) {
	hub := testAddr("B2")
	sinks := []string{testAddr("C3"), testAddr("D4"), testAddr("E5"), testAddr("F6")}
	t0 := time.Now().UTC()

	var txs []*entity.Transfer
	for _, sink := range sinks {
		txs = append(txs, transfer(hub, sink, 10, "XLM", t0))
	}
	nodes := nodeSet(append([]string{hub}, sinks...)...)

	metrics := NewWalletAnalyzer().ComputeMetrics(nodes, entity.BuildEdges(txs), txs)
	byAddr := metricsByAddr(metrics)

	// The hub only sends and the sinks only receive; with five nodes the hub
	// also tops every percentile, so it classifies as an exchange rather than
	// a distributor. The sinks have in-degree 1 and out-degree 0.
	for _, sink := range sinks {
		assert.Equal(t, entity.WalletTypeCollector, byAddr[sink].WalletType)
	}
	assert.Equal(t, entity.WalletTypeExchange, byAddr[hub].WalletType)
}

func TestFindClusters(t *testing.T) {
	a, b, c := testAddr("B2"), testAddr("C3"), testAddr("D4")
	d, e := testAddr("E5"), testAddr("F6")
	lone1, lone2 := testAddr("G7"), testAddr("H2")
	t0 := time.Now().UTC()

	txs := []*entity.Transfer{
		transfer(a, b, 1, "XLM", t0),
		transfer(b, c, 1, "XLM", t0),
		transfer(d, e, 1, "XLM", t0),
		transfer(lone1, lone2, 1, "XLM", t0),
	}

	clusters := NewWalletAnalyzer().FindClusters(txs, 3)
	require.Len(t, clusters, 1, "two-member components fall under the size floor")
	assert.ElementsMatch(t, []string{a, b, c}, clusters[0])

	clusters = NewWalletAnalyzer().FindClusters(txs, 2)
	assert.Len(t, clusters, 3)
	assert.Len(t, clusters[0], 3, "largest cluster first")
}

func TestComputeCentrality(t *testing.T) {
	a, b, c := testAddr("B2"), testAddr("C3"), testAddr("D4")
	t0 := time.Now().UTC()
	// A chain a -> b -> c: b sits on the only path between a and c.
	txs := []*entity.Transfer{
		transfer(a, b, 1, "XLM", t0),
		transfer(b, c, 1, "XLM", t0),
	}
	nodes := nodeSet(a, b, c)
	edges := entity.BuildEdges(txs)

	centrality := NewWalletAnalyzer().ComputeCentrality(nodes, edges)
	require.Len(t, centrality, 3)

	byAddr := make(map[string]*entity.CentralityMetrics)
	for _, cm := range centrality {
		byAddr[cm.Address] = cm
	}

	assert.InDelta(t, 0.5, byAddr[a].Degree, 1e-9)
	assert.InDelta(t, 1.0, byAddr[b].Degree, 1e-9)

	assert.Greater(t, byAddr[b].Betweenness, byAddr[a].Betweenness)
	assert.InDelta(t, 0.5, byAddr[b].Betweenness, 1e-9, "one of two ordered pairs routes through b")

	assert.Greater(t, byAddr[b].Closeness, byAddr[a].Closeness)

	assert.Greater(t, byAddr[c].PageRank, byAddr[a].PageRank, "rank flows along edges")
	sum := byAddr[a].PageRank + byAddr[b].PageRank + byAddr[c].PageRank
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestRankBy(t *testing.T) {
	a, b := testAddr("B2"), testAddr("C3")
	t0 := time.Now().UTC()
	txs := []*entity.Transfer{
		transfer(a, b, 500, "XLM", t0),
		transfer(b, a, 1, "XLM", t0),
		transfer(b, a, 1, "XLM", t0),
		transfer(b, a, 1, "XLM", t0),
	}
	nodes := nodeSet(a, b)
	analyzer := NewWalletAnalyzer()
	metrics := analyzer.ComputeMetrics(nodes, entity.BuildEdges(txs), txs)

	byTx := analyzer.RankBy(metrics, "transactions", 1)
	require.Len(t, byTx, 1)

	byVolume := analyzer.RankBy(metrics, "volume", 2)
	assert.Len(t, byVolume, 2)
	assert.GreaterOrEqual(t, byVolume[0].TotalVolume, byVolume[1].TotalVolume)
}
