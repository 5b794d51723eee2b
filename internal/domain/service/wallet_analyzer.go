package service

import (
	"math"
	"sort"

	"stellar-network-explorer/internal/domain/entity"
)

// WalletAnalyzer derives per-wallet analytics from a finished collection:
// activity metrics, behavioral classification, clusters, and centrality.
// All methods are pure with respect to their inputs.
type WalletAnalyzer struct{}

// NewWalletAnalyzer creates a WalletAnalyzer.
func NewWalletAnalyzer() *WalletAnalyzer {
	return &WalletAnalyzer{}
}

// ComputeMetrics builds the full metrics record for every node, including
// scores, ranks, and wallet-type labels. Output is sorted by overall rank.
func (a *WalletAnalyzer) ComputeMetrics(
	nodes map[string]*entity.WalletNode,
	edges []*entity.AggregatedEdge,
	transfers []*entity.Transfer,
) []*entity.WalletMetrics {
	if len(nodes) == 0 {
		return nil
	}

	byAddr := make(map[string]*entity.WalletMetrics, len(nodes))
	counterparties := make(map[string]map[string]struct{}, len(nodes))
	for addr, node := range nodes {
		byAddr[addr] = &entity.WalletMetrics{
			Address:      addr,
			AddressShort: entity.ShortID(addr),
			BalanceXLM:   node.BalanceXLM.InexactFloat64(),
			WalletType:   entity.WalletTypeRegular,
		}
		counterparties[addr] = make(map[string]struct{})
	}

	for _, t := range transfers {
		amount := t.Amount.InexactFloat64()
		if m, ok := byAddr[t.From]; ok {
			m.TotalTransactions++
			m.SentTransactions++
			m.TotalVolume += amount
			m.SentVolume += amount
			counterparties[t.From][t.To] = struct{}{}
			a.recordTimestamp(m, t)
		}
		if m, ok := byAddr[t.To]; ok {
			m.TotalTransactions++
			m.ReceivedTransactions++
			m.TotalVolume += amount
			m.ReceivedVolume += amount
			counterparties[t.To][t.From] = struct{}{}
			a.recordTimestamp(m, t)
		}
	}

	outNeighbors, inNeighbors := adjacency(edges)
	for addr, m := range byAddr {
		m.UniqueCounterparties = len(counterparties[addr])
		m.OutDegree = len(outNeighbors[addr])
		m.InDegree = len(inNeighbors[addr])
		m.ClusteringCoefficient = clusteringCoefficient(addr, outNeighbors, inNeighbors)

		if m.TotalTransactions > 0 {
			m.AvgTransactionSize = m.TotalVolume / float64(m.TotalTransactions)
			m.DaysActive = int(m.LastTransaction.Sub(m.FirstTransaction).Hours()/24) + 1
		}

		m.ActivityScore = round2(
			0.3*math.Log1p(float64(m.TotalTransactions)) +
				0.3*math.Log1p(m.TotalVolume) +
				0.2*math.Log1p(float64(m.UniqueCounterparties)) +
				0.2*math.Log1p(float64(m.DaysActive)))
		m.InfluenceScore = round2(
			0.4*float64(m.UniqueCounterparties) +
				0.3*float64(m.InDegree+m.OutDegree) +
				0.3*m.ClusteringCoefficient*100)
	}

	metrics := make([]*entity.WalletMetrics, 0, len(byAddr))
	for _, m := range byAddr {
		metrics = append(metrics, m)
	}

	a.assignRanks(metrics)
	a.classifyTypes(metrics)

	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].OverallRank != metrics[j].OverallRank {
			return metrics[i].OverallRank < metrics[j].OverallRank
		}
		return metrics[i].Address < metrics[j].Address
	})
	return metrics
}

func (a *WalletAnalyzer) recordTimestamp(m *entity.WalletMetrics, t *entity.Transfer) {
	if m.FirstTransaction.IsZero() || t.CreatedAt.Before(m.FirstTransaction) {
		m.FirstTransaction = t.CreatedAt
	}
	if t.CreatedAt.After(m.LastTransaction) {
		m.LastTransaction = t.CreatedAt
	}
}

// assignRanks applies competition ranking (ties share the minimum rank) on
// each dimension, then blends the dimension ranks into the overall rank.
func (a *WalletAnalyzer) assignRanks(metrics []*entity.WalletMetrics) {
	rank := func(value func(*entity.WalletMetrics) float64, set func(*entity.WalletMetrics, int)) {
		for _, m := range metrics {
			r := 1
			for _, other := range metrics {
				if value(other) > value(m) {
					r++
				}
			}
			set(m, r)
		}
	}

	rank(func(m *entity.WalletMetrics) float64 { return m.TotalVolume },
		func(m *entity.WalletMetrics, r int) { m.VolumeRank = r })
	rank(func(m *entity.WalletMetrics) float64 { return float64(m.TotalTransactions) },
		func(m *entity.WalletMetrics, r int) { m.TransactionRank = r })
	rank(func(m *entity.WalletMetrics) float64 { return float64(m.UniqueCounterparties) },
		func(m *entity.WalletMetrics, r int) { m.CounterpartyRank = r })
	rank(func(m *entity.WalletMetrics) float64 { return m.ActivityScore },
		func(m *entity.WalletMetrics, r int) { m.ActivityRank = r })

	// Lower blended value is better, so invert the sign for the shared
	// greater-is-better ranking helper.
	rank(func(m *entity.WalletMetrics) float64 {
		return -(0.3*float64(m.VolumeRank) +
			0.3*float64(m.TransactionRank) +
			0.2*float64(m.CounterpartyRank) +
			0.2*float64(m.ActivityRank))
	}, func(m *entity.WalletMetrics, r int) { m.OverallRank = r })
}

// classifyTypes labels wallets by comparing each wallet against percentile
// thresholds computed over the whole node set. Checked in priority order;
// the first matching label wins.
func (a *WalletAnalyzer) classifyTypes(metrics []*entity.WalletMetrics) {
	if len(metrics) == 0 {
		return
	}

	txCounts := make([]float64, len(metrics))
	volumes := make([]float64, len(metrics))
	parties := make([]float64, len(metrics))
	avgSizes := make([]float64, len(metrics))
	for i, m := range metrics {
		txCounts[i] = float64(m.TotalTransactions)
		volumes[i] = m.TotalVolume
		parties[i] = float64(m.UniqueCounterparties)
		avgSizes[i] = m.AvgTransactionSize
	}

	txP90 := percentile(txCounts, 0.9)
	txP80 := percentile(txCounts, 0.8)
	txP30 := percentile(txCounts, 0.3)
	volP90 := percentile(volumes, 0.9)
	cpP90 := percentile(parties, 0.9)
	avgP30 := percentile(avgSizes, 0.3)

	for _, m := range metrics {
		switch {
		case float64(m.TotalTransactions) >= txP90 && float64(m.UniqueCounterparties) >= cpP90:
			m.WalletType = entity.WalletTypeExchange
		case m.TotalVolume >= volP90 && float64(m.TotalTransactions) <= txP30:
			m.WalletType = entity.WalletTypeHolder
		case float64(m.TotalTransactions) >= txP80 && m.AvgTransactionSize <= avgP30:
			m.WalletType = entity.WalletTypeBotTrader
		case m.OutDegree > 2*m.InDegree && m.OutDegree > 0:
			m.WalletType = entity.WalletTypeDistributor
		case m.InDegree > 2*m.OutDegree && m.InDegree > 0:
			m.WalletType = entity.WalletTypeCollector
		default:
			m.WalletType = entity.WalletTypeRegular
		}
	}
}

// RankBy returns the topN metrics ordered by the named dimension. Unknown
// dimensions fall back to overall rank.
func (a *WalletAnalyzer) RankBy(metrics []*entity.WalletMetrics, by string, topN int) []*entity.WalletMetrics {
	ranked := make([]*entity.WalletMetrics, len(metrics))
	copy(ranked, metrics)

	var less func(i, j int) bool
	switch by {
	case "volume":
		less = func(i, j int) bool { return ranked[i].TotalVolume > ranked[j].TotalVolume }
	case "transactions":
		less = func(i, j int) bool { return ranked[i].TotalTransactions > ranked[j].TotalTransactions }
	case "counterparties":
		less = func(i, j int) bool { return ranked[i].UniqueCounterparties > ranked[j].UniqueCounterparties }
	case "activity":
		less = func(i, j int) bool { return ranked[i].ActivityScore > ranked[j].ActivityScore }
	case "influence":
		less = func(i, j int) bool { return ranked[i].InfluenceScore > ranked[j].InfluenceScore }
	default:
		less = func(i, j int) bool { return ranked[i].OverallRank < ranked[j].OverallRank }
	}
	sort.SliceStable(ranked, less)

	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}

// FindClusters returns the connected components of the undirected transfer
// graph, largest first, keeping only components of at least minSize members.
// Members are sorted, so output is deterministic.
func (a *WalletAnalyzer) FindClusters(transfers []*entity.Transfer, minSize int) [][]string {
	neighbors := make(map[string][]string)
	addEdge := func(u, v string) {
		neighbors[u] = append(neighbors[u], v)
		neighbors[v] = append(neighbors[v], u)
	}
	for _, t := range transfers {
		if t.From == "" || t.To == "" || t.From == t.To {
			continue
		}
		addEdge(t.From, t.To)
	}

	addrs := make([]string, 0, len(neighbors))
	for addr := range neighbors {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	visited := make(map[string]struct{}, len(neighbors))
	var clusters [][]string
	for _, start := range addrs {
		if _, ok := visited[start]; ok {
			continue
		}
		var component []string
		stack := []string{start}
		visited[start] = struct{}{}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, node)
			for _, next := range neighbors[node] {
				if _, ok := visited[next]; !ok {
					visited[next] = struct{}{}
					stack = append(stack, next)
				}
			}
		}
		if len(component) >= minSize {
			sort.Strings(component)
			clusters = append(clusters, component)
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if len(clusters[i]) != len(clusters[j]) {
			return len(clusters[i]) > len(clusters[j])
		}
		return clusters[i][0] < clusters[j][0]
	})
	return clusters
}

// ComputeCentrality computes degree, closeness, betweenness, and PageRank
// for every node over the aggregated directed graph. Output is sorted by
// address.
func (a *WalletAnalyzer) ComputeCentrality(
	nodes map[string]*entity.WalletNode,
	edges []*entity.AggregatedEdge,
) []*entity.CentralityMetrics {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	addrs := make([]string, 0, n)
	for addr := range nodes {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	outNeighbors, inNeighbors := adjacency(edges)
	undirected := make(map[string][]string, n)
	for _, addr := range addrs {
		seen := make(map[string]struct{})
		for next := range outNeighbors[addr] {
			seen[next] = struct{}{}
		}
		for next := range inNeighbors[addr] {
			seen[next] = struct{}{}
		}
		for next := range seen {
			if _, ok := nodes[next]; ok {
				undirected[addr] = append(undirected[addr], next)
			}
		}
	}

	betweenness := brandesBetweenness(addrs, outNeighbors, nodes)
	pagerank := computePageRank(addrs, outNeighbors, nodes)

	result := make([]*entity.CentralityMetrics, 0, n)
	for _, addr := range addrs {
		c := &entity.CentralityMetrics{
			Address:     addr,
			Betweenness: round4(betweenness[addr]),
			PageRank:    round4(pagerank[addr]),
		}
		if n > 1 {
			c.Degree = round4(float64(len(undirected[addr])) / float64(n-1))
		}
		c.Closeness = round4(closeness(addr, undirected, n))
		result = append(result, c)
	}
	return result
}

// closeness is the Wasserman-Faust form: reachability-scaled inverse of the
// mean shortest-path distance, over the undirected graph.
func closeness(source string, neighbors map[string][]string, n int) float64 {
	dist := map[string]int{source: 0}
	queue := []string{source}
	total := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range neighbors[node] {
			if _, ok := dist[next]; ok {
				continue
			}
			dist[next] = dist[node] + 1
			total += dist[next]
			queue = append(queue, next)
		}
	}
	reachable := len(dist) - 1
	if reachable <= 0 || total == 0 || n <= 1 {
		return 0
	}
	return (float64(reachable) / float64(total)) * (float64(reachable) / float64(n-1))
}

// brandesBetweenness is Brandes' accumulation algorithm on the directed
// unweighted graph, normalized for directed graphs.
func brandesBetweenness(
	addrs []string,
	outNeighbors map[string]map[string]struct{},
	nodes map[string]*entity.WalletNode,
) map[string]float64 {
	betweenness := make(map[string]float64, len(addrs))
	for _, addr := range addrs {
		betweenness[addr] = 0
	}

	for _, source := range addrs {
		var stack []string
		preds := make(map[string][]string)
		sigma := map[string]float64{source: 1}
		dist := map[string]int{source: 0}
		queue := []string{source}

		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			stack = append(stack, node)
			for next := range outNeighbors[node] {
				if _, ok := nodes[next]; !ok {
					continue
				}
				if _, seen := dist[next]; !seen {
					dist[next] = dist[node] + 1
					queue = append(queue, next)
				}
				if dist[next] == dist[node]+1 {
					sigma[next] += sigma[node]
					preds[next] = append(preds[next], node)
				}
			}
		}

		delta := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			node := stack[i]
			for _, pred := range preds[node] {
				delta[pred] += sigma[pred] / sigma[node] * (1 + delta[node])
			}
			if node != source {
				betweenness[node] += delta[node]
			}
		}
	}

	n := len(addrs)
	if n > 2 {
		scale := 1.0 / (float64(n-1) * float64(n-2))
		for addr := range betweenness {
			betweenness[addr] *= scale
		}
	}
	return betweenness
}

const (
	pageRankDamping    = 0.85
	pageRankIterations = 100
)

// computePageRank runs the power iteration with uniform redistribution of
// dangling-node mass.
func computePageRank(
	addrs []string,
	outNeighbors map[string]map[string]struct{},
	nodes map[string]*entity.WalletNode,
) map[string]float64 {
	n := len(addrs)
	rank := make(map[string]float64, n)
	for _, addr := range addrs {
		rank[addr] = 1.0 / float64(n)
	}

	outDegree := make(map[string]int, n)
	for _, addr := range addrs {
		for next := range outNeighbors[addr] {
			if _, ok := nodes[next]; ok {
				outDegree[addr]++
			}
		}
	}

	for i := 0; i < pageRankIterations; i++ {
		next := make(map[string]float64, n)
		dangling := 0.0
		for _, addr := range addrs {
			if outDegree[addr] == 0 {
				dangling += rank[addr]
			}
		}
		base := (1-pageRankDamping)/float64(n) + pageRankDamping*dangling/float64(n)
		for _, addr := range addrs {
			next[addr] = base
		}
		for _, addr := range addrs {
			if outDegree[addr] == 0 {
				continue
			}
			share := pageRankDamping * rank[addr] / float64(outDegree[addr])
			for target := range outNeighbors[addr] {
				if _, ok := nodes[target]; ok {
					next[target] += share
				}
			}
		}
		rank = next
	}
	return rank
}

// clusteringCoefficient is the fraction of directed pairs among a node's
// undirected neighborhood that are themselves connected by an edge.
func clusteringCoefficient(
	addr string,
	outNeighbors, inNeighbors map[string]map[string]struct{},
) float64 {
	neighborhood := make(map[string]struct{})
	for next := range outNeighbors[addr] {
		neighborhood[next] = struct{}{}
	}
	for next := range inNeighbors[addr] {
		neighborhood[next] = struct{}{}
	}
	k := len(neighborhood)
	if k < 2 {
		return 0
	}

	links := 0
	for u := range neighborhood {
		for v := range outNeighbors[u] {
			if u == v {
				continue
			}
			if _, ok := neighborhood[v]; ok {
				links++
			}
		}
	}
	return float64(links) / float64(k*(k-1))
}

// adjacency builds out- and in-neighbor sets from the aggregated edges.
func adjacency(edges []*entity.AggregatedEdge) (out, in map[string]map[string]struct{}) {
	out = make(map[string]map[string]struct{})
	in = make(map[string]map[string]struct{})
	for _, e := range edges {
		if out[e.From] == nil {
			out[e.From] = make(map[string]struct{})
		}
		out[e.From][e.To] = struct{}{}
		if in[e.To] == nil {
			in[e.To] = make(map[string]struct{})
		}
		in[e.To][e.From] = struct{}{}
	}
	return out, in
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// percentile computes the linear-interpolation quantile of values.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
