package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/repository"
	"stellar-network-explorer/internal/domain/service"
	"stellar-network-explorer/internal/infrastructure/logger"
)

// CollectionApplicationService implements the NetworkCollector interface: it
// walks the payment graph breadth-first from the root, selects the node set,
// filters transfers, enriches accounts, and derives the analytics.
//
// graphRepo and publisher are optional; a nil value disables persistence or
// event publishing without changing collection behavior.
type CollectionApplicationService struct {
	fetcher        service.PageFetcher
	paginator      service.AccountPaginator
	selector       *service.WalletSelector
	analyzer       *service.WalletAnalyzer
	graphRepo      repository.GraphRepository
	publisher      service.EventPublisher
	workers        int
	minClusterSize int
	logger         *logger.Logger
}

// NewCollectionApplicationService creates a new collection application service
func NewCollectionApplicationService(
	fetcher service.PageFetcher,
	paginator service.AccountPaginator,
	selector *service.WalletSelector,
	analyzer *service.WalletAnalyzer,
	graphRepo repository.GraphRepository,
	publisher service.EventPublisher,
	workers int,
	minClusterSize int,
	logger *logger.Logger,
) service.NetworkCollector {
	if workers < 1 {
		workers = 1
	}
	return &CollectionApplicationService{
		fetcher:        fetcher,
		paginator:      paginator,
		selector:       selector,
		analyzer:       analyzer,
		graphRepo:      graphRepo,
		publisher:      publisher,
		workers:        workers,
		minClusterSize: minClusterSize,
		logger:         logger.WithComponent("collection-service"),
	}
}

// traversal is the mutable state shared by the workers of one collection run.
// All fields are guarded by mu.
type traversal struct {
	mu           sync.Mutex
	visited      map[string]struct{}
	order        []string
	activity     map[string]*entity.ActivityStat
	transfers    []*entity.Transfer
	seen         map[string]struct{}
	completeness map[string]entity.Completeness
	failed       []string
	budget       int
}

// Collect runs one full network collection. Cancellation mid-traversal stops
// the walk and produces a result from the transfers gathered so far.
func (s *CollectionApplicationService) Collect(ctx context.Context, req *entity.CollectionRequest) (*entity.CollectionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("Starting network collection",
		zap.String("root", entity.ShortID(req.RootAccount)),
		zap.Int("max_depth", req.MaxDepth),
		zap.Int("max_accounts", req.MaxAccounts))

	tr := s.traverse(ctx, req)

	selected := s.selector.Select(tr.activity, tr.order, req.RootAccount, req.Strategy, req.MaxAccounts)

	pipeline := service.NewStandardPipeline(req, selected)
	filtered, dropReport := pipeline.Apply(tr.transfers)

	nodes := s.enrichNodes(ctx, withEdgeEndpoints(selected, filtered), tr.activity)

	edges := entity.BuildEdges(filtered)
	metrics := s.analyzer.ComputeMetrics(nodes, edges, filtered)
	clusters := s.analyzer.FindClusters(filtered, s.minClusterSize)
	centrality := s.analyzer.ComputeCentrality(nodes, edges)

	result := &entity.CollectionResult{
		Root:        req.RootAccount,
		Nodes:       nodes,
		Edges:       edges,
		Metrics:     metrics,
		Clusters:    clusters,
		Centrality:  centrality,
		CollectedAt: time.Now().UTC(),
		Diagnostics: s.buildDiagnostics(tr, selected, len(filtered), dropReport),
	}

	s.logger.Info("Network collection completed",
		zap.String("root", entity.ShortID(req.RootAccount)),
		zap.Int("accounts_discovered", len(tr.activity)),
		zap.Int("accounts_selected", len(selected)),
		zap.Int("transfers", len(filtered)),
		zap.Int("edges", len(edges)))

	if s.graphRepo != nil {
		if err := s.graphRepo.SaveSnapshot(ctx, result); err != nil {
			s.logger.Error("Failed to persist collection snapshot", zap.Error(err))
			// Persistence is downstream of correctness; the result stands.
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishCollectionCompleted(ctx, result); err != nil {
			s.logger.Error("Failed to publish collection event", zap.Error(err))
		}
	}

	return result, nil
}

// traverse walks the graph level by level. Accounts are marked visited before
// their history is fetched, so concurrent discovery through multiple paths
// fetches each account exactly once. At most MaxAccounts accounts are ever
// fetched; partner endpoints discovered beyond that still enter the activity
// map and compete for node slots at selection time.
func (s *CollectionApplicationService) traverse(ctx context.Context, req *entity.CollectionRequest) *traversal {
	tr := &traversal{
		visited:      make(map[string]struct{}),
		activity:     make(map[string]*entity.ActivityStat),
		seen:         make(map[string]struct{}),
		completeness: make(map[string]entity.Completeness),
		budget:       req.MaxAccounts,
	}

	filter := service.PaginationFilter{
		AssetCodes: req.AssetFilter,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		MaxPages:   req.MaxPagesPerAccount,
	}

	root := req.RootAccount
	tr.visited[root] = struct{}{}
	tr.order = append(tr.order, root)
	rootStat := entity.NewActivityStat()
	rootStat.DirectWithRoot = true
	tr.activity[root] = rootStat

	frontier := []string{root}
	for depth := 0; depth <= req.MaxDepth && len(frontier) > 0; depth++ {
		if ctx.Err() != nil {
			s.logger.Warn("Collection cancelled, returning partial network",
				zap.Int("depth", depth),
				zap.Int("accounts_discovered", len(tr.activity)))
			break
		}

		next := s.processLevel(ctx, tr, frontier, filter, root, depth, req.MaxDepth)
		frontier = next
	}

	return tr
}

// processLevel fetches every account of one depth level in parallel and
// returns the next frontier in deterministic order.
func (s *CollectionApplicationService) processLevel(
	ctx context.Context,
	tr *traversal,
	frontier []string,
	filter service.PaginationFilter,
	root string,
	depth, maxDepth int,
) []string {
	discovered := make(map[string]struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, accountID := range frontier {
		accountID := accountID
		g.Go(func() error {
			transfers, completeness, err := s.paginator.CollectAccount(gctx, accountID, filter)

			tr.mu.Lock()
			defer tr.mu.Unlock()

			tr.completeness[accountID] = completeness

			// Whatever the scan gathered before failing is still real data;
			// ingest it before deciding what the error means.
			for _, t := range transfers {
				s.ingestTransfer(tr, t, root, discovered)
			}

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				if errors.Is(err, entity.ErrNotFound) {
					// Deleted or merged accounts have zero activity; they stay
					// in the graph as placeholders rather than as failures.
					return nil
				}
				s.logger.Warn("Failed to collect account, keeping partial network",
					zap.String("account", entity.ShortID(accountID)),
					zap.Error(err))
				tr.failed = append(tr.failed, accountID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil
	}

	if depth >= maxDepth {
		return nil
	}

	next := make([]string, 0, len(discovered))
	for addr := range discovered {
		if len(tr.visited) >= tr.budget {
			break
		}
		if _, ok := tr.visited[addr]; ok {
			continue
		}
		tr.visited[addr] = struct{}{}
		next = append(next, addr)
	}
	sort.Strings(next)
	return next
}

// ingestTransfer folds one transfer into the traversal. Caller holds tr.mu.
func (s *CollectionApplicationService) ingestTransfer(tr *traversal, t *entity.Transfer, root string, discovered map[string]struct{}) {
	key := t.DedupKey()
	if _, ok := tr.seen[key]; ok {
		return
	}
	tr.seen[key] = struct{}{}
	tr.transfers = append(tr.transfers, t)

	for _, pair := range [][2]string{{t.From, t.To}, {t.To, t.From}} {
		addr, counterparty := pair[0], pair[1]
		if addr == "" {
			continue
		}
		stat, ok := tr.activity[addr]
		if !ok {
			stat = entity.NewActivityStat()
			tr.activity[addr] = stat
			tr.order = append(tr.order, addr)
		}
		stat.Record(counterparty, t.Amount)
		if addr == root || counterparty == root {
			stat.DirectWithRoot = true
		}
		if addr != root {
			discovered[addr] = struct{}{}
		}
	}
}

// enrichNodes resolves ledger details for every selected wallet. Deleted
// accounts become placeholders; transient lookup failures degrade to a node
// without balance data rather than failing the run.
func (s *CollectionApplicationService) enrichNodes(
	ctx context.Context,
	selected []string,
	activity map[string]*entity.ActivityStat,
) map[string]*entity.WalletNode {
	accounts := make([]*entity.Account, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, addr := range selected {
		i, addr := i, addr
		g.Go(func() error {
			account, err := s.fetcher.FetchAccount(gctx, addr)
			if err != nil {
				if !errors.Is(err, entity.ErrNotFound) {
					s.logger.Warn("Failed to resolve account details",
						zap.String("account", entity.ShortID(addr)),
						zap.Error(err))
				}
				account = entity.PlaceholderAccount(addr)
			}
			accounts[i] = account
			return nil
		})
	}
	_ = g.Wait()

	nodes := make(map[string]*entity.WalletNode, len(selected))
	for i, addr := range selected {
		account := accounts[i]
		if account == nil {
			account = entity.PlaceholderAccount(addr)
		}
		node := &entity.WalletNode{
			Address:    addr,
			BalanceXLM: account.BalanceXLM,
			Sequence:   account.Sequence,
			NotFound:   account.NotFound,
		}
		if stat, ok := activity[addr]; ok {
			node.TransactionCount = stat.TransactionCount
			node.TotalVolume = stat.TotalVolume
			node.Counterparties = len(stat.Counterparties)
			node.DirectWithRoot = stat.DirectWithRoot
		}
		nodes[addr] = node
	}
	return nodes
}

// withEdgeEndpoints extends the selected set with edge endpoints the
// selector dropped. The membership stage keeps a transfer when either leg
// is selected, so the edge set may reference accounts outside the
// selection; those accounts still need nodes for the graph to be
// consistent.
func withEdgeEndpoints(selected []string, transfers []*entity.Transfer) []string {
	member := make(map[string]struct{}, len(selected))
	for _, addr := range selected {
		member[addr] = struct{}{}
	}
	var extra []string
	for addr := range entity.EdgeEndpoints(transfers) {
		if _, ok := member[addr]; !ok {
			extra = append(extra, addr)
		}
	}
	sort.Strings(extra)
	return append(selected, extra...)
}

func (s *CollectionApplicationService) buildDiagnostics(
	tr *traversal,
	selected []string,
	finalCount int,
	dropReport map[string]int,
) entity.Diagnostics {
	diag := entity.Diagnostics{
		InitialTransferCount: len(tr.transfers),
		StageDropCounts:      dropReport,
		FinalTransferCount:   finalCount,
		AccountsDiscovered:   len(tr.activity),
		AccountsSelected:     len(selected),
		Completeness:         tr.completeness,
		FailedAccounts:       tr.failed,
	}
	for account, c := range tr.completeness {
		if c.HitPageCap {
			diag.TruncatedAccounts = append(diag.TruncatedAccounts, account)
		}
	}
	sort.Strings(diag.TruncatedAccounts)
	sort.Strings(diag.FailedAccounts)
	return diag
}
