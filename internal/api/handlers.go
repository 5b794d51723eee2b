package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/repository"
	"stellar-network-explorer/internal/domain/service"
	"stellar-network-explorer/internal/infrastructure/config"
	"stellar-network-explorer/internal/infrastructure/logger"
)

// Handlers holds the HTTP handlers of the explorer API. graphRepo may be nil
// when persistence is disabled; the endpoints backed by it then report 503.
type Handlers struct {
	collector service.NetworkCollector
	analyzer  *service.WalletAnalyzer
	graphRepo repository.GraphRepository
	defaults  config.CollectorConfig
	logger    *logger.Logger
}

// NewHandlers creates the API handlers
func NewHandlers(
	collector service.NetworkCollector,
	analyzer *service.WalletAnalyzer,
	graphRepo repository.GraphRepository,
	cfg *config.Config,
	log *logger.Logger,
) *Handlers {
	return &Handlers{
		collector: collector,
		analyzer:  analyzer,
		graphRepo: graphRepo,
		defaults:  cfg.Collector,
		logger:    log.WithComponent("api-handlers"),
	}
}

// collectionRequestDTO is the JSON body of POST /api/v1/collections. Pointer
// fields distinguish "absent" from zero so config defaults can fill the gaps.
type collectionRequestDTO struct {
	RootAccount        string     `json:"root_account" binding:"required"`
	MaxDepth           *int       `json:"max_depth"`
	MaxAccounts        *int       `json:"max_accounts"`
	Strategy           *string    `json:"strategy"`
	AssetFilter        []string   `json:"asset_filter"`
	TypeFilter         []string   `json:"type_filter"`
	DateFrom           *time.Time `json:"date_from"`
	DateTo             *time.Time `json:"date_to"`
	DirectionFilter    []string   `json:"direction_filter"`
	MinAmount          *float64   `json:"min_amount"`
	MaxAmount          *float64   `json:"max_amount"`
	MaxPagesPerAccount *int       `json:"max_pages_per_account"`
	RankBy             *string    `json:"rank_by"`
	TopN               *int       `json:"top_n"`
}

func (h *Handlers) toCollectionRequest(dto *collectionRequestDTO) *entity.CollectionRequest {
	req := &entity.CollectionRequest{
		RootAccount:        dto.RootAccount,
		MaxDepth:           h.defaults.MaxDepth,
		MaxAccounts:        h.defaults.MaxAccounts,
		MaxPagesPerAccount: h.defaults.MaxPagesPerAccount,
		Strategy:           entity.StrategyMostActive,
		AssetFilter:        dto.AssetFilter,
		DateFrom:           dto.DateFrom,
		DateTo:             dto.DateTo,
		MinAmount:          entity.AmountUnset,
		MaxAmount:          entity.AmountUnset,
	}
	if dto.MaxDepth != nil {
		req.MaxDepth = *dto.MaxDepth
	}
	if dto.MaxAccounts != nil {
		req.MaxAccounts = *dto.MaxAccounts
	}
	if dto.MaxPagesPerAccount != nil {
		req.MaxPagesPerAccount = *dto.MaxPagesPerAccount
	}
	if dto.Strategy != nil {
		req.Strategy = entity.SelectionStrategy(*dto.Strategy)
	}
	if dto.MinAmount != nil {
		req.MinAmount = *dto.MinAmount
	}
	if dto.MaxAmount != nil {
		req.MaxAmount = *dto.MaxAmount
	}
	for _, kind := range dto.TypeFilter {
		req.TypeFilter = append(req.TypeFilter, entity.OperationKind(kind))
	}
	for _, direction := range dto.DirectionFilter {
		req.DirectionFilter = append(req.DirectionFilter, entity.Direction(direction))
	}
	return req
}

// CreateCollection runs one network collection synchronously.
func (h *Handlers) CreateCollection(c *gin.Context) {
	var dto collectionRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := h.toCollectionRequest(&dto)
	result, err := h.collector.Collect(c.Request.Context(), req)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Collection failed",
			zap.String("root", entity.ShortID(req.RootAccount)),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "collection failed"})
		return
	}

	if dto.RankBy != nil {
		topN := 0
		if dto.TopN != nil {
			topN = *dto.TopN
		}
		result.Metrics = h.analyzer.RankBy(result.Metrics, *dto.RankBy, topN)
	}

	c.JSON(http.StatusOK, result)
}

// GetTopWallets returns the most active persisted wallets.
func (h *Handlers) GetTopWallets(c *gin.Context) {
	if h.graphRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "graph store is disabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	wallets, err := h.graphRepo.GetTopWallets(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to query top wallets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

// GetTransferPath finds a shortest payment path between two persisted wallets.
func (h *Handlers) GetTransferPath(c *gin.Context) {
	if h.graphRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "graph store is disabled"})
		return
	}

	from := c.Query("from")
	to := c.Query("to")
	if err := entity.ValidateAccountID(from); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := entity.ValidateAccountID(to); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxHops := 6
	if raw := c.Query("max_hops"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_hops must be a positive integer"})
			return
		}
		maxHops = parsed
	}

	path, err := h.graphRepo.GetTransferPath(c.Request.Context(), from, to, maxHops)
	if err != nil {
		h.logger.Error("Failed to query transfer path", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if len(path) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no path found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "hops": len(path) - 1})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func isValidationError(err error) bool {
	return errors.Is(err, entity.ErrInvalidAccountID) || errors.Is(err, entity.ErrInvalidRequest)
}
