package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellar-network-explorer/internal/domain/entity"
	domain_service "stellar-network-explorer/internal/domain/service"
	"stellar-network-explorer/internal/infrastructure/config"
	"stellar-network-explorer/internal/infrastructure/logger"
)

func testAddr(suffix string) string {
	return "G" + strings.Repeat("A", 55-len(suffix)) + suffix
}

// fakeCollector returns a canned result and remembers the request it saw.
type fakeCollector struct {
	result  *entity.CollectionResult
	lastReq *entity.CollectionRequest
}

func (f *fakeCollector) Collect(ctx context.Context, req *entity.CollectionRequest) (*entity.CollectionResult, error) {
	f.lastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return f.result, nil
}

func newTestRouter(t *testing.T, collector *fakeCollector) *gin.Engine {
	t.Helper()
	log, err := logger.NewLogger("error", "development")
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "development"},
		Collector: config.CollectorConfig{
			MaxDepth:           2,
			MaxAccounts:        100,
			MaxPagesPerAccount: 25,
		},
	}
	handlers := NewHandlers(collector, domain_service.NewWalletAnalyzer(), nil, cfg, log)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/api/v1/collections", handlers.CreateCollection)
	engine.GET("/api/v1/wallets/top", handlers.GetTopWallets)
	return engine
}

func postCollection(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateCollection_RanksMetricsOnRequest(t *testing.T) {
	a, b, c := testAddr("B2"), testAddr("C3"), testAddr("D4")
	collector := &fakeCollector{result: &entity.CollectionResult{
		Root: a,
		Metrics: []*entity.WalletMetrics{
			{Address: a, TotalVolume: 10, OverallRank: 1},
			{Address: b, TotalVolume: 500, OverallRank: 2},
			{Address: c, TotalVolume: 40, OverallRank: 3},
		},
	}}
	router := newTestRouter(t, collector)

	rec := postCollection(t, router,
		`{"root_account":"`+a+`","rank_by":"volume","top_n":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Metrics []struct {
			Address string `json:"address"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Metrics, 2)
	assert.Equal(t, b, got.Metrics[0].Address, "highest volume ranks first")
	assert.Equal(t, c, got.Metrics[1].Address)
}

func TestCreateCollection_DefaultsFromConfig(t *testing.T) {
	a := testAddr("B2")
	collector := &fakeCollector{result: &entity.CollectionResult{Root: a}}
	router := newTestRouter(t, collector)

	rec := postCollection(t, router, `{"root_account":"`+a+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, collector.lastReq)
	assert.Equal(t, 2, collector.lastReq.MaxDepth)
	assert.Equal(t, 100, collector.lastReq.MaxAccounts)
	assert.Equal(t, entity.StrategyMostActive, collector.lastReq.Strategy)
	assert.Equal(t, entity.AmountUnset, collector.lastReq.MinAmount)
}

func TestCreateCollection_RejectsInvalidAccount(t *testing.T) {
	collector := &fakeCollector{}
	router := newTestRouter(t, collector)

	rec := postCollection(t, router, `{"root_account":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTopWallets_DisabledStore(t *testing.T) {
	router := newTestRouter(t, &fakeCollector{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/top", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
