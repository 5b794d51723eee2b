package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stellar-network-explorer/internal/infrastructure/config"
	"stellar-network-explorer/internal/infrastructure/logger"
)

// Server is the HTTP front of the explorer.
type Server struct {
	engine *gin.Engine
	server *http.Server
	logger *logger.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg *config.Config, handlers *Handlers, log *logger.Logger) *Server {
	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", handlers.Health)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/collections", handlers.CreateCollection)
		v1.GET("/wallets/top", handlers.GetTopWallets)
		v1.GET("/path", handlers.GetTransferPath)
	}

	return &Server{
		engine: engine,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.App.HTTPPort),
			Handler: engine,
		},
		logger: log.WithComponent("http-server"),
	}
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
