package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stellar-network-explorer/internal/api"
	app_service "stellar-network-explorer/internal/application/service"
	"stellar-network-explorer/internal/domain/repository"
	domain_service "stellar-network-explorer/internal/domain/service"
	"stellar-network-explorer/internal/infrastructure/cache"
	"stellar-network-explorer/internal/infrastructure/config"
	"stellar-network-explorer/internal/infrastructure/database"
	"stellar-network-explorer/internal/infrastructure/horizon"
	"stellar-network-explorer/internal/infrastructure/logger"
	"stellar-network-explorer/internal/infrastructure/messaging"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Create FX application
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.NATS),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			func(cfg *config.Config) *horizon.RateLimiter {
				return horizon.NewRateLimiter(cfg.Horizon.RateLimitPerMinute)
			},
			newPageFetcher,
			newPaginator,
			database.NewNeo4JClient,
			newGraphRepository,
			messaging.NewNATSPublisher,
			newEventPublisher,
		),

		// Domain services
		fx.Provide(
			domain_service.NewWalletSelector,
			domain_service.NewWalletAnalyzer,
		),

		// Application providers
		fx.Provide(
			newCollectionService,
			api.NewHandlers,
			api.NewServer,
		),

		// Lifecycle hooks
		fx.Invoke(startGraphStore),
		fx.Invoke(startPublisher),
		fx.Invoke(startHTTPServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// newPageFetcher builds the Horizon client, wrapped with page memoization
// when the cache is enabled.
func newPageFetcher(cfg *config.Config, limiter *horizon.RateLimiter, log *logger.Logger) domain_service.PageFetcher {
	fetcher := horizon.NewClient(&cfg.Horizon, limiter, log)
	if cfg.Cache.Enabled {
		fetcher = horizon.NewCachedFetcher(fetcher, cache.NewMemoryPageCache(), cfg.Cache.TTL)
	}
	return fetcher
}

func newPaginator(fetcher domain_service.PageFetcher, cfg *config.Config, log *logger.Logger) domain_service.AccountPaginator {
	return horizon.NewPaginator(fetcher, cfg.Horizon.PageSize, log)
}

// newGraphRepository returns nil when Neo4J is disabled; the collection
// service and the API both tolerate the absence.
func newGraphRepository(client *database.Neo4JClient, cfg *config.Config, log *logger.Logger) repository.GraphRepository {
	if !cfg.Neo4J.Enabled {
		return nil
	}
	return database.NewNeo4JGraphRepository(client, log)
}

func newEventPublisher(publisher *messaging.NATSPublisher, cfg *config.Config) domain_service.EventPublisher {
	if !cfg.NATS.Enabled {
		return nil
	}
	return publisher
}

func newCollectionService(
	fetcher domain_service.PageFetcher,
	paginator domain_service.AccountPaginator,
	selector *domain_service.WalletSelector,
	analyzer *domain_service.WalletAnalyzer,
	graphRepo repository.GraphRepository,
	publisher domain_service.EventPublisher,
	cfg *config.Config,
	log *logger.Logger,
) domain_service.NetworkCollector {
	return app_service.NewCollectionApplicationService(
		fetcher,
		paginator,
		selector,
		analyzer,
		graphRepo,
		publisher,
		cfg.App.WorkerPoolSize,
		cfg.Collector.MinClusterSize,
		log,
	)
}

// startGraphStore connects and disconnects Neo4J with the app lifecycle.
func startGraphStore(lifecycle fx.Lifecycle, client *database.Neo4JClient, cfg *config.Config, log *logger.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Neo4J.Enabled {
				log.Info("Neo4J is disabled, collection results will not be persisted")
				return nil
			}
			if err := client.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Neo4J: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if !cfg.Neo4J.Enabled {
				return nil
			}
			return client.Close(ctx)
		},
	})
}

// startPublisher connects and disconnects NATS with the app lifecycle.
func startPublisher(lifecycle fx.Lifecycle, publisher *messaging.NATSPublisher, log *logger.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := publisher.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return publisher.Close(ctx)
		},
	})
}

// startHTTPServer runs the API server with the app lifecycle.
func startHTTPServer(lifecycle fx.Lifecycle, server *api.Server) {
	lifecycle.Append(fx.Hook{
		OnStart: server.Start,
		OnStop:  server.Stop,
	})
}
