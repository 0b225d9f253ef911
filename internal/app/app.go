package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	pb "github.com/godilite/product-analytics/api/v1"
	"github.com/godilite/product-analytics/internal/config"
	handler "github.com/godilite/product-analytics/internal/grpc"
	"github.com/godilite/product-analytics/internal/ingest"
	"github.com/godilite/product-analytics/internal/repository"
	"github.com/godilite/product-analytics/internal/service"
	"github.com/godilite/product-analytics/pkg/cache"
	dbbuilder "github.com/godilite/product-analytics/pkg/database"
	grpcsrv "github.com/godilite/product-analytics/pkg/grpc/server"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger        *zap.Logger
	dbPool        *sql.DB
	cache         *cache.Cache
	grpcServer    *grpcsrv.Server
	metricsServer *grpcsrv.MetricsServer
	handlers      *handler.GRPCHandlers
	watcher       *ingest.Watcher
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbPool, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	a := &App{logger: logger, dbPool: dbPool}
	if err := a.init(ctx, cfg); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, cfg *config.Config) error {
	logger := a.logger

	eventsRepo := repository.NewEventRepository(a.dbPool)
	if err := eventsRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("schema init failed: %w", err)
	}

	loader := ingest.NewLoader(eventsRepo, logger)
	if cfg.EventsCSVPath != "" {
		rows, err := loader.LoadFile(ctx, cfg.EventsCSVPath)
		if err != nil {
			return fmt.Errorf("initial events load failed: %w", err)
		}
		logger.Info("Events loaded", zap.String("path", cfg.EventsCSVPath), zap.Int("rows", rows))
	}

	var cacher handler.Cacher
	if cfg.RedisAddr != "" {
		cacheClient, err := cache.New(ctx, cache.WithAddress(cfg.RedisAddr))
		if err != nil {
			return fmt.Errorf("cache init failed: %w", err)
		}
		a.cache = cacheClient
		cacher = cacheClient
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("REDIS_ADDR not set, responses are not cached")
	}

	analyticsService := service.NewAnalyticsService(eventsRepo, logger)
	a.handlers = handler.NewGRPCHandlers(analyticsService, cacher, logger, cfg.CacheTTL, cfg.ABAlpha)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithMetrics(true),
		grpcsrv.WithRecovery(true),
	)
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}
	a.grpcServer = grpcServer

	grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterProductAnalyticsServer(s, a.handlers)
	})

	if cfg.MetricsPort > 0 {
		a.metricsServer, err = grpcsrv.NewMetricsServer(cfg.MetricsPort, logger)
		if err != nil {
			return err
		}
	}

	if cfg.WatchEvents {
		a.watcher = ingest.NewWatcher(loader, cfg.EventsCSVPath, logger)
		a.watcher.OnReload = a.onReload
	}

	return nil
}

func (a *App) onReload(rows int, err error) {
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.handlers.InvalidateCache(ctx); err != nil {
		a.logger.Warn("cache invalidation after reload failed", zap.Error(err))
	}
}

// GRPCAddr returns the address the gRPC server listens on.
func (a *App) GRPCAddr() net.Addr {
	return a.grpcServer.Addr()
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve starts every server and blocks until ctx is done, then shuts down.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Info("application starting")

	a.grpcServer.Start()
	if a.metricsServer != nil {
		a.metricsServer.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-a.grpcServer.Errors():
			return fmt.Errorf("grpc serve: %w", err)
		case <-gctx.Done():
			return nil
		}
	})
	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Run(gctx)
		})
	}

	<-gctx.Done()
	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	a.close()

	if len(errs) == 0 {
		a.logger.Info("graceful shutdown completed successfully")
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func (a *App) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}
}
