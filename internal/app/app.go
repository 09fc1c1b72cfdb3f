package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feedlens/analytics-server/internal/api"
	"github.com/feedlens/analytics-server/internal/config"
	"github.com/feedlens/analytics-server/internal/metrics"
	"github.com/feedlens/analytics-server/internal/repository"
	"github.com/feedlens/analytics-server/internal/service"
	"github.com/feedlens/analytics-server/pkg/cache"
	dbbuilder "github.com/feedlens/analytics-server/pkg/database"
	"github.com/feedlens/analytics-server/pkg/httpserver"
	"github.com/feedlens/analytics-server/pkg/requestcache"
)

const janitorInterval = time.Minute

type App struct {
	logger       *zap.Logger
	dbPool       *sql.DB
	rowCache     *cache.Cache
	requestCache *requestcache.Cache
	httpServer   *httpserver.Server
	janitorStop  chan struct{}
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dbPool, err := dbbuilder.New(
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("database pool initialized", zap.String("path", cfg.DBPath))

	if err := repository.EnsureSchema(dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("schema init failed: %w", err)
	}

	var store service.FeedbackStore = repository.NewFeedbackRepository(dbPool)

	// The Redis row cache is optional; the server runs degraded without it.
	var rowCache *cache.Cache
	if cfg.RedisAddr != "" {
		rowCache, err = cache.New(ctx, cache.WithAddress(cfg.RedisAddr))
		if err != nil {
			logger.Warn("redis unreachable, running without row cache",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			logger.Info("row cache initialized", zap.String("addr", cfg.RedisAddr))
			store = repository.NewCachedFeedbackStore(store, rowCache, cfg.CacheTTL, logger)
		}
	}

	m := metrics.New()

	requestCache := requestcache.New(
		requestcache.WithDefaultTTL(cfg.CacheTTL),
		requestcache.WithLogger(logger),
		requestcache.WithObserver(m.CacheObserver()),
	)

	analytics := service.NewAnalyticsService(store, requestCache, logger,
		service.WithCacheTTL(cfg.CacheTTL))

	handlers := api.NewHandlers(analytics, logger)

	mode := gin.ReleaseMode
	if cfg.AppEnv != "production" {
		mode = gin.DebugMode
	}

	httpServer, err := httpserver.New(
		httpserver.WithPort(cfg.HTTPPort),
		httpserver.WithLogger(logger),
		httpserver.WithMode(mode),
		httpserver.WithLogging(true),
		httpserver.WithMiddleware(m.Middleware()),
	)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create http server: %w", err)
	}

	httpServer.RegisterRoutes(func(r *gin.Engine) {
		handlers.Register(r)
		r.GET("/metrics", m.Handler())
	})

	return &App{
		logger:       logger,
		dbPool:       dbPool,
		rowCache:     rowCache,
		requestCache: requestCache,
		httpServer:   httpServer,
		janitorStop:  make(chan struct{}),
	}, nil
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.logger.Info("application starting")

	a.httpServer.Start()
	go a.janitor()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("application shutting down")

	close(a.janitorStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", zap.Error(err))
	}

	if a.rowCache != nil {
		if err := a.rowCache.Close(); err != nil {
			a.logger.Error("row cache shutdown error", zap.Error(err))
		}
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}

	a.logger.Info("graceful shutdown completed")
	_ = a.logger.Sync()
	return nil
}

// janitor evicts expired request cache entries in the background so bursts
// of distinct queries do not pin memory until their next lookup.
func (a *App) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if purged := a.requestCache.ClearExpired(); purged > 0 {
				a.logger.Debug("purged expired cache entries", zap.Int("count", purged))
			}
		case <-a.janitorStop:
			return
		}
	}
}
