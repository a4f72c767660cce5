package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/citydesk/api/handler"
	"github.com/fastygo/citydesk/internal/config"
	"github.com/fastygo/citydesk/internal/infrastructure/journal"
	"github.com/fastygo/citydesk/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/citydesk/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/citydesk/internal/infrastructure/redis"
	"github.com/fastygo/citydesk/internal/middleware"
	"github.com/fastygo/citydesk/internal/router"
	"github.com/fastygo/citydesk/internal/services"
	"github.com/fastygo/citydesk/internal/services/lifecycle"
	"github.com/fastygo/citydesk/pkg/httpcontext"
	"github.com/fastygo/citydesk/pkg/logger"
	"github.com/fastygo/citydesk/repository/postgres"
	redisRepo "github.com/fastygo/citydesk/repository/redis"
	authUC "github.com/fastygo/citydesk/usecase/auth"
	"github.com/fastygo/citydesk/usecase/conversation"
	reqLifecycle "github.com/fastygo/citydesk/usecase/lifecycle"
	requestsUC "github.com/fastygo/citydesk/usecase/requests"
)

const devJWTSecret = "citydesk-development-secret"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.NotifyContext(context.Background())
	defer cancel()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, zapLogger)
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Journal.Path, "")
	if err != nil {
		zapLogger.Fatal("failed to open event journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)

	store := conversation.New(zapLogger, reqLifecycle.WithDeadline(cfg.Requests.Deadline))

	catalogSync := services.NewCatalogSync(categoryRepo, store, cfg.Requests.CatalogSyncInterval, zapLogger)
	if _, err := catalogSync.Sync(appCtx); err != nil {
		zapLogger.Fatal("initial category sync failed", zap.Error(err))
	}
	catalogSync.Start()
	manager.Register("catalog_sync", func(ctx context.Context) error {
		catalogSync.Stop(ctx)
		return nil
	})

	if _, err := services.SeedFromFile(cfg.Requests.SeedPath, store, zapLogger); err != nil {
		zapLogger.Warn("request seed skipped", zap.Error(err))
	}

	journalProcessor := services.NewJournalProcessor(
		journalStore,
		mon,
		eventRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Journal.SyncInterval,
			BatchSize:  cfg.Journal.BatchSize,
			MaxRetries: cfg.Journal.MaxRetry,
			Retention:  cfg.Journal.Retention,
		},
	)
	journalProcessor.Start()
	manager.Register("journal_processor", func(ctx context.Context) error {
		journalProcessor.Stop(ctx)
		// last export attempt so a clean shutdown leaves little behind
		_, err := journalProcessor.Drain(ctx)
		return err
	})

	authUseCase := authUC.New(userRepo, sessionRepo, zapLogger)
	requestsUseCase := requestsUC.New(store, services.NewJournalBridge(journalStore), zapLogger).
		WithHistory(eventRepo)

	secret := cfg.JWT.Secret
	if secret == "" {
		zapLogger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	tokens := middleware.NewTokenIssuer(secret, cfg.JWT.Issuer)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout).WithParent(appCtx)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, tokens, ctxAdapter, zapLogger, cfg.JWT.SessionTTL),
		Requests: apiHandler.NewRequestHandler(requestsUseCase, authUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers, middleware.JWTAuth(tokens, zapLogger))

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxConnsPerIP:      cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
