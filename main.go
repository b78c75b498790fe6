package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"wellness/config"
	"wellness/cron"
	"wellness/database"
	"wellness/database/repository"
	"wellness/handlers"
	"wellness/observability"
	"wellness/routes"
	"wellness/services/availability"
	"wellness/services/booking"
	"wellness/services/notification"
	"wellness/services/pricing"
	"wellness/services/provider"
	"wellness/services/quota"
	"wellness/services/recurring"
	"wellness/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing := observability.InitOTel(rootCtx, logger, cfg)

	repos, err := openStore(rootCtx, cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to open store: %v", err)
	}

	if err := utils.InitCache(); err != nil {
		logger.Warn("main: rate cache disabled", zap.Error(err))
	}
	cache := utils.GetCacheClient()

	// Events go through the queue when Redis is reachable, otherwise straight to the log.
	sink := notification.NewLogEmitter()
	var events notification.Emitter = sink
	var queueClient *asynq.Client
	if cache != nil {
		queueClient = asynq.NewClient(cron.RedisOpt(cfg))
		events = notification.NewQueueEmitter(queueClient)
	}

	clock := utils.SystemClock()
	ledger := quota.NewLedger(repos.Quota, repos.Tx, clock, cfg.FundingOrder())
	checker := availability.NewChecker(repos.Slots, repos.Scheduler, repos.Providers, repos.Tx, clock, cfg.EngineTimezone)
	rates := pricing.NewRateLookup(repos.Providers, cache)
	manager := booking.NewManager(repos.Scheduler, repos.Providers, checker, ledger, rates, events, repos.Tx, clock,
		booking.PolicyFromConfig(cfg))
	dispatcher, err := recurring.NewDispatcher(repos.Recurring, repos.Providers, manager, rates, clock, cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid recurring configuration: %v", err)
	}
	directory := provider.NewProviderService(repos.Providers, rates, clock)

	var worker *cron.Worker
	if cfg.WorkerEnabled && cache != nil {
		worker, err = cron.InitWorker(cfg, dispatcher, sink)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to start worker: %v", err)
		}
	}

	utils.StartHealthMonitor(rootCtx, repos.Health, []*redis.Client{cache})

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(manager),
		handlers.NewQuotaHandler(ledger),
		handlers.NewProviderHandler(directory, checker),
		handlers.NewRecurringHandler(dispatcher),
	)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	routes.RegisterRoutes(rootCtx, router, handlerBundle, cfg)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		_ = queueClient.Close()
	}
	stop()
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("main: tracer shutdown failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// openStore connects the backend selected by DB_DRIVER.
func openStore(ctx context.Context, cfg config.Config) (*repository.Repositories, error) {
	switch cfg.DBDriver {
	case "postgres", "sqlite":
		if err := database.InitSQL(); err != nil {
			return nil, err
		}
		return repository.NewGormRepositories(database.SQL), nil
	default:
		if err := database.InitDB(); err != nil {
			return nil, err
		}
		db := database.MongoDatabase()
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, err
		}
		return repository.NewMongoRepositories(database.MongoClient, db), nil
	}
}
