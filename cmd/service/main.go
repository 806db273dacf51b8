package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice-service/config"
	"backoffice-service/internal/audit"
	"backoffice-service/internal/cache"
	"backoffice-service/internal/database"
	"backoffice-service/internal/handlers"
	"backoffice-service/internal/logger"
	"backoffice-service/internal/producer"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/router"
	"backoffice-service/internal/service"
	gtransport "backoffice-service/internal/transport/grpc"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// @Title Backoffice API
// @Version 1.0
// @Description Импорт заказов, остатки и журнал движений склада
// @BasePath /
func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repo := repository.New(db)
	store := service.NewStore(repo)

	checks := map[string]router.Pinger{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	// Redis и Kafka необязательны: без них импорт работает без
	// распределённой блокировки, а события не публикуются.
	var lock service.ImportLock
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Warn("Redis недоступен, блокировка импорта отключена", zap.Error(err))
		} else {
			defer rdb.Close()
			lock = rdb
			checks["redis"] = rdb.Ping
		}
	}

	var events service.EventBus
	if len(cfg.KafkaBrokers) > 0 {
		prod := producer.NewOrderEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := prod.Close(); err != nil {
				log.Warn("failed to close kafka producer", zap.Error(err))
			}
		}()
		events = prod
		log.Info("Kafka producer enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	opts := service.Options{
		DefaultWarehouseCode: cfg.DefaultWarehouseCode,
		BaseCurrencyCode:     cfg.BaseCurrencyCode,
		ImportLockTTL:        cfg.ImportLockTTL,
	}
	imports := service.NewImportService(store, lock, events, log.Named("import"), opts)
	orders := service.NewOrderService(store, events, log.Named("orders"), opts)
	inventory := service.NewInventoryService(store, log.Named("inventory"), opts)

	r := router.Router(router.Deps{
		Orders:    handlers.NewOrderHandler(imports, orders, cfg.RetryAttempts, log),
		Inventory: handlers.NewInventoryHandler(inventory, cfg.RetryAttempts, log),
		Checks:    checks,
	}, log)

	httpSrv := &http.Server{
		Addr:              cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(gtransport.NewLoggingUnaryServerInterceptor(log.Named("grpc"))),
	)

	// Health server
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)

	// Reflection for local debugging
	reflection.Register(grpcServer)

	grpcChecks := make(map[string]gtransport.Check, len(checks))
	for name, check := range checks {
		grpcChecks[name] = gtransport.Check(check)
	}
	healthReporter := gtransport.NewHealthReporter(healthSrv, grpcChecks, 15*time.Second, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting HTTP server", zap.String("addr", cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCPort)
		if err != nil {
			return err
		}
		log.Info("Starting gRPC server", zap.String("addr", cfg.GRPCPort))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error { return healthReporter.Run(gctx) })

	if cfg.AuditInterval > 0 {
		auditor := audit.NewAuditor(repo.Inventory, repo.Movements, log.Named("audit"))
		scheduler := audit.NewScheduler(auditor, cfg.AuditInterval, log.Named("audit"))
		g.Go(func() error { return scheduler.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		return
	}
	log.Info("Service stopped gracefully")
}
