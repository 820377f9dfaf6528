package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/api"
	"github.com/veltapay/approval-engine/internal/api/middleware"
	"github.com/veltapay/approval-engine/internal/config"
	"github.com/veltapay/approval-engine/internal/db"
	"github.com/veltapay/approval-engine/internal/events"
	"github.com/veltapay/approval-engine/internal/executor"
	"github.com/veltapay/approval-engine/internal/gateway"
	"github.com/veltapay/approval-engine/internal/idempotency"
	"github.com/veltapay/approval-engine/internal/observability"
	"github.com/veltapay/approval-engine/internal/repository"
	"github.com/veltapay/approval-engine/internal/service"
	"github.com/veltapay/approval-engine/internal/worker"
)

// Run bootstraps the HTTP server and reconciliation worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	var emitter events.Emitter = events.NopEmitter{}
	if cfg.KafkaBrokers != "" {
		writer := events.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		emitter = events.NewKafkaEmitter(writer, 5*time.Second)
		logger.Info("kafka emitter enabled", zap.String("topic", cfg.KafkaTopic))
	}

	store := repository.NewStore(pool)
	cache := idempotency.NewCache(redisClient, cfg.IdempotencyTTL)

	gameGateway := gateway.NewMockGameCreditGateway()
	gameGateway.FailureRate = cfg.GatewayFailureRate
	payoutGateway := gateway.NewMockPayoutGateway()
	payoutGateway.FailureRate = cfg.GatewayFailureRate

	registry := executor.NewRegistry(
		executor.GameLoadExecutor{Gateway: gameGateway},
		executor.WithdrawalExecutor{Gateway: payoutGateway},
	)

	intakeSvc := service.NewIntakeService(store, cache)
	approvalSvc := service.NewApprovalService(store, registry, emitter, cfg.ExecutionTimeout)

	reconciliationSvc := service.NewReconciliationService(store)
	reconciliationWorker := worker.NewReconciliationWorker(reconciliationSvc).
		WithInterval(cfg.ReconciliationInterval)
	stopWorker := reconciliationWorker.Run(ctx)

	router := api.NewRouter(cfg, logger, pool, redisClient, store, intakeSvc, approvalSvc)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping reconciliation worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
