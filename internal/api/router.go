package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/api/handler"
	"github.com/veltapay/approval-engine/internal/api/middleware"
	"github.com/veltapay/approval-engine/internal/api/spec"
	"github.com/veltapay/approval-engine/internal/config"
	"github.com/veltapay/approval-engine/internal/service"
)

// Router wires handlers, middleware and services into the HTTP surface.
type Router struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *pgxpool.Pool
	redis    redis.Cmdable
	store    service.QueryStore
	intake   *service.IntakeService
	approval *service.ApprovalService
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, rd redis.Cmdable, store service.QueryStore, intake *service.IntakeService, approval *service.ApprovalService) *Router {
	return &Router{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		redis:    rd,
		store:    store,
		intake:   intake,
		approval: approval,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	orderHandler := handler.NewOrderHandler(api.intake, api.approval)
	walletLoadHandler := handler.NewWalletLoadHandler(api.intake, api.approval)
	reviewerHandler := handler.NewReviewerHandler(api.store)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Get("/healthz", healthHandler.Live)
		r.Get("/readyz", healthHandler.Ready)
		r.Get("/openapi.yaml", spec.OpenAPIHandler())
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		// Orders
		r.Post("/v1/orders", orderHandler.Create)
		r.Get("/v1/orders/{id}", orderHandler.Get)
		r.Post("/v1/orders/{id}/decision", orderHandler.Decide)

		// Wallet load requests
		r.Post("/v1/wallet-loads", walletLoadHandler.Create)
		r.Get("/v1/wallet-loads/{id}", walletLoadHandler.Get)
		r.Post("/v1/wallet-loads/{id}/decision", walletLoadHandler.Decide)

		// Reviewer grant registry
		r.Route("/v1/reviewers/{id}/grant", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Put("/", reviewerHandler.Upsert)
			r.Get("/", reviewerHandler.Get)
		})
	})

	return r
}
