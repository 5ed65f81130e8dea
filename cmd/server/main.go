package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/marketpay/marketpay/internal/api"
	v1 "github.com/marketpay/marketpay/internal/api/v1"
	"github.com/marketpay/marketpay/internal/cache"
	"github.com/marketpay/marketpay/internal/config"
	"github.com/marketpay/marketpay/internal/locker"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/postgres"
	"github.com/marketpay/marketpay/internal/repository"
	"github.com/marketpay/marketpay/internal/service"
	"github.com/marketpay/marketpay/internal/validator"
)

// @title MarketPay API
// @version 1.0
// @description Rent collection payment core for the produce market
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// Per-shop payment lock
			provideLocker,

			// Repositories
			repository.NewShopRepository,
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,

			// Services
			service.NewServiceParams,
			service.NewShopService,
			service.NewInvoiceService,
			service.NewPaymentService,
			provideBatchService,

			// API
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)
	app.Run()
}

func provideLocker(cfg *config.Configuration, log *logger.Logger) locker.Locker {
	return locker.NewManager(cfg, log)
}

func provideBatchService(params service.ServiceParams, payments service.PaymentService) service.BatchService {
	return service.NewBatchService(params, payments)
}

func provideHandlers(
	log *logger.Logger,
	shopService service.ShopService,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
	batchService service.BatchService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(log),
		Shop:    v1.NewShopHandler(shopService, invoiceService, log),
		Invoice: v1.NewInvoiceHandler(invoiceService, log),
		Payment: v1.NewPaymentHandler(paymentService, batchService, log),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
