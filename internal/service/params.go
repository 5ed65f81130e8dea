package service

import (
	"github.com/marketpay/marketpay/internal/cache"
	"github.com/marketpay/marketpay/internal/config"
	"github.com/marketpay/marketpay/internal/domain/invoice"
	"github.com/marketpay/marketpay/internal/domain/payment"
	"github.com/marketpay/marketpay/internal/domain/shop"
	"github.com/marketpay/marketpay/internal/locker"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Locker locker.Locker
	Cache  cache.Cache

	// Repositories
	ShopRepo    shop.Repository
	InvoiceRepo invoice.Repository
	PaymentRepo payment.Repository
}

// NewServiceParams assembles the common service dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	locker locker.Locker,
	cache cache.Cache,
	shopRepo shop.Repository,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:      logger,
		Config:      config,
		DB:          db,
		Locker:      locker,
		Cache:       cache,
		ShopRepo:    shopRepo,
		InvoiceRepo: invoiceRepo,
		PaymentRepo: paymentRepo,
	}
}
