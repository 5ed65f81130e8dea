package repository

import (
	"github.com/marketpay/marketpay/internal/domain/invoice"
	"github.com/marketpay/marketpay/internal/domain/payment"
	"github.com/marketpay/marketpay/internal/domain/shop"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/postgres"
	repo "github.com/marketpay/marketpay/internal/repository/postgres"
)

// NewShopRepository creates a new shop repository
func NewShopRepository(db *postgres.DB, logger *logger.Logger) shop.Repository {
	return repo.NewShopRepository(db, logger)
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return repo.NewInvoiceRepository(db, logger)
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return repo.NewPaymentRepository(db, logger)
}
