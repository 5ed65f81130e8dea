package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/marketpay/marketpay/internal/cache"
	"github.com/marketpay/marketpay/internal/config"
	"github.com/marketpay/marketpay/internal/domain/invoice"
	"github.com/marketpay/marketpay/internal/domain/payment"
	"github.com/marketpay/marketpay/internal/domain/shop"
	"github.com/marketpay/marketpay/internal/locker"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/postgres"
	"github.com/marketpay/marketpay/internal/types"
	"github.com/marketpay/marketpay/internal/validator"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	ShopRepo    shop.Repository
	InvoiceRepo invoice.Repository
	PaymentRepo payment.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     postgres.IClient
	locker locker.Locker
	cache  cache.Cache
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		ShopRepo:    NewInMemoryShopStore(),
		InvoiceRepo: NewInMemoryInvoiceStore(),
		PaymentRepo: NewInMemoryPaymentStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.locker = locker.NewManager(s.config, s.logger)
	s.cache = cache.NewInMemoryCache(s.config)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.ShopRepo.(*InMemoryShopStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.cache.Flush(s.ctx)
}

// ClearStores is exposed for tests that need to reset state mid-test
func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns the test stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the mock db client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLocker returns the test lock manager
func (s *BaseServiceTestSuite) GetLocker() locker.Locker {
	return s.locker
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// GetUUID returns a new UUID
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
