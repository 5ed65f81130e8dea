package service

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/marketpay/marketpay/internal/api/dto"
	"github.com/marketpay/marketpay/internal/domain/invoice"
	"github.com/marketpay/marketpay/internal/domain/shop"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/locker"
	"github.com/marketpay/marketpay/internal/testutil"
	"github.com/marketpay/marketpay/internal/types"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  PaymentService
	testData struct {
		shop    *shop.Shop
		invoice *invoice.Invoice
		rent    *invoice.LedgerRecord
	}
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPaymentService(newTestServiceParams(&s.BaseServiceTestSuite))
	s.setupTestData()
}

func (s *PaymentServiceSuite) setupTestData() {
	s.testData.shop = &shop.Shop{
		ID:        "shop_test_payment",
		Code:      "A-101",
		Name:      "Test Stall",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().ShopRepo.Create(s.GetContext(), s.testData.shop))

	s.testData.invoice = &invoice.Invoice{
		ID:            "inv_test_payment",
		ShopID:        s.testData.shop.ID,
		PeriodMonth:   3,
		PeriodYear:    2026,
		Currency:      types.DefaultCurrency,
		RentAmount:    decimal.NewFromInt(1500),
		TotalAmount:   decimal.NewFromInt(1500),
		InvoiceStatus: types.InvoiceStatusUnpaid,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.testData.rent = &invoice.LedgerRecord{
		ID:         "ledg_test_rent",
		InvoiceID:  s.testData.invoice.ID,
		Category:   types.LedgerCategoryRent,
		Amount:     decimal.NewFromInt(1500),
		PaidAmount: decimal.Zero,
		Status:     types.LedgerRecordStatusUnpaid,
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), s.testData.invoice, invoice.Ledgers{
		Rents: []*invoice.LedgerRecord{s.testData.rent},
	}))
}

func (s *PaymentServiceSuite) applyRequest(amount int64, key string) *dto.ApplyPaymentRequest {
	return &dto.ApplyPaymentRequest{
		ShopID:         s.testData.shop.ID,
		PeriodMonth:    3,
		PeriodYear:     2026,
		Category:       types.LedgerCategoryRent,
		AmountPaid:     decimal.NewFromInt(amount),
		PaymentMethod:  types.PaymentMethodCash,
		PaymentDate:    "2026-03-15",
		IdempotencyKey: key,
	}
}

func (s *PaymentServiceSuite) TestApplyPaymentSettlesRecord() {
	resp, err := s.service.ApplyPayment(s.GetContext(), s.applyRequest(1500, "key-settle"))
	s.NoError(err)
	s.NotEmpty(resp.ReceiptNumber)
	s.True(resp.TotalPaid.Equal(decimal.NewFromInt(1500)))
	s.True(resp.Remaining.IsZero())
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)

	ledgers, err := s.GetStores().InvoiceRepo.GetLedgers(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Require().Len(ledgers.Rents, 1)
	s.Equal(types.LedgerRecordStatusPaid, ledgers.Rents[0].Status)
	s.NotNil(ledgers.Rents[0].PaidDate)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, inv.InvoiceStatus)
}

func (s *PaymentServiceSuite) TestApplyPaymentPartial() {
	resp, err := s.service.ApplyPayment(s.GetContext(), s.applyRequest(1000, "key-partial"))
	s.NoError(err)
	s.True(resp.TotalPaid.Equal(decimal.NewFromInt(1000)))
	s.True(resp.Remaining.Equal(decimal.NewFromInt(500)))
	s.Equal(types.InvoiceStatusPartiallyPaid, resp.InvoiceStatus)

	ledgers, err := s.GetStores().InvoiceRepo.GetLedgers(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.LedgerRecordStatusPartial, ledgers.Rents[0].Status)
	s.Nil(ledgers.Rents[0].PaidDate)
}

func (s *PaymentServiceSuite) TestApplyPaymentRejectsOverAllocation() {
	_, err := s.service.ApplyPayment(s.GetContext(), s.applyRequest(2000, "key-over"))
	s.Error(err)
	s.True(ierr.IsValidation(err))

	// the sub-ledger must be untouched and no audit row written
	ledgers, err := s.GetStores().InvoiceRepo.GetLedgers(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.True(ledgers.Rents[0].PaidAmount.IsZero())

	payments, err := s.GetStores().PaymentRepo.ListByShop(s.GetContext(), s.testData.shop.ID)
	s.NoError(err)
	s.Empty(payments)
}

func (s *PaymentServiceSuite) TestApplyPaymentReleasesLockOnFailure() {
	_, err := s.service.ApplyPayment(s.GetContext(), s.applyRequest(2000, "key-lock"))
	s.Error(err)

	manager, ok := s.GetLocker().(*locker.Manager)
	s.Require().True(ok)
	s.False(manager.Held(s.testData.shop.ID))
}

func (s *PaymentServiceSuite) TestConcurrentPaymentsSerialized() {
	// two cashiers both try to collect 1000 against a 1500 rent record at
	// the same moment; the shop lock forces the second to see the first's
	// allocation, so exactly one succeeds
	var wg sync.WaitGroup
	errs := make([]error, 2)
	keys := []string{"key-conc-1", "key-conc-2"}

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.ApplyPayment(s.GetContext(), s.applyRequest(1000, keys[i]))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	s.Equal(1, succeeded, "exactly one of the racing payments must be applied")

	ledgers, err := s.GetStores().InvoiceRepo.GetLedgers(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.True(ledgers.Rents[0].PaidAmount.Equal(decimal.NewFromInt(1000)),
		"paid amount is %s", ledgers.Rents[0].PaidAmount)

	payments, err := s.GetStores().PaymentRepo.ListByShop(s.GetContext(), s.testData.shop.ID)
	s.NoError(err)
	s.Len(payments, 1)
}

func (s *PaymentServiceSuite) TestApplyPaymentIdempotency() {
	resp, err := s.service.ApplyPayment(s.GetContext(), s.applyRequest(500, "key-idem"))
	s.NoError(err)
	s.NotNil(resp)

	_, err = s.service.ApplyPayment(s.GetContext(), s.applyRequest(500, "key-idem"))
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))

	// only the first submission may touch the ledger
	ledgers, err := s.GetStores().InvoiceRepo.GetLedgers(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.True(ledgers.Rents[0].PaidAmount.Equal(decimal.NewFromInt(500)))
}

func (s *PaymentServiceSuite) TestApplyPaymentNoChargeInCategory() {
	req := s.applyRequest(100, "key-vat")
	req.Category = types.LedgerCategoryVAT

	_, err := s.service.ApplyPayment(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestApplyPaymentCategoryAlreadySettled() {
	_, err := s.service.ApplyPayment(s.GetContext(), s.applyRequest(1500, "key-first"))
	s.NoError(err)

	_, err = s.service.ApplyPayment(s.GetContext(), s.applyRequest(100, "key-second"))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestApplyPaymentUnknownShop() {
	req := s.applyRequest(100, "key-ghost")
	req.ShopID = "shop_missing"

	_, err := s.service.ApplyPayment(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestApplyPaymentUnknownPeriod() {
	req := s.applyRequest(100, "key-period")
	req.PeriodMonth = 7

	_, err := s.service.ApplyPayment(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestGetPayment() {
	resp, err := s.service.ApplyPayment(s.GetContext(), s.applyRequest(700, "key-get"))
	s.NoError(err)

	got, err := s.service.GetPayment(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(resp.ID, got.ID)
	s.Equal(resp.ReceiptNumber, got.ReceiptNumber)
	s.True(got.Amount.Equal(decimal.NewFromInt(700)))
}
