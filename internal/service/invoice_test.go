package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/marketpay/marketpay/internal/api/dto"
	"github.com/marketpay/marketpay/internal/domain/shop"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/testutil"
	"github.com/marketpay/marketpay/internal/types"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoiceService
	payments PaymentService
	testData struct {
		shop *shop.Shop
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewInvoiceService(params)
	s.payments = NewPaymentService(params)
	s.setupTestData()
}

func (s *InvoiceServiceSuite) setupTestData() {
	s.testData.shop = &shop.Shop{
		ID:        "shop_test_invoice",
		Code:      "B-202",
		Name:      "Vegetable Stall",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().ShopRepo.Create(s.GetContext(), s.testData.shop))
}

func (s *InvoiceServiceSuite) createRequest(month, year int) *dto.CreateInvoiceRequest {
	return &dto.CreateInvoiceRequest{
		ShopID:       s.testData.shop.ID,
		PeriodMonth:  month,
		PeriodYear:   year,
		RentAmount:   decimal.NewFromInt(3000),
		OperationFee: decimal.NewFromInt(500),
		VATAmount:    decimal.NewFromInt(450),
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	resp, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(1, 2026))
	s.NoError(err)
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(3950)))
	s.True(resp.TotalArrears.IsZero())
	s.Equal(types.InvoiceStatusUnpaid, resp.InvoiceStatus)

	// records exist only for charged categories
	s.Len(resp.Rents, 1)
	s.Len(resp.OperationFees, 1)
	s.Len(resp.VATs, 1)
	s.Empty(resp.Fines)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceDuplicatePeriod() {
	_, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(1, 2026))
	s.NoError(err)

	_, err = s.service.CreateInvoice(s.GetContext(), s.createRequest(1, 2026))
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceUnknownShop() {
	req := s.createRequest(1, 2026)
	req.ShopID = "shop_missing"

	_, err := s.service.CreateInvoice(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceRejectsNegativeCharge() {
	req := s.createRequest(1, 2026)
	req.VATAmount = decimal.NewFromInt(-1)

	_, err := s.service.CreateInvoice(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestCarryForwardUnpaidPeriod() {
	// January: rent 1000, fine 200, nothing paid
	jan := &dto.CreateInvoiceRequest{
		ShopID:      s.testData.shop.ID,
		PeriodMonth: 1,
		PeriodYear:  2026,
		RentAmount:  decimal.NewFromInt(1000),
		FineAmount:  decimal.NewFromInt(200),
	}
	_, err := s.service.CreateInvoice(s.GetContext(), jan)
	s.NoError(err)

	// February carries the unpaid balance split into fines and the rest
	feb := &dto.CreateInvoiceRequest{
		ShopID:      s.testData.shop.ID,
		PeriodMonth: 2,
		PeriodYear:  2026,
		RentAmount:  decimal.NewFromInt(1000),
	}
	resp, err := s.service.CreateInvoice(s.GetContext(), feb)
	s.NoError(err)

	s.True(resp.PreviousBalance.Equal(decimal.NewFromInt(1000)), "got %s", resp.PreviousBalance)
	s.True(resp.PreviousFines.Equal(decimal.NewFromInt(200)), "got %s", resp.PreviousFines)
	s.True(resp.TotalArrears.Equal(decimal.NewFromInt(1200)))
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(2200)))
	s.Equal(types.InvoiceStatusUnpaid, resp.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestCarryForwardCreditsPreviousFinePayments() {
	jan := &dto.CreateInvoiceRequest{
		ShopID:      s.testData.shop.ID,
		PeriodMonth: 1,
		PeriodYear:  2026,
		RentAmount:  decimal.NewFromInt(1000),
		FineAmount:  decimal.NewFromInt(200),
	}
	_, err := s.service.CreateInvoice(s.GetContext(), jan)
	s.NoError(err)

	// the fine is settled before February opens
	_, err = s.payments.ApplyPayment(s.GetContext(), &dto.ApplyPaymentRequest{
		ShopID:        s.testData.shop.ID,
		PeriodMonth:   1,
		PeriodYear:    2026,
		Category:      types.LedgerCategoryFine,
		AmountPaid:    decimal.NewFromInt(200),
		PaymentMethod: types.PaymentMethodCash,
		PaymentDate:   "2026-01-20",
	})
	s.NoError(err)

	feb := &dto.CreateInvoiceRequest{
		ShopID:      s.testData.shop.ID,
		PeriodMonth: 2,
		PeriodYear:  2026,
		RentAmount:  decimal.NewFromInt(1000),
	}
	resp, err := s.service.CreateInvoice(s.GetContext(), feb)
	s.NoError(err)

	// the full fine charge is carried, and the payment against it is
	// credited by reconciliation rather than netted out of the carry
	s.True(resp.PreviousBalance.Equal(decimal.NewFromInt(1000)), "got %s", resp.PreviousBalance)
	s.True(resp.PreviousFines.Equal(decimal.NewFromInt(200)))
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(2200)))
	s.True(resp.TotalPaid.Equal(decimal.NewFromInt(200)), "got %s", resp.TotalPaid)
	s.True(resp.Remaining.Equal(decimal.NewFromInt(2000)), "got %s", resp.Remaining)
	s.Equal(types.InvoiceStatusPartiallyPaid, resp.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestCarryForwardAcrossYearBoundary() {
	dec25 := &dto.CreateInvoiceRequest{
		ShopID:      s.testData.shop.ID,
		PeriodMonth: 12,
		PeriodYear:  2025,
		RentAmount:  decimal.NewFromInt(800),
	}
	_, err := s.service.CreateInvoice(s.GetContext(), dec25)
	s.NoError(err)

	jan26 := &dto.CreateInvoiceRequest{
		ShopID:      s.testData.shop.ID,
		PeriodMonth: 1,
		PeriodYear:  2026,
		RentAmount:  decimal.NewFromInt(800),
	}
	resp, err := s.service.CreateInvoice(s.GetContext(), jan26)
	s.NoError(err)
	s.True(resp.PreviousBalance.Equal(decimal.NewFromInt(800)))
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(1600)))
}

func (s *InvoiceServiceSuite) TestGetInvoiceComputesTotals() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(1, 2026))
	s.NoError(err)

	_, err = s.payments.ApplyPayment(s.GetContext(), &dto.ApplyPaymentRequest{
		ShopID:        s.testData.shop.ID,
		PeriodMonth:   1,
		PeriodYear:    2026,
		Category:      types.LedgerCategoryRent,
		AmountPaid:    decimal.NewFromInt(2000),
		PaymentMethod: types.PaymentMethodCash,
		PaymentDate:   "2026-01-10",
	})
	s.NoError(err)

	resp, err := s.service.GetInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.True(resp.TotalPaid.Equal(decimal.NewFromInt(2000)))
	s.True(resp.Remaining.Equal(decimal.NewFromInt(1950)))
	s.Equal(types.InvoiceStatusPartiallyPaid, resp.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestGetInvoiceCachesReadModel() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(1, 2026))
	s.NoError(err)

	first, err := s.service.GetInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	cached, ok := s.GetCache().Get(s.GetContext(), "invoice:readmodel:"+created.ID)
	s.True(ok)
	s.Equal(first, cached)
}

func (s *InvoiceServiceSuite) TestGetInvoiceNotFound() {
	_, err := s.service.GetInvoice(s.GetContext(), "inv_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestListShopInvoicesNewestFirst() {
	for _, month := range []int{1, 2, 3} {
		_, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(month, 2026))
		s.NoError(err)
		time.Sleep(time.Millisecond)
	}

	resp, err := s.service.ListShopInvoices(s.GetContext(), s.testData.shop.ID)
	s.NoError(err)
	s.Require().Len(resp.Items, 3)
	s.Equal(3, resp.Items[0].PeriodMonth)
	s.Equal(2, resp.Items[1].PeriodMonth)
	s.Equal(1, resp.Items[2].PeriodMonth)
}
