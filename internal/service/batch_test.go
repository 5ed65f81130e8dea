package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/marketpay/marketpay/internal/api/dto"
	"github.com/marketpay/marketpay/internal/domain/invoice"
	"github.com/marketpay/marketpay/internal/domain/shop"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/testutil"
	"github.com/marketpay/marketpay/internal/types"
)

type BatchServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BatchService
}

func TestBatchService(t *testing.T) {
	suite.Run(t, new(BatchServiceSuite))
}

func (s *BatchServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewBatchService(params, NewPaymentService(params))
}

// seedShop registers a shop with an open 3/2026 invoice carrying one rent
// record of the given amount
func (s *BatchServiceSuite) seedShop(code string, rent int64) *shop.Shop {
	sh := &shop.Shop{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SHOP),
		Code:      code,
		Name:      "Stall " + code,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().ShopRepo.Create(s.GetContext(), sh))

	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		ShopID:        sh.ID,
		PeriodMonth:   3,
		PeriodYear:    2026,
		Currency:      types.DefaultCurrency,
		RentAmount:    decimal.NewFromInt(rent),
		TotalAmount:   decimal.NewFromInt(rent),
		InvoiceStatus: types.InvoiceStatusUnpaid,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	rentRecord := &invoice.LedgerRecord{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_RECORD),
		InvoiceID:  inv.ID,
		Category:   types.LedgerCategoryRent,
		Amount:     decimal.NewFromInt(rent),
		PaidAmount: decimal.Zero,
		Status:     types.LedgerRecordStatusUnpaid,
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), inv, invoice.Ledgers{
		Rents: []*invoice.LedgerRecord{rentRecord},
	}))
	return sh
}

const batchHeader = "shop_code,period_month,period_year,category,amount,payment_method,payment_date\n"

func (s *BatchServiceSuite) TestBatchAppliesAllRows() {
	shopA := s.seedShop("A-1", 1000)
	shopB := s.seedShop("B-2", 2000)

	file := batchHeader +
		"A-1,3,2026,rent,1000,cash,2026-03-15\n" +
		"B-2,3,2026,rent,500,cash,2026-03-15\n"

	resp, err := s.service.ProcessPaymentFile(s.GetContext(), []byte(file), 2)
	s.NoError(err)
	s.Equal(2, resp.Processed)
	s.Equal(2, resp.Succeeded)
	s.Equal(0, resp.Failed)

	ledgersA, err := s.GetStores().InvoiceRepo.GetLedgers(s.GetContext(), s.invoiceID(shopA.ID))
	s.NoError(err)
	s.True(ledgersA.Rents[0].PaidAmount.Equal(decimal.NewFromInt(1000)))

	ledgersB, err := s.GetStores().InvoiceRepo.GetLedgers(s.GetContext(), s.invoiceID(shopB.ID))
	s.NoError(err)
	s.True(ledgersB.Rents[0].PaidAmount.Equal(decimal.NewFromInt(500)))
}

func (s *BatchServiceSuite) invoiceID(shopID string) string {
	inv, err := s.GetStores().InvoiceRepo.GetByShopAndPeriod(s.GetContext(), shopID, 3, 2026)
	s.Require().NoError(err)
	return inv.ID
}

func (s *BatchServiceSuite) TestBatchFiltersIncompleteRows() {
	s.seedShop("A-1", 1000)

	file := batchHeader +
		",3,2026,rent,1000,cash,2026-03-15\n" + // no shop code
		"A-1,3,2026,rent,,cash,2026-03-15\n" + // no amount
		"A-1,3,2026,rent,1000,cash,\n" + // no date
		"A-1,3,2026,rent,1000,cash,2026-03-15\n"

	resp, err := s.service.ProcessPaymentFile(s.GetContext(), []byte(file), 1)
	s.NoError(err)
	s.Equal(3, resp.Filtered)
	s.Equal(1, resp.Processed)
	s.Equal(1, resp.Succeeded)
	s.Equal(0, resp.Failed)
}

func (s *BatchServiceSuite) TestBatchIsolatesRowFailures() {
	s.seedShop("A-1", 1000)
	s.seedShop("C-3", 1000)

	// the unknown shop in the middle must not stop the rows after it
	file := batchHeader +
		"A-1,3,2026,rent,1000,cash,2026-03-15\n" +
		"GHOST,3,2026,rent,1000,cash,2026-03-15\n" +
		"C-3,3,2026,rent,1000,cash,2026-03-15\n"

	resp, err := s.service.ProcessPaymentFile(s.GetContext(), []byte(file), 1)
	s.NoError(err)
	s.Equal(3, resp.Processed)
	s.Equal(2, resp.Succeeded)
	s.Equal(1, resp.Failed)

	var failed dto.BatchRowResult
	for _, r := range resp.Results {
		if !r.Success && !r.Skipped {
			failed = r
		}
	}
	s.Equal("GHOST", failed.ShopCode)
	s.NotEmpty(failed.Message)
}

func (s *BatchServiceSuite) TestBatchOverAllocationIsIsolated() {
	s.seedShop("A-1", 500)
	s.seedShop("B-2", 1000)

	file := batchHeader +
		"A-1,3,2026,rent,900,cash,2026-03-15\n" + // exceeds the 500 owed
		"B-2,3,2026,rent,1000,cash,2026-03-15\n"

	resp, err := s.service.ProcessPaymentFile(s.GetContext(), []byte(file), 1)
	s.NoError(err)
	s.Equal(1, resp.Succeeded)
	s.Equal(1, resp.Failed)
}

func (s *BatchServiceSuite) TestBatchRerunSkipsAppliedRows() {
	s.seedShop("A-1", 1000)

	file := batchHeader + "A-1,3,2026,rent,600,cash,2026-03-15\n"

	first, err := s.service.ProcessPaymentFile(s.GetContext(), []byte(file), 1)
	s.NoError(err)
	s.Equal(1, first.Succeeded)

	// re-running the same file must not double-apply
	second, err := s.service.ProcessPaymentFile(s.GetContext(), []byte(file), 1)
	s.NoError(err)
	s.Equal(0, second.Succeeded)
	s.Equal(1, second.Skipped)

	inv, err := s.GetStores().InvoiceRepo.GetByShopAndPeriod(s.GetContext(),
		mustShopID(s, "A-1"), 3, 2026)
	s.NoError(err)
	ledgers, err := s.GetStores().InvoiceRepo.GetLedgers(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(ledgers.Rents[0].PaidAmount.Equal(decimal.NewFromInt(600)))
}

func mustShopID(s *BatchServiceSuite, code string) string {
	sh, err := s.GetStores().ShopRepo.GetByCode(s.GetContext(), code)
	s.Require().NoError(err)
	return sh.ID
}

func (s *BatchServiceSuite) TestBatchDefaultsCategoryAndMethod() {
	s.seedShop("A-1", 1000)

	file := batchHeader + "A-1,3,2026,,1000,,2026-03-15\n"

	resp, err := s.service.ProcessPaymentFile(s.GetContext(), []byte(file), 1)
	s.NoError(err)
	s.Equal(1, resp.Succeeded)

	payments, err := s.GetStores().PaymentRepo.ListByShop(s.GetContext(), mustShopID(s, "A-1"))
	s.NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(types.LedgerCategoryRent, payments[0].Category)
	s.Equal(types.PaymentMethodCash, payments[0].PaymentMethod)
}

func (s *BatchServiceSuite) TestBatchRejectsMissingHeader() {
	_, err := s.service.ProcessPaymentFile(s.GetContext(), []byte("not,a,payment,file\nA-1,1,2,3\n"), 1)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BatchServiceSuite) TestBatchRejectsEmptyFile() {
	_, err := s.service.ProcessPaymentFile(s.GetContext(), nil, 1)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BatchServiceSuite) TestBatchReportsMalformedAmount() {
	s.seedShop("A-1", 1000)

	file := batchHeader + "A-1,3,2026,rent,abc,cash,2026-03-15\n"

	resp, err := s.service.ProcessPaymentFile(s.GetContext(), []byte(file), 1)
	s.NoError(err)
	s.Equal(0, resp.Processed)
	s.Equal(1, resp.Failed)
	s.NotEmpty(resp.Results[0].Message)
}
