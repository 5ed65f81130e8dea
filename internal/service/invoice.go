package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketpay/marketpay/internal/api/dto"
	"github.com/marketpay/marketpay/internal/domain/invoice"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/types"
)

// invoiceReadModelTTL bounds how stale a cached invoice read model can get;
// payment application invalidates eagerly anyway
const invoiceReadModelTTL = 5 * time.Minute

// InvoiceService defines the interface for invoice operations
type InvoiceService interface {
	// CreateInvoice opens a billing period for a shop, reading the previous
	// period's reconciliation as the carry-forward
	CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	// GetInvoice returns the invoice read model with computed totals
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	// ListShopInvoices returns a shop's invoice history, newest first
	ListShopInvoices(ctx context.Context, shopID string) (*dto.ListInvoicesResponse, error)
}

type invoiceService struct {
	ServiceParams
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.ShopRepo.Get(ctx, req.ShopID); err != nil {
		return nil, err
	}

	// opening a period mutates the shop's ledger chain, serialize it with
	// payment application on the same shop
	lease, err := s.Locker.Acquire(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}
	defer s.Locker.Release(lease)

	if _, err := s.InvoiceRepo.GetByShopAndPeriod(ctx, req.ShopID, req.PeriodMonth, req.PeriodYear); err == nil {
		return nil, ierr.NewError("invoice already exists").
			WithHintf("Shop already has an invoice for %d/%d", req.PeriodMonth, req.PeriodYear).
			Mark(ierr.ErrAlreadyExists)
	} else if !ierr.IsNotFound(err) {
		return nil, err
	}

	inv := &invoice.Invoice{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		ShopID:       req.ShopID,
		PeriodMonth:  req.PeriodMonth,
		PeriodYear:   req.PeriodYear,
		Currency:     types.DefaultCurrency,
		RentAmount:   req.RentAmount,
		OperationFee: req.OperationFee,
		VATAmount:    req.VATAmount,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}

	previousBalance, previousFines, prevFineRecords, err := s.carryForward(ctx, inv)
	if err != nil {
		return nil, err
	}

	inv.PreviousBalance = previousBalance
	inv.PreviousFines = previousFines
	inv.TotalArrears = previousBalance.Add(previousFines)
	inv.TotalAmount = req.RentAmount.
		Add(req.OperationFee).
		Add(req.VATAmount).
		Add(req.FineAmount).
		Add(inv.TotalArrears)

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	ledgers := s.buildLedgers(ctx, inv.ID, req)

	result := invoice.Reconcile(inv, ledgers, prevFineRecords)
	inv.InvoiceStatus = result.Status

	if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.InvoiceRepo.Create(ctx, inv, ledgers)
	}); err != nil {
		return nil, err
	}

	s.Cache.DeleteByPrefix(ctx, shopInvoicesCachePrefix(inv.ShopID))
	s.Logger.Infow("billing period opened",
		"invoice_id", inv.ID,
		"shop_id", inv.ShopID,
		"period", fmt.Sprintf("%d/%d", inv.PeriodMonth, inv.PeriodYear),
		"total_amount", types.FormatAmount(inv.TotalAmount),
	)

	return dto.NewInvoiceResponse(inv, ledgers, result), nil
}

// carryForward derives the new invoice's arrears from the previous period:
// the previous fine charge is carried whole (payments against it are
// credited live by the reconciler), the rest of the previous remaining
// balance carries as PreviousBalance. A missing previous invoice carries
// zero on both.
func (s *invoiceService) carryForward(ctx context.Context, inv *invoice.Invoice) (previousBalance, previousFines decimal.Decimal, prevFineRecords []*invoice.LedgerRecord, err error) {
	prev, err := s.InvoiceRepo.GetPrevious(ctx, inv)
	if err != nil {
		if ierr.IsNotFound(err) {
			return decimal.Zero, decimal.Zero, nil, nil
		}
		return decimal.Zero, decimal.Zero, nil, err
	}

	prevLedgers, err := s.InvoiceRepo.GetLedgers(ctx, prev.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, nil, err
	}

	prevResult, err := s.reconcileWithCarryIn(ctx, prev, prevLedgers)
	if err != nil {
		return decimal.Zero, decimal.Zero, nil, err
	}

	fineOutstanding := invoice.OutstandingTotal(prevLedgers.Fines)
	previousBalance = prevResult.Remaining.Sub(fineOutstanding)
	previousFines = invoice.ChargeTotal(prevLedgers.Fines)
	return previousBalance, previousFines, prevLedgers.Fines, nil
}

func (s *invoiceService) buildLedgers(ctx context.Context, invoiceID string, req *dto.CreateInvoiceRequest) invoice.Ledgers {
	var ledgers invoice.Ledgers
	newRecord := func(category types.LedgerCategory, amount decimal.Decimal) *invoice.LedgerRecord {
		return &invoice.LedgerRecord{
			ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_RECORD),
			InvoiceID:  invoiceID,
			Category:   category,
			Amount:     amount,
			PaidAmount: decimal.Zero,
			Status:     types.LedgerRecordStatusUnpaid,
			BaseModel:  types.GetDefaultBaseModel(ctx),
		}
	}

	if req.FineAmount.IsPositive() {
		ledgers.Fines = append(ledgers.Fines, newRecord(types.LedgerCategoryFine, req.FineAmount))
	}
	if req.RentAmount.IsPositive() {
		ledgers.Rents = append(ledgers.Rents, newRecord(types.LedgerCategoryRent, req.RentAmount))
	}
	if req.VATAmount.IsPositive() {
		ledgers.VATs = append(ledgers.VATs, newRecord(types.LedgerCategoryVAT, req.VATAmount))
	}
	if req.OperationFee.IsPositive() {
		ledgers.OperationFees = append(ledgers.OperationFees, newRecord(types.LedgerCategoryOperationFee, req.OperationFee))
	}
	return ledgers
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	cacheKey := invoiceCacheKey(id)
	if cached, ok := s.Cache.Get(ctx, cacheKey); ok {
		if resp, ok := cached.(*dto.InvoiceResponse); ok {
			return resp, nil
		}
	}

	resp, err := s.buildReadModel(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, cacheKey, resp, invoiceReadModelTTL)
	return resp, nil
}

func (s *invoiceService) buildReadModel(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ledgers, err := s.InvoiceRepo.GetLedgers(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.reconcileWithCarryIn(ctx, inv, ledgers)
	if err != nil {
		return nil, err
	}

	return dto.NewInvoiceResponse(inv, ledgers, result), nil
}

// reconcileWithCarryIn runs the reconciler with the previous period's fine
// sub-ledger as the carry-in term
func (s *invoiceService) reconcileWithCarryIn(ctx context.Context, inv *invoice.Invoice, ledgers invoice.Ledgers) (invoice.ReconcileResult, error) {
	var prevFines []*invoice.LedgerRecord

	prev, err := s.InvoiceRepo.GetPrevious(ctx, inv)
	switch {
	case err == nil:
		prevLedgers, err := s.InvoiceRepo.GetLedgers(ctx, prev.ID)
		if err != nil {
			return invoice.ReconcileResult{}, err
		}
		prevFines = prevLedgers.Fines
	case ierr.IsNotFound(err):
		// first invoice of the chain, carry-in is zero
	default:
		return invoice.ReconcileResult{}, err
	}

	return invoice.Reconcile(inv, ledgers, prevFines), nil
}

func (s *invoiceService) ListShopInvoices(ctx context.Context, shopID string) (*dto.ListInvoicesResponse, error) {
	if _, err := s.ShopRepo.Get(ctx, shopID); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp, err := s.buildReadModel(ctx, inv.ID)
		if err != nil {
			// one shop's bad invoice must not blank the whole history,
			// degrade that row and keep going
			s.Logger.Errorw("failed to build invoice read model",
				"invoice_id", inv.ID,
				"shop_id", shopID,
				"error", err,
			)
			continue
		}
		items = append(items, resp)
	}

	return &dto.ListInvoicesResponse{Items: items, Total: len(items)}, nil
}

func invoiceCacheKey(id string) string {
	return "invoice:readmodel:" + id
}

func shopInvoicesCachePrefix(shopID string) string {
	return "invoice:shop:" + shopID
}
