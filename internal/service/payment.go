package service

import (
	"context"
	"time"

	"github.com/marketpay/marketpay/internal/api/dto"
	"github.com/marketpay/marketpay/internal/domain/invoice"
	"github.com/marketpay/marketpay/internal/domain/payment"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/idempotency"
	"github.com/marketpay/marketpay/internal/types"
)

// PaymentService applies payments to a shop's invoice sub-ledgers. All
// mutation happens inside the shop's lock so payments for one shop are
// strictly serialized while distinct shops proceed independently.
type PaymentService interface {
	ApplyPayment(ctx context.Context, req *dto.ApplyPaymentRequest) (*dto.PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
}

type paymentService struct {
	ServiceParams
	idempGen *idempotency.Generator
}

// NewPaymentService creates a new payment service
func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
	}
}

func (s *paymentService) ApplyPayment(ctx context.Context, req *dto.ApplyPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	paymentDate, err := req.ParsedPaymentDate()
	if err != nil {
		return nil, err
	}

	if _, err := s.ShopRepo.Get(ctx, req.ShopID); err != nil {
		return nil, err
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = s.idempGen.GenerateKey(idempotency.ScopePayment, map[string]interface{}{
			"shop_id":   req.ShopID,
			"period":    req.PeriodMonth*10000 + req.PeriodYear,
			"category":  req.Category,
			"amount":    req.AmountPaid.String(),
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}

	if existing, err := s.PaymentRepo.GetByIdempotencyKey(ctx, idempotencyKey); err == nil && existing != nil {
		return nil, ierr.NewError("payment already applied").
			WithHint("This payment was already processed").
			WithReportableDetails(map[string]any{
				"payment_id":     existing.ID,
				"receipt_number": existing.ReceiptNumber,
			}).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	// serialize against every other payment-mutating operation on this shop;
	// the deferred release covers every exit path below
	lease, err := s.Locker.Acquire(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}
	defer s.Locker.Release(lease)

	var (
		applied *payment.Payment
		result  invoice.ReconcileResult
	)

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetByShopAndPeriod(ctx, req.ShopID, req.PeriodMonth, req.PeriodYear)
		if err != nil {
			return err
		}

		ledgers, err := s.InvoiceRepo.GetLedgers(ctx, inv.ID)
		if err != nil {
			return err
		}

		record, err := s.openRecord(ledgers, req.Category)
		if err != nil {
			return err
		}

		if err := record.Allocate(req.AmountPaid, req.PaymentMethod, paymentDate); err != nil {
			return err
		}

		if err := s.InvoiceRepo.UpdateLedgerRecord(ctx, record); err != nil {
			return err
		}

		applied = &payment.Payment{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
			IdempotencyKey: idempotencyKey,
			ReceiptNumber:  types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_RECEIPT),
			ShopID:         req.ShopID,
			InvoiceID:      inv.ID,
			LedgerRecordID: record.ID,
			Category:       req.Category,
			Amount:         req.AmountPaid,
			Currency:       inv.Currency,
			PaymentMethod:  req.PaymentMethod,
			PaymentDate:    paymentDate,
			BaseModel:      types.GetDefaultBaseModel(ctx),
		}
		if err := applied.Validate(); err != nil {
			return err
		}
		if err := s.PaymentRepo.Create(ctx, applied); err != nil {
			return err
		}

		result, err = s.reconcile(ctx, inv, ledgers)
		if err != nil {
			return err
		}

		if inv.InvoiceStatus != result.Status {
			inv.InvoiceStatus = result.Status
			if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Delete(ctx, invoiceCacheKey(applied.InvoiceID))
	s.Cache.DeleteByPrefix(ctx, shopInvoicesCachePrefix(applied.ShopID))

	s.Logger.Infow("payment applied",
		"payment_id", applied.ID,
		"shop_id", applied.ShopID,
		"invoice_id", applied.InvoiceID,
		"category", applied.Category,
		"amount", types.FormatAmount(applied.Amount),
		"remaining", types.FormatAmount(result.Remaining),
	)

	resp := dto.NewPaymentResponse(applied)
	resp.TotalPaid = result.TotalPaid
	resp.Remaining = result.Remaining
	resp.InvoiceStatus = result.Status
	return resp, nil
}

// openRecord picks the sub-ledger record the payment allocates to: the
// oldest record of the category that still has a remainder
func (s *paymentService) openRecord(ledgers invoice.Ledgers, category types.LedgerCategory) (*invoice.LedgerRecord, error) {
	records := ledgers.ForCategory(category)
	if len(records) == 0 {
		return nil, ierr.NewError("no charge in category").
			WithHintf("This invoice has no %s charge", category).
			Mark(ierr.ErrValidation)
	}

	for _, record := range records {
		if record.Remaining().IsPositive() {
			return record, nil
		}
	}
	return nil, ierr.NewError("category already settled").
		WithHintf("The %s charge on this invoice is already fully paid", category).
		Mark(ierr.ErrValidation)
}

func (s *paymentService) reconcile(ctx context.Context, inv *invoice.Invoice, ledgers invoice.Ledgers) (invoice.ReconcileResult, error) {
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
	default:
		return invoice.ReconcileResult{}, err
	}

	return invoice.Reconcile(inv, ledgers, prevFines), nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponse(p), nil
}
