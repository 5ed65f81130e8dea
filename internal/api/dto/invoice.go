package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketpay/marketpay/internal/domain/invoice"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/types"
)

// CreateInvoiceRequest opens a billing period for a shop. Carry-forward
// fields are computed from the previous period, not supplied by the caller.
type CreateInvoiceRequest struct {
	ShopID       string          `json:"shop_id" binding:"required"`
	PeriodMonth  int             `json:"period_month" binding:"required"`
	PeriodYear   int             `json:"period_year" binding:"required"`
	RentAmount   decimal.Decimal `json:"rent_amount"`
	OperationFee decimal.Decimal `json:"operation_fee"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
	FineAmount   decimal.Decimal `json:"fine_amount"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		return ierr.NewError("invalid period month").
			WithHint("Period month must be between 1 and 12").
			Mark(ierr.ErrValidation)
	}
	for _, amount := range []decimal.Decimal{r.RentAmount, r.OperationFee, r.VATAmount, r.FineAmount} {
		if amount.IsNegative() {
			return ierr.NewError("invalid charge amount").
				WithHint("Charge amounts cannot be negative").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// LedgerRecordResponse is one sub-ledger row of an invoice
type LedgerRecordResponse struct {
	ID            string                   `json:"id"`
	Category      types.LedgerCategory     `json:"category"`
	Amount        decimal.Decimal          `json:"amount"`
	PaidAmount    decimal.Decimal          `json:"paid_amount"`
	Status        types.LedgerRecordStatus `json:"status"`
	PaidDate      *time.Time               `json:"paid_date,omitempty"`
	PaymentMethod *types.PaymentMethod     `json:"payment_method,omitempty"`
}

// InvoiceResponse is the invoice read model: the stored invoice and its
// four sub-ledgers annotated with the computed paid total and remaining
// balance. Remaining is negative on overpayment, never clamped.
type InvoiceResponse struct {
	ID          string `json:"id"`
	ShopID      string `json:"shop_id"`
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	Currency    string `json:"currency"`

	PreviousBalance decimal.Decimal `json:"previous_balance"`
	PreviousFines   decimal.Decimal `json:"previous_fines"`
	RentAmount      decimal.Decimal `json:"rent_amount"`
	OperationFee    decimal.Decimal `json:"operation_fee"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	TotalArrears    decimal.Decimal `json:"total_arrears"`
	TotalAmount     decimal.Decimal `json:"total_amount"`

	InvoiceStatus types.InvoiceStatus `json:"invoice_status"`

	TotalPaid decimal.Decimal `json:"total_paid"`
	Remaining decimal.Decimal `json:"remaining"`

	Fines         []LedgerRecordResponse `json:"fines"`
	Rents         []LedgerRecordResponse `json:"rents"`
	VATs          []LedgerRecordResponse `json:"vats"`
	OperationFees []LedgerRecordResponse `json:"operation_fees"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewInvoiceResponse builds the read model from an invoice, its ledgers and
// the reconciliation result
func NewInvoiceResponse(inv *invoice.Invoice, ledgers invoice.Ledgers, result invoice.ReconcileResult) *InvoiceResponse {
	return &InvoiceResponse{
		ID:              inv.ID,
		ShopID:          inv.ShopID,
		PeriodMonth:     inv.PeriodMonth,
		PeriodYear:      inv.PeriodYear,
		Currency:        inv.Currency,
		PreviousBalance: inv.PreviousBalance,
		PreviousFines:   inv.PreviousFines,
		RentAmount:      inv.RentAmount,
		OperationFee:    inv.OperationFee,
		VATAmount:       inv.VATAmount,
		TotalArrears:    inv.TotalArrears,
		TotalAmount:     inv.TotalAmount,
		InvoiceStatus:   result.Status,
		TotalPaid:       result.TotalPaid,
		Remaining:       result.Remaining,
		Fines:           toLedgerResponses(ledgers.Fines),
		Rents:           toLedgerResponses(ledgers.Rents),
		VATs:            toLedgerResponses(ledgers.VATs),
		OperationFees:   toLedgerResponses(ledgers.OperationFees),
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func toLedgerResponses(records []*invoice.LedgerRecord) []LedgerRecordResponse {
	responses := make([]LedgerRecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, LedgerRecordResponse{
			ID:            r.ID,
			Category:      r.Category,
			Amount:        r.Amount,
			PaidAmount:    r.PaidAmount,
			Status:        r.Status,
			PaidDate:      r.PaidDate,
			PaymentMethod: r.PaymentMethod,
		})
	}
	return responses
}

// ListInvoicesResponse is a shop's invoice history with computed totals
type ListInvoicesResponse struct {
	Items []*InvoiceResponse `json:"items"`
	Total int                `json:"total"`
}
