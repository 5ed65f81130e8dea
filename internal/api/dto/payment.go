package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketpay/marketpay/internal/domain/payment"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/types"
)

// PaymentDateFormat is the wire format for payment dates
const PaymentDateFormat = "2006-01-02"

// ApplyPaymentRequest is one incoming payment against a shop's invoice for
// a billing period
type ApplyPaymentRequest struct {
	ShopID         string               `json:"shop_id" binding:"required"`
	PeriodMonth    int                  `json:"period_month" binding:"required"`
	PeriodYear     int                  `json:"period_year" binding:"required"`
	Category       types.LedgerCategory `json:"category" binding:"required"`
	AmountPaid     decimal.Decimal      `json:"amount_paid" binding:"required"`
	PaymentMethod  types.PaymentMethod  `json:"payment_method" binding:"required"`
	PaymentDate    string               `json:"payment_date" binding:"required"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
}

func (r *ApplyPaymentRequest) Validate() error {
	if r.AmountPaid.IsZero() || r.AmountPaid.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Paid amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if err := r.Category.Validate(); err != nil {
		return err
	}
	if err := r.PaymentMethod.Validate(); err != nil {
		return err
	}
	if _, err := r.ParsedPaymentDate(); err != nil {
		return err
	}
	return nil
}

// ParsedPaymentDate parses the payment date, accepting the date-only wire
// format or RFC3339
func (r *ApplyPaymentRequest) ParsedPaymentDate() (time.Time, error) {
	if d, err := time.Parse(PaymentDateFormat, r.PaymentDate); err == nil {
		return d.UTC(), nil
	}
	if d, err := time.Parse(time.RFC3339, r.PaymentDate); err == nil {
		return d.UTC(), nil
	}
	return time.Time{}, ierr.NewError("invalid payment date").
		WithHintf("Payment date %q must be in YYYY-MM-DD format", r.PaymentDate).
		Mark(ierr.ErrValidation)
}

// PaymentResponse reports an applied payment with the invoice totals
// recomputed after allocation
type PaymentResponse struct {
	ID            string               `json:"id"`
	ReceiptNumber string               `json:"receipt_number"`
	ShopID        string               `json:"shop_id"`
	InvoiceID     string               `json:"invoice_id"`
	Category      types.LedgerCategory `json:"category"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	PaymentMethod types.PaymentMethod  `json:"payment_method"`
	PaymentDate   time.Time            `json:"payment_date"`

	TotalPaid     decimal.Decimal     `json:"total_paid"`
	Remaining     decimal.Decimal     `json:"remaining"`
	InvoiceStatus types.InvoiceStatus `json:"invoice_status"`

	CreatedAt time.Time `json:"created_at"`
}

// NewPaymentResponse creates a new payment response from a payment
func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		ReceiptNumber: p.ReceiptNumber,
		ShopID:        p.ShopID,
		InvoiceID:     p.InvoiceID,
		Category:      p.Category,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: p.PaymentMethod,
		PaymentDate:   p.PaymentDate,
		CreatedAt:     p.CreatedAt,
	}
}

// BatchPaymentRequest submits a CSV payment file inline
type BatchPaymentRequest struct {
	// FileContent is the raw CSV payload with the header
	// shop_code,period_month,period_year,category,amount,payment_method,payment_date
	FileContent string `json:"file_content" binding:"required"`
	Concurrency int    `json:"concurrency,omitempty"`
}

// BatchRowResult is the per-shop outcome of one batch row
type BatchRowResult struct {
	Line          int    `json:"line"`
	ShopCode      string `json:"shop_code"`
	Success       bool   `json:"success"`
	Skipped       bool   `json:"skipped,omitempty"`
	Message       string `json:"message,omitempty"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
}

// BatchPaymentResponse summarises a full batch pass. The batch always
// completes; failures are isolated per row.
type BatchPaymentResponse struct {
	Processed int              `json:"processed"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Filtered  int              `json:"filtered"`
	Results   []BatchRowResult `json:"results"`
}
