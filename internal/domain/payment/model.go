package payment

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/types"
)

// Payment is the audit record of one applied payment allocation. It is
// written in the same transaction that mutates the sub-ledger record.
type Payment struct {
	ID             string `json:"id" db:"id"`
	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`
	ReceiptNumber  string `json:"receipt_number" db:"receipt_number"`

	ShopID         string               `json:"shop_id" db:"shop_id"`
	InvoiceID      string               `json:"invoice_id" db:"invoice_id"`
	LedgerRecordID string               `json:"ledger_record_id" db:"ledger_record_id"`
	Category       types.LedgerCategory `json:"category" db:"category"`

	Amount        decimal.Decimal     `json:"amount" db:"amount"`
	Currency      string              `json:"currency" db:"currency"`
	PaymentMethod types.PaymentMethod `json:"payment_method" db:"payment_method"`
	PaymentDate   time.Time           `json:"payment_date" db:"payment_date"`

	types.BaseModel
}

// Validate validates the payment
func (p *Payment) Validate() error {
	if p.Amount.IsZero() || p.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if p.ShopID == "" {
		return ierr.NewError("invalid shop id").
			WithHint("Shop id is required").
			Mark(ierr.ErrValidation)
	}
	if p.InvoiceID == "" {
		return ierr.NewError("invalid invoice id").
			WithHint("Invoice id is required").
			Mark(ierr.ErrValidation)
	}
	if err := p.Category.Validate(); err != nil {
		return err
	}
	if err := p.PaymentMethod.Validate(); err != nil {
		return err
	}
	if p.PaymentDate.IsZero() {
		return ierr.NewError("invalid payment date").
			WithHint("Payment date is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (p *Payment) TableName() string {
	return "payments"
}
