package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/types"
)

// Invoice is one shop's bill for a single billing period (month/year).
// It is created when the period opens, mutated only by payment allocation,
// and never deleted; the next period's invoice reads its carry-forward.
type Invoice struct {
	ID          string `json:"id" db:"id"`
	ShopID      string `json:"shop_id" db:"shop_id"`
	PeriodMonth int    `json:"period_month" db:"period_month"`
	PeriodYear  int    `json:"period_year" db:"period_year"`
	Currency    string `json:"currency" db:"currency"`

	// Carry-forward from the previous period: PreviousBalance is the
	// non-fine arrears, PreviousFines is the previous period's full fine
	// charge (payments against it are credited live by the reconciler)
	PreviousBalance decimal.Decimal `json:"previous_balance" db:"previous_balance"`
	PreviousFines   decimal.Decimal `json:"previous_fines" db:"previous_fines"`

	RentAmount   decimal.Decimal `json:"rent_amount" db:"rent_amount"`
	OperationFee decimal.Decimal `json:"operation_fee" db:"operation_fee"`
	VATAmount    decimal.Decimal `json:"vat_amount" db:"vat_amount"`

	// TotalArrears = PreviousBalance + PreviousFines
	TotalArrears decimal.Decimal `json:"total_arrears" db:"total_arrears"`
	// TotalAmount = RentAmount + OperationFee + VATAmount + TotalArrears
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`

	InvoiceStatus types.InvoiceStatus `json:"invoice_status" db:"invoice_status"`

	types.BaseModel
}

// LedgerRecord is one payment-allocation row in a sub-ledger. PaidAmount
// accumulates across partial payments and must never exceed Amount.
type LedgerRecord struct {
	ID        string               `json:"id" db:"id"`
	InvoiceID string               `json:"invoice_id" db:"invoice_id"`
	Category  types.LedgerCategory `json:"category" db:"category"`

	Amount     decimal.Decimal          `json:"amount" db:"amount"`
	PaidAmount decimal.Decimal          `json:"paid_amount" db:"paid_amount"`
	Status     types.LedgerRecordStatus `json:"record_status" db:"record_status"`

	// PaidDate is set when the record is settled in full, tracked for rent
	PaidDate      *time.Time           `json:"paid_date,omitempty" db:"paid_date"`
	PaymentMethod *types.PaymentMethod `json:"payment_method,omitempty" db:"payment_method"`

	types.BaseModel
}

// Ledgers groups an invoice's four sub-ledger collections
type Ledgers struct {
	Fines         []*LedgerRecord `json:"fines"`
	Rents         []*LedgerRecord `json:"rents"`
	VATs          []*LedgerRecord `json:"vats"`
	OperationFees []*LedgerRecord `json:"operation_fees"`
}

// ForCategory returns the records of one sub-ledger
func (l Ledgers) ForCategory(category types.LedgerCategory) []*LedgerRecord {
	switch category {
	case types.LedgerCategoryFine:
		return l.Fines
	case types.LedgerCategoryRent:
		return l.Rents
	case types.LedgerCategoryVAT:
		return l.VATs
	case types.LedgerCategoryOperationFee:
		return l.OperationFees
	}
	return nil
}

// All returns every record across the four sub-ledgers
func (l Ledgers) All() []*LedgerRecord {
	records := make([]*LedgerRecord, 0, len(l.Fines)+len(l.Rents)+len(l.VATs)+len(l.OperationFees))
	records = append(records, l.Fines...)
	records = append(records, l.Rents...)
	records = append(records, l.VATs...)
	records = append(records, l.OperationFees...)
	return records
}

// Remaining is the unpaid portion of a single record
func (r *LedgerRecord) Remaining() decimal.Decimal {
	return r.Amount.Sub(r.PaidAmount)
}

// Allocate applies amount to the record's paid total. Over-allocation is
// rejected, the caller decides whether to split or refuse the payment.
func (r *LedgerRecord) Allocate(amount decimal.Decimal, method types.PaymentMethod, paidDate time.Time) error {
	if amount.IsZero() || amount.IsNegative() {
		return ierr.NewError("invalid allocation amount").
			WithHint("Paid amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if amount.GreaterThan(r.Remaining()) {
		return ierr.NewError("allocation exceeds owed amount").
			WithHintf("Payment of %s exceeds the %s remaining on this %s record",
				types.FormatAmount(amount), types.FormatAmount(r.Remaining()), r.Category).
			WithReportableDetails(map[string]any{
				"record_id": r.ID,
				"category":  r.Category,
				"remaining": types.FormatAmount(r.Remaining()),
			}).
			Mark(ierr.ErrValidation)
	}

	r.PaidAmount = r.PaidAmount.Add(amount)
	r.PaymentMethod = &method

	switch {
	case r.PaidAmount.Equal(r.Amount):
		r.Status = types.LedgerRecordStatusPaid
		d := paidDate
		r.PaidDate = &d
	case r.PaidAmount.IsPositive():
		r.Status = types.LedgerRecordStatusPartial
	default:
		r.Status = types.LedgerRecordStatusUnpaid
	}
	return nil
}

func (i *Invoice) Validate() error {
	if i.ShopID == "" {
		return ierr.NewError("shop id is required").
			WithHint("Invoice must belong to a shop").
			Mark(ierr.ErrValidation)
	}
	if i.PeriodMonth < 1 || i.PeriodMonth > 12 {
		return ierr.NewError("invalid period month").
			WithHint("Period month must be between 1 and 12").
			Mark(ierr.ErrValidation)
	}
	if i.PeriodYear < 2000 {
		return ierr.NewError("invalid period year").
			WithHint("Period year is invalid").
			Mark(ierr.ErrValidation)
	}
	if i.TotalAmount.IsNegative() {
		return ierr.NewError("invalid total amount").
			WithHint("Invoice total cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PreviousPeriod returns the month/year immediately before this invoice's period
func (i *Invoice) PreviousPeriod() (month int, year int) {
	if i.PeriodMonth == 1 {
		return 12, i.PeriodYear - 1
	}
	return i.PeriodMonth - 1, i.PeriodYear
}

func (i *Invoice) TableName() string {
	return "invoices"
}

func (r *LedgerRecord) TableName() string {
	return "ledger_records"
}
