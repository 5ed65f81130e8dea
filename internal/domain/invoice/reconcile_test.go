package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/marketpay/marketpay/internal/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testDate() time.Time {
	return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
}

func record(category types.LedgerCategory, amount, paid string) *LedgerRecord {
	return &LedgerRecord{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_RECORD),
		Category:   category,
		Amount:     dec(amount),
		PaidAmount: dec(paid),
	}
}

func TestReconcilePartialAcrossCategories(t *testing.T) {
	inv := &Invoice{TotalAmount: dec("5000")}
	ledgers := Ledgers{
		Rents: []*LedgerRecord{record(types.LedgerCategoryRent, "3000", "2000")},
		VATs:  []*LedgerRecord{record(types.LedgerCategoryVAT, "500", "500")},
		Fines: []*LedgerRecord{record(types.LedgerCategoryFine, "1000", "0")},
	}
	prevFines := []*LedgerRecord{record(types.LedgerCategoryFine, "1500", "1200")}

	result := Reconcile(inv, ledgers, prevFines)

	assert.True(t, result.TotalPaid.Equal(dec("3700")), "got %s", result.TotalPaid)
	assert.True(t, result.Remaining.Equal(dec("1300")), "got %s", result.Remaining)
	assert.Equal(t, types.InvoiceStatusPartiallyPaid, result.Status)
}

func TestReconcileNoPayments(t *testing.T) {
	inv := &Invoice{TotalAmount: dec("4200")}
	ledgers := Ledgers{
		Rents: []*LedgerRecord{record(types.LedgerCategoryRent, "4200", "0")},
	}

	result := Reconcile(inv, ledgers, nil)

	assert.True(t, result.TotalPaid.IsZero())
	assert.True(t, result.Remaining.Equal(dec("4200")))
	assert.Equal(t, types.InvoiceStatusUnpaid, result.Status)
}

func TestReconcileEmptyLedgers(t *testing.T) {
	inv := &Invoice{TotalAmount: decimal.Zero}

	result := Reconcile(inv, Ledgers{}, nil)

	assert.True(t, result.TotalPaid.IsZero())
	assert.True(t, result.Remaining.IsZero())
	assert.Equal(t, types.InvoiceStatusUnpaid, result.Status)
}

func TestReconcileSettled(t *testing.T) {
	inv := &Invoice{TotalAmount: dec("1500")}
	ledgers := Ledgers{
		Rents:         []*LedgerRecord{record(types.LedgerCategoryRent, "1000", "1000")},
		OperationFees: []*LedgerRecord{record(types.LedgerCategoryOperationFee, "500", "500")},
	}

	result := Reconcile(inv, ledgers, nil)

	assert.True(t, result.Remaining.IsZero())
	assert.Equal(t, types.InvoiceStatusPaid, result.Status)
}

func TestReconcileOverpaymentStaysNegative(t *testing.T) {
	// a data-entry overshoot in the previous fines sub-ledger must surface
	// as a negative remaining balance, not be clamped to zero
	inv := &Invoice{TotalAmount: dec("1000")}
	ledgers := Ledgers{
		Rents: []*LedgerRecord{record(types.LedgerCategoryRent, "1000", "1000")},
	}
	prevFines := []*LedgerRecord{record(types.LedgerCategoryFine, "300", "250")}

	result := Reconcile(inv, ledgers, prevFines)

	assert.True(t, result.Remaining.Equal(dec("-250")), "got %s", result.Remaining)
	assert.Equal(t, types.InvoiceStatusPaid, result.Status)
}

func TestReconcileExactDecimalAccumulation(t *testing.T) {
	// 300 payments of 0.10 must sum to exactly 30.00
	inv := &Invoice{TotalAmount: dec("30.00")}
	rent := record(types.LedgerCategoryRent, "30.00", "0")
	for i := 0; i < 300; i++ {
		rent.PaidAmount = rent.PaidAmount.Add(dec("0.10"))
	}
	ledgers := Ledgers{Rents: []*LedgerRecord{rent}}

	result := Reconcile(inv, ledgers, nil)

	assert.True(t, result.TotalPaid.Equal(dec("30.00")), "got %s", result.TotalPaid)
	assert.True(t, result.Remaining.IsZero(), "got %s", result.Remaining)
	assert.Equal(t, types.InvoiceStatusPaid, result.Status)
}

func TestReconcileIgnoresNilRecords(t *testing.T) {
	inv := &Invoice{TotalAmount: dec("100")}
	ledgers := Ledgers{
		Rents: []*LedgerRecord{nil, record(types.LedgerCategoryRent, "100", "40")},
	}

	result := Reconcile(inv, ledgers, []*LedgerRecord{nil})

	assert.True(t, result.TotalPaid.Equal(dec("40")))
	assert.True(t, result.Remaining.Equal(dec("60")))
}

func TestAllocatePartialThenSettle(t *testing.T) {
	rec := record(types.LedgerCategoryRent, "1500", "0")

	err := rec.Allocate(dec("1000"), types.PaymentMethodCash, testDate())
	assert.NoError(t, err)
	assert.Equal(t, types.LedgerRecordStatusPartial, rec.Status)
	assert.Nil(t, rec.PaidDate)
	assert.True(t, rec.Remaining().Equal(dec("500")))

	err = rec.Allocate(dec("500"), types.PaymentMethodCash, testDate())
	assert.NoError(t, err)
	assert.Equal(t, types.LedgerRecordStatusPaid, rec.Status)
	assert.NotNil(t, rec.PaidDate)
	assert.True(t, rec.Remaining().IsZero())
}

func TestAllocateRejectsExceedingRemainder(t *testing.T) {
	rec := record(types.LedgerCategoryRent, "1500", "1000")

	err := rec.Allocate(dec("1000"), types.PaymentMethodCash, testDate())
	assert.Error(t, err)
	// the record must be untouched after a rejected allocation
	assert.True(t, rec.PaidAmount.Equal(dec("1000")))
	assert.True(t, rec.Remaining().Equal(dec("500")))
}

func TestAllocateRejectsNonPositive(t *testing.T) {
	rec := record(types.LedgerCategoryRent, "1500", "0")

	assert.Error(t, rec.Allocate(decimal.Zero, types.PaymentMethodCash, testDate()))
	assert.Error(t, rec.Allocate(dec("-10"), types.PaymentMethodCash, testDate()))
	assert.True(t, rec.PaidAmount.IsZero())
}
