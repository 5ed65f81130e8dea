package invoice

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/marketpay/marketpay/internal/types"
)

// ReconcileResult carries the derived totals of one invoice. Remaining may
// be negative on overpayment and is surfaced as such, never clamped.
type ReconcileResult struct {
	TotalPaid decimal.Decimal     `json:"total_paid"`
	Remaining decimal.Decimal     `json:"remaining"`
	Status    types.InvoiceStatus `json:"status"`
}

// Reconcile computes an invoice's paid total and remaining balance from its
// four sub-ledgers plus the previous period's fine sub-ledger:
//
//	totalPaid = Σ paidAmount(current sub-ledgers) + Σ paidAmount(previous fines)
//	remaining = totalAmount − totalPaid
//
// The previous-fines term credits payments made against last month's fine,
// whose full charge the current invoice carries in PreviousFines. A missing
// previous invoice contributes zero. All arithmetic is exact decimal.
func Reconcile(inv *Invoice, ledgers Ledgers, previousFines []*LedgerRecord) ReconcileResult {
	totalPaid := paidTotal(ledgers.All()).Add(paidTotal(previousFines))
	remaining := inv.TotalAmount.Sub(totalPaid)

	status := types.InvoiceStatusPartiallyPaid
	switch {
	case totalPaid.IsZero():
		status = types.InvoiceStatusUnpaid
	case remaining.LessThanOrEqual(decimal.Zero):
		status = types.InvoiceStatusPaid
	}

	return ReconcileResult{
		TotalPaid: totalPaid,
		Remaining: remaining,
		Status:    status,
	}
}

func paidTotal(records []*LedgerRecord) decimal.Decimal {
	return lo.Reduce(records, func(sum decimal.Decimal, r *LedgerRecord, _ int) decimal.Decimal {
		if r == nil {
			return sum
		}
		return sum.Add(r.PaidAmount)
	}, decimal.Zero)
}

// ChargeTotal sums the owed amounts of a sub-ledger
func ChargeTotal(records []*LedgerRecord) decimal.Decimal {
	return lo.Reduce(records, func(sum decimal.Decimal, r *LedgerRecord, _ int) decimal.Decimal {
		if r == nil {
			return sum
		}
		return sum.Add(r.Amount)
	}, decimal.Zero)
}

// OutstandingTotal sums the unpaid remainder of a sub-ledger
func OutstandingTotal(records []*LedgerRecord) decimal.Decimal {
	return ChargeTotal(records).Sub(paidTotal(records))
}
