package invoice

import (
	"context"
)

// Repository provides access to invoices and their sub-ledger records
type Repository interface {
	Create(ctx context.Context, inv *Invoice, ledgers Ledgers) error
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByShopAndPeriod(ctx context.Context, shopID string, month, year int) (*Invoice, error)
	// GetPrevious returns the invoice of the period immediately before inv,
	// or a not found error when the shop has no prior invoice
	GetPrevious(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetLedgers(ctx context.Context, invoiceID string) (Ledgers, error)
	Update(ctx context.Context, inv *Invoice) error
	UpdateLedgerRecord(ctx context.Context, record *LedgerRecord) error
	ListByShop(ctx context.Context, shopID string) ([]*Invoice, error)
}
