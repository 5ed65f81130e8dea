package payment

import (
	"context"
)

// Repository provides access to applied-payment audit records
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Payment, error)
	ListByShop(ctx context.Context, shopID string) ([]*Payment, error)
}
