package shop

import (
	"context"
)

// Repository provides access to shops
type Repository interface {
	Create(ctx context.Context, s *Shop) error
	Get(ctx context.Context, id string) (*Shop, error)
	GetByCode(ctx context.Context, code string) (*Shop, error)
	List(ctx context.Context) ([]*Shop, error)
}
