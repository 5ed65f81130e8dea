package postgres

import (
	"context"

	"github.com/marketpay/marketpay/internal/domain/shop"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/postgres"
	"github.com/marketpay/marketpay/internal/types"
)

type shopRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewShopRepository creates a new instance of shop repository
func NewShopRepository(db *postgres.DB, logger *logger.Logger) shop.Repository {
	return &shopRepository{
		db:     db,
		logger: logger,
	}
}

func (r *shopRepository) Create(ctx context.Context, s *shop.Shop) error {
	query := `
		INSERT INTO shops (
			id, code, name, owner_name, phone,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :code, :name, :owner_name, :phone,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create shop").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *shopRepository) Get(ctx context.Context, id string) (*shop.Shop, error) {
	query := `
		SELECT * FROM shops
		WHERE id = :id
		AND status = :status`

	params := map[string]interface{}{
		"id":     id,
		"status": types.StatusPublished,
	}

	return r.getOne(ctx, query, params)
}

func (r *shopRepository) GetByCode(ctx context.Context, code string) (*shop.Shop, error) {
	query := `
		SELECT * FROM shops
		WHERE code = :code
		AND status = :status`

	params := map[string]interface{}{
		"code":   code,
		"status": types.StatusPublished,
	}

	return r.getOne(ctx, query, params)
}

func (r *shopRepository) getOne(ctx context.Context, query string, params map[string]interface{}) (*shop.Shop, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query shop").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("shop not found").
			WithHint("Shop was not found").
			Mark(ierr.ErrNotFound)
	}

	var s shop.Shop
	if err := rows.StructScan(&s); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan shop").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *shopRepository) List(ctx context.Context) ([]*shop.Shop, error) {
	query := `
		SELECT * FROM shops
		WHERE status = :status
		ORDER BY code`

	params := map[string]interface{}{
		"status": types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query shops").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var shops []*shop.Shop
	for rows.Next() {
		var s shop.Shop
		if err := rows.StructScan(&s); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan shop").
				Mark(ierr.ErrDatabase)
		}
		shops = append(shops, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read shops").
			Mark(ierr.ErrDatabase)
	}
	return shops, nil
}
