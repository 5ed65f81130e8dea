package postgres

import (
	"context"

	"github.com/marketpay/marketpay/internal/domain/payment"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/postgres"
	"github.com/marketpay/marketpay/internal/types"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a new instance of payment repository
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (
			id, idempotency_key, receipt_number, shop_id, invoice_id,
			ledger_record_id, category, amount, currency, payment_method, payment_date,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :idempotency_key, :receipt_number, :shop_id, :invoice_id,
			:ledger_record_id, :category, :amount, :currency, :payment_method, :payment_date,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE id = :id
		AND status = :status`

	params := map[string]interface{}{
		"id":     id,
		"status": types.StatusPublished,
	}

	return r.getOne(ctx, query, params)
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE idempotency_key = :idempotency_key
		AND status = :status`

	params := map[string]interface{}{
		"idempotency_key": key,
		"status":          types.StatusPublished,
	}

	return r.getOne(ctx, query, params)
}

func (r *paymentRepository) getOne(ctx context.Context, query string, params map[string]interface{}) (*payment.Payment, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query payment").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("payment not found").
			WithHint("Payment was not found").
			Mark(ierr.ErrNotFound)
	}

	var p payment.Payment
	if err := rows.StructScan(&p); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE invoice_id = :invoice_id
		AND status = :status
		ORDER BY payment_date`

	params := map[string]interface{}{
		"invoice_id": invoiceID,
		"status":     types.StatusPublished,
	}

	return r.list(ctx, query, params)
}

func (r *paymentRepository) ListByShop(ctx context.Context, shopID string) ([]*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE shop_id = :shop_id
		AND status = :status
		ORDER BY payment_date`

	params := map[string]interface{}{
		"shop_id": shopID,
		"status":  types.StatusPublished,
	}

	return r.list(ctx, query, params)
}

func (r *paymentRepository) list(ctx context.Context, query string, params map[string]interface{}) ([]*payment.Payment, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query payments").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.StructScan(&p); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan payment").
				Mark(ierr.ErrDatabase)
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}
