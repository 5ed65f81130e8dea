package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketpay/marketpay/internal/domain/invoice"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/postgres"
	"github.com/marketpay/marketpay/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of invoice repository
func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice, ledgers invoice.Ledgers) error {
	query := `
		INSERT INTO invoices (
			id, shop_id, period_month, period_year, currency,
			previous_balance, previous_fines, rent_amount, operation_fee, vat_amount,
			total_arrears, total_amount, invoice_status,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :shop_id, :period_month, :period_year, :currency,
			:previous_balance, :previous_fines, :rent_amount, :operation_fee, :vat_amount,
			:total_arrears, :total_amount, :invoice_status,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}

	for _, record := range ledgers.All() {
		if err := r.insertLedgerRecord(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (r *invoiceRepository) insertLedgerRecord(ctx context.Context, record *invoice.LedgerRecord) error {
	query := `
		INSERT INTO ledger_records (
			id, invoice_id, category, amount, paid_amount, record_status,
			paid_date, payment_method,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :invoice_id, :category, :amount, :paid_amount, :record_status,
			:paid_date, :payment_method,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create ledger record").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE id = :id
		AND status = :status`

	params := map[string]interface{}{
		"id":     id,
		"status": types.StatusPublished,
	}

	return r.getOne(ctx, query, params)
}

func (r *invoiceRepository) GetByShopAndPeriod(ctx context.Context, shopID string, month, year int) (*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE shop_id = :shop_id
		AND period_month = :period_month
		AND period_year = :period_year
		AND status = :status`

	params := map[string]interface{}{
		"shop_id":      shopID,
		"period_month": month,
		"period_year":  year,
		"status":       types.StatusPublished,
	}

	return r.getOne(ctx, query, params)
}

func (r *invoiceRepository) GetPrevious(ctx context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	month, year := inv.PreviousPeriod()
	return r.GetByShopAndPeriod(ctx, inv.ShopID, month, year)
}

func (r *invoiceRepository) getOne(ctx context.Context, query string, params map[string]interface{}) (*invoice.Invoice, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query invoice").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("invoice not found").
			WithHint("Invoice was not found").
			Mark(ierr.ErrNotFound)
	}

	var inv invoice.Invoice
	if err := rows.StructScan(&inv); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan invoice").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

// ledgerRecordRow scans amounts as nullable so a malformed or missing value
// degrades to a logged zero instead of failing the whole invoice
type ledgerRecordRow struct {
	ID         string               `db:"id"`
	InvoiceID  string               `db:"invoice_id"`
	Category   types.LedgerCategory `db:"category"`
	Amount     decimal.NullDecimal  `db:"amount"`
	PaidAmount decimal.NullDecimal  `db:"paid_amount"`
	Status     string               `db:"record_status"`
	PaidDate   *time.Time           `db:"paid_date"`
	Method     *string              `db:"payment_method"`

	types.BaseModel
}

func (r *invoiceRepository) toDomainRecord(row *ledgerRecordRow) *invoice.LedgerRecord {
	record := &invoice.LedgerRecord{
		ID:        row.ID,
		InvoiceID: row.InvoiceID,
		Category:  row.Category,
		Status:    types.LedgerRecordStatus(row.Status),
		PaidDate:  row.PaidDate,
		BaseModel: row.BaseModel,
	}
	if row.Method != nil {
		method := types.PaymentMethod(*row.Method)
		record.PaymentMethod = &method
	}

	record.Amount = r.amountOrZero(row, "amount", row.Amount)
	record.PaidAmount = r.amountOrZero(row, "paid_amount", row.PaidAmount)
	return record
}

func (r *invoiceRepository) amountOrZero(row *ledgerRecordRow, field string, value decimal.NullDecimal) decimal.Decimal {
	if value.Valid {
		return value.Decimal
	}
	// deliberate degradation: surface zero but leave a trace for diagnostics
	r.logger.Warnw("substituting zero for missing ledger amount",
		"record_id", row.ID,
		"invoice_id", row.InvoiceID,
		"category", row.Category,
		"field", field,
	)
	return decimal.Zero
}

func (r *invoiceRepository) GetLedgers(ctx context.Context, invoiceID string) (invoice.Ledgers, error) {
	query := `
		SELECT * FROM ledger_records
		WHERE invoice_id = :invoice_id
		AND status = :status
		ORDER BY created_at`

	params := map[string]interface{}{
		"invoice_id": invoiceID,
		"status":     types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return invoice.Ledgers{}, ierr.WithError(err).
			WithHint("Failed to query ledger records").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var ledgers invoice.Ledgers
	for rows.Next() {
		var row ledgerRecordRow
		if err := rows.StructScan(&row); err != nil {
			return invoice.Ledgers{}, ierr.WithError(err).
				WithHint("Failed to scan ledger record").
				Mark(ierr.ErrDatabase)
		}

		record := r.toDomainRecord(&row)
		switch record.Category {
		case types.LedgerCategoryFine:
			ledgers.Fines = append(ledgers.Fines, record)
		case types.LedgerCategoryRent:
			ledgers.Rents = append(ledgers.Rents, record)
		case types.LedgerCategoryVAT:
			ledgers.VATs = append(ledgers.VATs, record)
		case types.LedgerCategoryOperationFee:
			ledgers.OperationFees = append(ledgers.OperationFees, record)
		default:
			r.logger.Warnw("skipping ledger record with unknown category",
				"record_id", record.ID,
				"category", record.Category,
			)
		}
	}
	if err := rows.Err(); err != nil {
		return invoice.Ledgers{}, ierr.WithError(err).
			WithHint("Failed to read ledger records").
			Mark(ierr.ErrDatabase)
	}

	return ledgers, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			previous_balance = :previous_balance,
			previous_fines = :previous_fines,
			total_arrears = :total_arrears,
			total_amount = :total_amount,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) UpdateLedgerRecord(ctx context.Context, record *invoice.LedgerRecord) error {
	record.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE ledger_records SET
			paid_amount = :paid_amount,
			record_status = :record_status,
			paid_date = :paid_date,
			payment_method = :payment_method,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update ledger record").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) ListByShop(ctx context.Context, shopID string) ([]*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE shop_id = :shop_id
		AND status = :status
		ORDER BY period_year DESC, period_month DESC`

	params := map[string]interface{}{
		"shop_id": shopID,
		"status":  types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		var inv invoice.Invoice
		if err := rows.StructScan(&inv); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan invoice").
				Mark(ierr.ErrDatabase)
		}
		invoices = append(invoices, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}
