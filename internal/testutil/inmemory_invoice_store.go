package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marketpay/marketpay/internal/domain/invoice"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository. Ledger records are
// copied on read and write so a caller's in-flight mutation is not visible
// until UpdateLedgerRecord persists it, mirroring a real database.
type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
	records  map[string]*invoice.LedgerRecord
}

// NewInMemoryInvoiceStore creates a new in-memory invoice repository
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		invoices: make(map[string]*invoice.Invoice),
		records:  make(map[string]*invoice.LedgerRecord),
	}
}

// Clear resets all stored data
func (m *InMemoryInvoiceStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices = make(map[string]*invoice.Invoice)
	m.records = make(map[string]*invoice.LedgerRecord)
}

// Create stores an invoice with its sub-ledger records
func (m *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice, ledgers invoice.Ledgers) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.invoices[inv.ID]; ok {
		return ierr.NewError("invoice already exists").
			WithHintf("Invoice with ID %s already exists", inv.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *inv
	m.invoices[inv.ID] = &copied
	for _, r := range ledgers.All() {
		rec := *r
		m.records[r.ID] = &rec
	}
	return nil
}

// Get retrieves an invoice by ID
func (m *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(id)
}

func (m *InMemoryInvoiceStore) getLocked(id string) (*invoice.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *inv
	return &copied, nil
}

// GetByShopAndPeriod retrieves the invoice of a shop's billing period
func (m *InMemoryInvoiceStore) GetByShopAndPeriod(ctx context.Context, shopID string, month, year int) (*invoice.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, inv := range m.invoices {
		if inv.ShopID == shopID && inv.PeriodMonth == month && inv.PeriodYear == year {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, ierr.NewError("invoice not found").
		WithHintf("Shop has no invoice for %d/%d", month, year).
		Mark(ierr.ErrNotFound)
}

// GetPrevious retrieves the invoice of the period immediately before inv
func (m *InMemoryInvoiceStore) GetPrevious(ctx context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	month, year := inv.PreviousPeriod()
	return m.GetByShopAndPeriod(ctx, inv.ShopID, month, year)
}

// GetLedgers retrieves the sub-ledger records of an invoice bucketed by category
func (m *InMemoryInvoiceStore) GetLedgers(ctx context.Context, invoiceID string) (invoice.Ledgers, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*invoice.LedgerRecord, 0)
	for _, r := range m.records {
		if r.InvoiceID == invoiceID {
			copied := *r
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	var ledgers invoice.Ledgers
	for _, r := range records {
		switch r.Category {
		case types.LedgerCategoryFine:
			ledgers.Fines = append(ledgers.Fines, r)
		case types.LedgerCategoryRent:
			ledgers.Rents = append(ledgers.Rents, r)
		case types.LedgerCategoryVAT:
			ledgers.VATs = append(ledgers.VATs, r)
		case types.LedgerCategoryOperationFee:
			ledgers.OperationFees = append(ledgers.OperationFees, r)
		}
	}
	return ledgers, nil
}

// Update updates an existing invoice
func (m *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.invoices[inv.ID]; !ok {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	inv.UpdatedAt = time.Now().UTC()
	copied := *inv
	m.invoices[inv.ID] = &copied
	return nil
}

// UpdateLedgerRecord persists a mutated sub-ledger record
func (m *InMemoryInvoiceStore) UpdateLedgerRecord(ctx context.Context, record *invoice.LedgerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return ierr.NewError("ledger record not found").
			WithHintf("Ledger record with ID %s was not found", record.ID).
			Mark(ierr.ErrNotFound)
	}
	record.UpdatedAt = time.Now().UTC()
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

// ListByShop returns a shop's invoices, newest period first
func (m *InMemoryInvoiceStore) ListByShop(ctx context.Context, shopID string) ([]*invoice.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	invoices := make([]*invoice.Invoice, 0)
	for _, inv := range m.invoices {
		if inv.ShopID == shopID {
			copied := *inv
			invoices = append(invoices, &copied)
		}
	}
	sort.Slice(invoices, func(i, j int) bool {
		if invoices[i].PeriodYear != invoices[j].PeriodYear {
			return invoices[i].PeriodYear > invoices[j].PeriodYear
		}
		return invoices[i].PeriodMonth > invoices[j].PeriodMonth
	})
	return invoices, nil
}
