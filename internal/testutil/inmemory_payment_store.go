package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/marketpay/marketpay/internal/domain/payment"
	ierr "github.com/marketpay/marketpay/internal/errors"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*payment.Payment
}

// NewInMemoryPaymentStore creates a new in-memory payment repository
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		payments: make(map[string]*payment.Payment),
	}
}

// Clear resets all stored data
func (m *InMemoryPaymentStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = make(map[string]*payment.Payment)
}

// Create stores a new payment
func (m *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[p.ID]; ok {
		return ierr.NewError("payment already exists").
			WithHintf("Payment with ID %s already exists", p.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	for _, existing := range m.payments {
		if existing.IdempotencyKey == p.IdempotencyKey {
			return ierr.NewError("duplicate idempotency key").
				WithHint("This payment was already processed").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	copied := *p
	m.payments[p.ID] = &copied
	return nil
}

// Get retrieves a payment by ID
func (m *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payments[id]
	if !ok {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

// GetByIdempotencyKey retrieves a payment by its idempotency key
func (m *InMemoryPaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ierr.NewError("payment not found").
		WithHint("No payment with this idempotency key").
		Mark(ierr.ErrNotFound)
}

// ListByInvoice returns the payments applied to an invoice, oldest first
func (m *InMemoryPaymentStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(func(p *payment.Payment) bool { return p.InvoiceID == invoiceID }), nil
}

// ListByShop returns the payments applied to a shop's invoices, oldest first
func (m *InMemoryPaymentStore) ListByShop(ctx context.Context, shopID string) ([]*payment.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(func(p *payment.Payment) bool { return p.ShopID == shopID }), nil
}

func (m *InMemoryPaymentStore) listLocked(match func(*payment.Payment) bool) []*payment.Payment {
	payments := make([]*payment.Payment, 0)
	for _, p := range m.payments {
		if match(p) {
			copied := *p
			payments = append(payments, &copied)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].ID < payments[j].ID
	})
	return payments
}
