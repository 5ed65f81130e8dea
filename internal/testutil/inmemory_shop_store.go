package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/marketpay/marketpay/internal/domain/shop"
	ierr "github.com/marketpay/marketpay/internal/errors"
)

// InMemoryShopStore implements shop.Repository
type InMemoryShopStore struct {
	mu    sync.RWMutex
	shops map[string]*shop.Shop
}

// NewInMemoryShopStore creates a new in-memory shop repository
func NewInMemoryShopStore() *InMemoryShopStore {
	return &InMemoryShopStore{
		shops: make(map[string]*shop.Shop),
	}
}

// Clear resets all stored data
func (m *InMemoryShopStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shops = make(map[string]*shop.Shop)
}

// Create stores a new shop
func (m *InMemoryShopStore) Create(ctx context.Context, s *shop.Shop) error {
	if s == nil {
		return ierr.NewError("shop cannot be nil").
			WithHint("Shop cannot be nil").
			Mark(ierr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shops[s.ID]; ok {
		return ierr.NewError("shop already exists").
			WithHintf("Shop with ID %s already exists", s.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	m.shops[s.ID] = s
	return nil
}

// Get retrieves a shop by ID
func (m *InMemoryShopStore) Get(ctx context.Context, id string) (*shop.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shops[id]
	if !ok {
		return nil, ierr.NewError("shop not found").
			WithHintf("Shop with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return s, nil
}

// GetByCode retrieves a shop by its stall code
func (m *InMemoryShopStore) GetByCode(ctx context.Context, code string) (*shop.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.shops {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, ierr.NewError("shop not found").
		WithHintf("Shop with code %s was not found", code).
		Mark(ierr.ErrNotFound)
}

// List returns all shops ordered by code
func (m *InMemoryShopStore) List(ctx context.Context) ([]*shop.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shops := make([]*shop.Shop, 0, len(m.shops))
	for _, s := range m.shops {
		shops = append(shops, s)
	}
	sort.Slice(shops, func(i, j int) bool {
		return shops[i].Code < shops[j].Code
	})
	return shops, nil
}
