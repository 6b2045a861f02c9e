package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
)

// MemoryRepository keeps orders in process; used when no database is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	orders  map[string]domain.Order
	numbers map[string]string
}

var _ port.OrderRepository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:  make(map[string]domain.Order),
		numbers: make(map[string]string),
	}
}

func (m *MemoryRepository) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; ok {
		return nil, domain.ErrConflictingData
	}
	if _, ok := m.numbers[order.Number]; ok {
		return nil, domain.ErrConflictingData
	}
	m.orders[order.ID] = order.Clone()
	m.numbers[order.Number] = order.ID
	return order, nil
}

func (m *MemoryRepository) ReadOrder(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := order.Clone()
	return &c, nil
}

func (m *MemoryRepository) UpdateOrder(_ context.Context, orderID string, updateFn port.UpdateOrderFn) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next, err := updateFn(current.Clone())
	if err != nil {
		return nil, err
	}
	m.orders[orderID] = next.Clone()
	return &next, nil
}

func (m *MemoryRepository) ListOrdersByStatus(_ context.Context, statuses []domain.OrderStatus) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[domain.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	list := make([]domain.Order, 0)
	for _, order := range m.orders {
		if wanted[order.Status] {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}
