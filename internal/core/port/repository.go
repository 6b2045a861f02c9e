package port

import (
	"context"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, orderID string, updateFn UpdateOrderFn) (*domain.Order, error)
	ListOrdersByStatus(ctx context.Context, statuses []domain.OrderStatus) ([]domain.Order, error)
}

// UpdateOrderFn receives the stored order and returns the replacement.
type UpdateOrderFn func(order domain.Order) (domain.Order, error)

// OrderService is the order side of the mock backend.
type OrderService interface {
	PlaceOrder(ctx context.Context, customerID string, placement domain.Placement) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*domain.Order, error)
}
