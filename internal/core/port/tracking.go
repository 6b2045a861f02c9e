package port

import (
	"context"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
)

//go:generate mockgen -source=tracking.go -destination=mock/tracking.go -package=mock
type OrderAPI interface {
	FetchOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Reducer applies one event to an order and returns the next order.
// The input order is never modified.
type Reducer interface {
	Apply(order domain.Order, event domain.Event) (domain.Order, error)
}

type TrackingMetrics interface {
	EventReceived(kind domain.EventKind)
	EventApplied(kind domain.EventKind)
	EventDropped(kind domain.EventKind, reason string)
	SessionOpened()
	SessionClosed()
	CancelRequested(result string)
}

// Observer is notified with a snapshot each time the tracked order changes.
type Observer func(order domain.Order)
