package port

import (
	"context"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
)

// Listener receives tracking events for one order id.
type Listener interface {
	OnEvent(event domain.Event)
	OnConnectionChange(connected bool)
}

//go:generate mockgen -source=eventsource.go -destination=mock/eventsource.go -package=mock
type EventSource interface {
	Connect(orderID string, listener Listener) error
	Disconnect(orderID string, listener Listener)
}

// EventPublisher hands an event to whoever follows its order.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// EventHub is an event source that also carries events originated by the backend itself.
type EventHub interface {
	EventSource
	EventPublisher
}
