package service

import (
	"fmt"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
)

// DefaultETAGraceWindow is how long before the latest status change an ETA revision
// may have been sent and still be applied.
const DefaultETAGraceWindow = 5 * time.Minute

// Reducer is the port.Reducer used by tracking sessions.
type Reducer struct {
	graceWindow time.Duration
	now         func() time.Time
}

func NewReducer(graceWindow time.Duration, now func() time.Time) *Reducer {
	if now == nil {
		now = time.Now
	}
	if graceWindow < 0 {
		graceWindow = 0
	}
	return &Reducer{graceWindow: graceWindow, now: now}
}

func (r *Reducer) Apply(order domain.Order, event domain.Event) (domain.Order, error) {
	return Reduce(order, event, r.now(), r.graceWindow)
}

// Reduce applies one event to order and returns the next order. It never modifies
// its input: on any error the returned order is the input unchanged.
func Reduce(order domain.Order, event domain.Event, now time.Time, graceWindow time.Duration) (domain.Order, error) {
	if event.OrderID != "" && event.OrderID != order.ID {
		return order, fmt.Errorf("%w: event for order %s applied to %s", domain.ErrInvalidEvent, event.OrderID, order.ID)
	}
	if order.Status.IsTerminal() {
		return order, domain.ErrTerminalOrder
	}

	switch p := event.Payload.(type) {
	case domain.StatusUpdate:
		return applyStatus(order, p.Status, eventTime(p.Timestamp, event.Timestamp, now))
	case domain.LocationUpdate:
		return applyLocation(order, p, eventTime(p.Timestamp, event.Timestamp, now))
	case domain.ETAUpdate:
		return applyETA(order, p, event.Timestamp, now, graceWindow)
	case domain.PartnerAssigned:
		return applyPartner(order, p), nil
	case domain.OrderCompleted:
		return applyCompleted(order, eventTime(p.DeliveredAt, event.Timestamp, now)), nil
	default:
		return order, domain.ErrUnknownEvent
	}
}

func applyStatus(order domain.Order, status domain.OrderStatus, at time.Time) (domain.Order, error) {
	if !status.Valid() {
		return order, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidEvent, status)
	}
	// cancelled is reachable from any non-terminal status; everything else only moves forward
	if status != domain.OrderStatusCancelled && status.Rank() <= order.Status.Rank() {
		return order, domain.ErrStaleEvent
	}

	next := withStatus(order, status, at)
	if status == domain.OrderStatusDelivered {
		next.DeliveredAt = next.Timestamps[status]
	}
	return next, nil
}

func applyLocation(order domain.Order, p domain.LocationUpdate, at time.Time) (domain.Order, error) {
	if order.Courier == nil {
		return order, domain.ErrNoCourier
	}

	courier := *order.Courier
	courier.Location = domain.Location{Latitude: p.Latitude, Longitude: p.Longitude}
	courier.Heading = p.Heading
	courier.Speed = p.Speed
	courier.LastSeenAt = at

	next := order
	next.Courier = &courier
	return next, nil
}

// applyETA drops revisions sent before the order last changed status, beyond the
// grace window. A revision may move the estimate in either direction.
func applyETA(order domain.Order, p domain.ETAUpdate, sentAt, now time.Time, graceWindow time.Duration) (domain.Order, error) {
	if !sentAt.IsZero() {
		if latest := order.LatestTimestamp(); !latest.IsZero() && sentAt.Before(latest.Add(-graceWindow)) {
			return order, domain.ErrStaleEvent
		}
	}

	minutes := p.MinutesRemaining
	if minutes < 0 {
		minutes = 0
	}
	eta := now.Add(time.Duration(minutes) * time.Minute)

	next := order
	next.EstimatedDeliveryTime = eta
	if p.DistanceLabel != "" {
		next.DistanceLabel = p.DistanceLabel
	}
	return next, nil
}

func applyPartner(order domain.Order, p domain.PartnerAssigned) domain.Order {
	courier := p.Courier
	next := order
	next.Courier = &courier
	return next
}

// applyCompleted is authoritative: it delivers the order whatever status was last seen.
func applyCompleted(order domain.Order, deliveredAt time.Time) domain.Order {
	next := withStatus(order, domain.OrderStatusDelivered, deliveredAt)
	next.DeliveredAt = deliveredAt
	return next
}

// withStatus copies order with a new status. The recorded timestamp never precedes
// an earlier status's timestamp.
func withStatus(order domain.Order, status domain.OrderStatus, at time.Time) domain.Order {
	if latest := order.LatestTimestamp(); at.Before(latest) {
		at = latest
	}

	timestamps := make(map[domain.OrderStatus]time.Time, len(order.Timestamps)+1)
	for k, v := range order.Timestamps {
		timestamps[k] = v
	}
	timestamps[status] = at

	next := order
	next.Status = status
	next.Timestamps = timestamps
	next.IsCancellable = status.IsCancellable()
	return next
}

func eventTime(candidates ...time.Time) time.Time {
	for _, t := range candidates {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}
