package domain

import (
	"fmt"
	"time"

	"github.com/govalues/decimal"
)

type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// canonical is the linear progression of an order. Cancelled is a side exit and has no rank.
var canonical = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// CanonicalStatuses returns the linear statuses in progression order.
func CanonicalStatuses() []OrderStatus {
	out := make([]OrderStatus, len(canonical))
	copy(out, canonical)
	return out
}

// Rank is the position of s in the canonical progression, -1 for cancelled or unknown.
func (s OrderStatus) Rank() int {
	for i, c := range canonical {
		if c == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s == OrderStatusCancelled || s.Rank() >= 0
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsCancellable mirrors the business rule: no cancellation once the food is ready.
func (s OrderStatus) IsCancellable() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusAccepted, OrderStatusPreparing:
		return true
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidEvent, s)
	}
	return status, nil
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Address struct {
	Label    string   `json:"label"`
	Line     string   `json:"line"`
	Location Location `json:"location"`
}

type Restaurant struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Location Location `json:"location"`
}

type Courier struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	VehicleNumber string    `json:"vehicleNumber"`
	Rating        float64   `json:"rating"`
	Location      Location  `json:"location"`
	Heading       float64   `json:"heading"`
	Speed         float64   `json:"speed"`
	LastSeenAt    time.Time `json:"lastSeenAt"`
}

type LineItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	IsVeg     bool            `json:"isVeg"`
}

// Total is UnitPrice * Quantity.
func (li LineItem) Total() (decimal.Decimal, error) {
	q, err := decimal.New(int64(li.Quantity), 0)
	if err != nil {
		return decimal.Zero, err
	}
	return li.UnitPrice.Mul(q)
}

type Order struct {
	ID                    string                    `json:"id"`
	Number                string                    `json:"orderNumber"`
	CustomerID            string                    `json:"customerId"`
	Status                OrderStatus               `json:"status"`
	Items                 []LineItem                `json:"items"`
	Restaurant            Restaurant                `json:"restaurant"`
	Courier               *Courier                  `json:"courier,omitempty"`
	DeliveryAddress       Address                   `json:"deliveryAddress"`
	Timestamps            map[OrderStatus]time.Time `json:"timestamps"`
	EstimatedDeliveryTime time.Time                 `json:"estimatedDeliveryTime"`
	DistanceLabel         string                    `json:"distanceLabel,omitempty"`
	DeliveredAt           time.Time                 `json:"deliveredAt,omitempty"`
	IsCancellable         bool                      `json:"isCancellable"`
	Billing               Billing                   `json:"billing"`
	CreatedAt             time.Time                 `json:"createdAt"`
}

// Clone returns a deep copy; snapshots handed to readers never share mutable state.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]LineItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	if o.Courier != nil {
		courier := *o.Courier
		c.Courier = &courier
	}
	if o.Timestamps != nil {
		c.Timestamps = make(map[OrderStatus]time.Time, len(o.Timestamps))
		for k, v := range o.Timestamps {
			c.Timestamps[k] = v
		}
	}
	return c
}

// LatestTimestamp is the greatest recorded status timestamp.
func (o Order) LatestTimestamp() time.Time {
	var latest time.Time
	for _, ts := range o.Timestamps {
		if ts.After(latest) {
			latest = ts
		}
	}
	return latest
}

// NewOrder builds a freshly placed order. Billing is fixed here and never touched by tracking events.
func NewOrder(id, number, customerID string, restaurant Restaurant, address Address,
	items []LineItem, fees Fees, placedAt time.Time, eta time.Duration) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrBadRequest
	}
	billing, err := NewBilling(items, fees)
	if err != nil {
		return nil, err
	}

	snapshot := make([]LineItem, len(items))
	copy(snapshot, items)

	return &Order{
		ID:                    id,
		Number:                number,
		CustomerID:            customerID,
		Status:                OrderStatusPlaced,
		Items:                 snapshot,
		Restaurant:            restaurant,
		DeliveryAddress:       address,
		Timestamps:            map[OrderStatus]time.Time{OrderStatusPlaced: placedAt},
		EstimatedDeliveryTime: placedAt.Add(eta),
		IsCancellable:         true,
		Billing:               billing,
		CreatedAt:             placedAt,
	}, nil
}
