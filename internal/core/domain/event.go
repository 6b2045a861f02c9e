package domain

import "time"

type EventKind string

const (
	EventStatusUpdate    EventKind = "status_update"
	EventLocationUpdate  EventKind = "location_update"
	EventETAUpdate       EventKind = "eta_update"
	EventPartnerAssigned EventKind = "partner_assigned"
	EventOrderCompleted  EventKind = "order_completed"
)

// Event is one tracking message for a single order.
type Event struct {
	OrderID   string
	Timestamp time.Time
	Payload   Payload
}

func (e Event) Kind() EventKind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// Payload is implemented only by the five event payloads below.
type Payload interface {
	Kind() EventKind
	payload()
}

type StatusUpdate struct {
	Status    OrderStatus
	Timestamp time.Time
}

type LocationUpdate struct {
	Latitude  float64
	Longitude float64
	Heading   float64
	Speed     float64
	Timestamp time.Time
}

type ETAUpdate struct {
	MinutesRemaining int
	DistanceLabel    string
}

type PartnerAssigned struct {
	Courier Courier
}

type OrderCompleted struct {
	DeliveredAt time.Time
}

func (StatusUpdate) Kind() EventKind    { return EventStatusUpdate }
func (LocationUpdate) Kind() EventKind  { return EventLocationUpdate }
func (ETAUpdate) Kind() EventKind       { return EventETAUpdate }
func (PartnerAssigned) Kind() EventKind { return EventPartnerAssigned }
func (OrderCompleted) Kind() EventKind  { return EventOrderCompleted }

func (StatusUpdate) payload()    {}
func (LocationUpdate) payload()  {}
func (ETAUpdate) payload()       {}
func (PartnerAssigned) payload() {}
func (OrderCompleted) payload()  {}
