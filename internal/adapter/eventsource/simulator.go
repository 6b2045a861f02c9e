package eventsource

import (
	"context"
	"math"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"go.uber.org/zap"
)

// OrderLookup resolves the order a simulated feed plays for.
type OrderLookup func(ctx context.Context, orderID string) (*domain.Order, error)

// Simulator plays a scripted delivery: kitchen progress, a courier, location
// pings moving from the restaurant to the customer, then completion.
type Simulator struct {
	interval time.Duration
	pings    int
	lookup   OrderLookup
	now      func() time.Time
	logger   *zap.Logger
}

const courierSpeed = 6.5 // m/s

var defaultCourier = domain.Courier{
	ID:            "courier-1",
	Name:          "Ravi Kumar",
	Phone:         "+91 98450 00000",
	VehicleNumber: "KA 01 AB 1234",
	Rating:        4.8,
}

func NewSimulator(interval time.Duration, pings int, lookup OrderLookup, log *zap.Logger) *Simulator {
	if interval <= 0 {
		interval = time.Second
	}
	if pings < 0 {
		pings = 0
	}
	return &Simulator{
		interval: interval,
		pings:    pings,
		lookup:   lookup,
		now:      time.Now,
		logger:   log.Named("Simulator"),
	}
}

type step func(now time.Time) domain.Payload

func (s *Simulator) Run(ctx context.Context, orderID string, sink Sink) error {
	order := &domain.Order{ID: orderID, Status: domain.OrderStatusPlaced}
	if s.lookup != nil {
		o, err := s.lookup(ctx, orderID)
		if err != nil {
			return err
		}
		order = o
	}
	if order.Status.IsTerminal() {
		return nil
	}

	sink.SetConnected(true)
	script := s.script(*order)
	s.logger.Debug("script started", zap.String("order", orderID), zap.Int("steps", len(script)))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for _, next := range script {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := s.now()
			sink.Emit(domain.Event{OrderID: orderID, Timestamp: now, Payload: next(now)})
		}
	}
	return nil
}

// script skips the statuses the order has already reached.
func (s *Simulator) script(order domain.Order) []step {
	var steps []step
	status := func(to domain.OrderStatus) {
		if to.Rank() > order.Status.Rank() {
			steps = append(steps, func(now time.Time) domain.Payload {
				return domain.StatusUpdate{Status: to, Timestamp: now}
			})
		}
	}

	status(domain.OrderStatusAccepted)
	status(domain.OrderStatusPreparing)
	if order.Courier == nil {
		courier := defaultCourier
		courier.Location = order.Restaurant.Location
		steps = append(steps, func(time.Time) domain.Payload {
			return domain.PartnerAssigned{Courier: courier}
		})
	}
	status(domain.OrderStatusReady)
	status(domain.OrderStatusOutForDelivery)

	from, to := order.Restaurant.Location, order.DeliveryAddress.Location
	heading := from.BearingTo(to)
	for i := 1; i <= s.pings; i++ {
		frac := float64(i) / float64(s.pings+1)
		at := from.Lerp(to, frac)
		remaining := at.DistanceTo(to)
		steps = append(steps,
			func(now time.Time) domain.Payload {
				return domain.LocationUpdate{
					Latitude:  at.Latitude,
					Longitude: at.Longitude,
					Heading:   heading,
					Speed:     courierSpeed,
					Timestamp: now,
				}
			},
			func(time.Time) domain.Payload {
				return domain.ETAUpdate{
					MinutesRemaining: int(math.Ceil(remaining / courierSpeed / 60)),
					DistanceLabel:    domain.DistanceLabel(remaining),
				}
			})
	}

	steps = append(steps, func(now time.Time) domain.Payload {
		return domain.OrderCompleted{DeliveredAt: now}
	})
	return steps
}
