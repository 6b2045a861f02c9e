package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

const (
	storeTimeout   = 5 * time.Second
	prepTime       = 20 * time.Minute
	metersPerMin   = 250.0
	numberPrefix   = "ZMT-"
	numberIDLength = 10
)

var (
	deliveryFee = decimal.MustNew(3000, 2)
	platformFee = decimal.MustNew(500, 2)
	taxRate     = decimal.MustNew(5, 2)
)

// DefaultRestaurants is the catalog the backend serves when none is configured.
var DefaultRestaurants = []domain.Restaurant{
	{ID: "truffles-kormangala", Name: "Truffles", Phone: "+91 80 4112 1234",
		Location: domain.Location{Latitude: 12.9334, Longitude: 77.6145}},
	{ID: "meghana-residency", Name: "Meghana Foods", Phone: "+91 80 4567 8901",
		Location: domain.Location{Latitude: 12.9756, Longitude: 77.6050}},
	{ID: "ctr-malleshwaram", Name: "Central Tiffin Room", Phone: "+91 80 2331 2233",
		Location: domain.Location{Latitude: 13.0035, Longitude: 77.5692}},
}

// Backend keeps the orders of the mock backend. It follows every active order on
// the event hub and records the progress in the repository, so a fetch always
// reflects what the stream has announced.
type Backend struct {
	repo    port.OrderRepository
	feeds   port.EventHub
	reducer port.Reducer
	broker  port.EventPublisher
	catalog map[string]domain.Restaurant
	now     func() time.Time
	logger  *zap.Logger

	mu      sync.Mutex
	tracked map[string]bool
}

var _ port.OrderService = (*Backend)(nil)
var _ port.Listener = (*Backend)(nil)

// NewBackend builds the backend. broker is optional; when set every recorded event
// is published to it as well.
func NewBackend(repo port.OrderRepository, feeds port.EventHub, reducer port.Reducer,
	broker port.EventPublisher, restaurants []domain.Restaurant, logger *zap.Logger) (*Backend, error) {
	if repo == nil || feeds == nil || reducer == nil {
		return nil, errors.New("backend needs a repository, an event hub and a reducer")
	}
	if len(restaurants) == 0 {
		restaurants = DefaultRestaurants
	}
	catalog := make(map[string]domain.Restaurant, len(restaurants))
	for _, r := range restaurants {
		catalog[r.ID] = r
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		repo:    repo,
		feeds:   feeds,
		reducer: reducer,
		broker:  broker,
		catalog: catalog,
		now:     time.Now,
		logger:  logger,
		tracked: make(map[string]bool),
	}, nil
}

func (b *Backend) PlaceOrder(ctx context.Context, customerID string, placement domain.Placement) (*domain.Order, error) {
	if customerID == "" {
		return nil, domain.ErrUnauthorized
	}
	restaurant, ok := b.catalog[placement.RestaurantID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown restaurant %q", domain.ErrBadRequest, placement.RestaurantID)
	}

	fees, err := feesFor(placement.Items)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	order, err := domain.NewOrder(id, orderNumber(id), customerID, restaurant, placement.Address,
		placement.Items, fees, b.now().UTC(), estimate(restaurant.Location, placement.Address.Location))
	if err != nil {
		return nil, err
	}

	created, err := b.repo.CreateOrder(ctx, order)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			return nil, err
		}
		b.logger.Error("Create order", zap.Error(err))
		return nil, domain.ErrInternal
	}
	b.logger.Info("order placed", zap.String("order", created.ID), zap.String("number", created.Number),
		zap.Stringer("total", created.Billing.GrandTotal))

	if err := b.Track(created.ID); err != nil {
		b.logger.Error("Track order", zap.String("order", created.ID), zap.Error(err))
	}
	return created, nil
}

func (b *Backend) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := b.repo.ReadOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		b.logger.Error("Read order", zap.String("order", orderID), zap.Error(err))
		return nil, domain.ErrInternal
	}
	return order, nil
}

// CancelOrder applies the same rule as the client: only orders that are not yet
// ready can be cancelled. Followers of the order see the cancellation on the hub.
func (b *Backend) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	now := b.now().UTC()
	event := domain.Event{
		OrderID:   orderID,
		Timestamp: now,
		Payload:   domain.StatusUpdate{Status: domain.OrderStatusCancelled, Timestamp: now},
	}

	updated, err := b.repo.UpdateOrder(ctx, orderID, func(order domain.Order) (domain.Order, error) {
		if !order.IsCancellable || !order.Status.IsCancellable() {
			return order, domain.ErrNotCancellable
		}
		return b.reducer.Apply(order, event)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNotCancellable) {
			return nil, err
		}
		b.logger.Error("Cancel order", zap.String("order", orderID), zap.Error(err))
		return nil, domain.ErrInternal
	}

	cancelledAt := updated.Timestamps[domain.OrderStatusCancelled]
	event.Timestamp = cancelledAt
	event.Payload = domain.StatusUpdate{Status: domain.OrderStatusCancelled, Timestamp: cancelledAt}

	if err := b.feeds.Publish(ctx, event); err != nil {
		b.logger.Warn("cancellation not delivered to followers", zap.String("order", orderID), zap.Error(err))
	}
	b.forward(ctx, event)
	b.untrack(orderID)

	b.logger.Info("order cancelled", zap.String("order", orderID))
	return updated, nil
}

// Track starts following orderID on the hub. Following an order twice is a no-op.
func (b *Backend) Track(orderID string) error {
	b.mu.Lock()
	if b.tracked[orderID] {
		b.mu.Unlock()
		return nil
	}
	b.tracked[orderID] = true
	b.mu.Unlock()

	if err := b.feeds.Connect(orderID, b); err != nil {
		b.mu.Lock()
		delete(b.tracked, orderID)
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *Backend) untrack(orderID string) {
	b.mu.Lock()
	tracked := b.tracked[orderID]
	delete(b.tracked, orderID)
	b.mu.Unlock()

	if tracked {
		b.feeds.Disconnect(orderID, b)
	}
}

// Tracked reports whether the backend currently follows orderID.
func (b *Backend) Tracked(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracked[orderID]
}

// Resume follows every order that has not reached a terminal status yet,
// typically after a restart. It returns how many orders are followed.
func (b *Backend) Resume(ctx context.Context) (int, error) {
	active := make([]domain.OrderStatus, 0, len(domain.CanonicalStatuses()))
	for _, s := range domain.CanonicalStatuses() {
		if !s.IsTerminal() {
			active = append(active, s)
		}
	}

	orders, err := b.repo.ListOrdersByStatus(ctx, active)
	if err != nil {
		return 0, err
	}
	resumed := 0
	for _, order := range orders {
		if err := b.Track(order.ID); err != nil {
			b.logger.Error("Resume order", zap.String("order", order.ID), zap.Error(err))
			continue
		}
		resumed++
	}
	return resumed, nil
}

// Close stops following all orders.
func (b *Backend) Close() {
	b.mu.Lock()
	ids := make([]string, 0, len(b.tracked))
	for id := range b.tracked {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		b.untrack(id)
	}
}

func (b *Backend) OnEvent(event domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	updated, err := b.repo.UpdateOrder(ctx, event.OrderID, func(order domain.Order) (domain.Order, error) {
		return b.reducer.Apply(order, event)
	})
	if err != nil {
		switch dropReason(err) {
		case "error":
			b.logger.Error("Record event", zap.String("order", event.OrderID), zap.Error(err))
		default:
			b.logger.Debug("event not recorded", zap.String("order", event.OrderID),
				zap.String("kind", string(event.Kind())), zap.Error(err))
		}
		if errors.Is(err, domain.ErrTerminalOrder) || errors.Is(err, domain.ErrNotFound) {
			b.untrack(event.OrderID)
		}
		return
	}

	b.forward(ctx, event)
	if updated.Status.IsTerminal() {
		b.untrack(event.OrderID)
	}
}

func (b *Backend) OnConnectionChange(connected bool) {
	b.logger.Debug("feed connectivity", zap.Bool("connected", connected))
}

func (b *Backend) forward(ctx context.Context, event domain.Event) {
	if b.broker == nil {
		return
	}
	if err := b.broker.Publish(ctx, event); err != nil {
		b.logger.Warn("event not published", zap.String("order", event.OrderID), zap.Error(err))
	}
}

func feesFor(items []domain.LineItem) (domain.Fees, error) {
	subtotal, err := domain.NewBilling(items, domain.Fees{})
	if err != nil {
		return domain.Fees{}, err
	}
	tax, err := subtotal.ItemTotal.Mul(taxRate)
	if err != nil {
		return domain.Fees{}, fmt.Errorf("math error:%w", err)
	}
	return domain.Fees{
		DeliveryFee: deliveryFee,
		PlatformFee: platformFee,
		Tax:         tax.Round(2),
		Discount:    decimal.Zero,
	}, nil
}

// estimate is the preparation time plus the ride at courier speed.
func estimate(from, to domain.Location) time.Duration {
	ride := math.Ceil(from.DistanceTo(to) / metersPerMin)
	return prepTime + time.Duration(ride)*time.Minute
}

func orderNumber(id string) string {
	compact := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	return numberPrefix + compact[:numberIDLength]
}
