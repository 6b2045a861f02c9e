package e2etest_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/auth"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/client/orderapi"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/eventsource"
	handler "github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/handler/http"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/metrics"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/storage/repository"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/wire"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/service"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waitFor = 10 * time.Second
const tick = 10 * time.Millisecond

// startBackend runs the whole mock backend in process and returns its address.
func startBackend(t *testing.T, interval time.Duration) (string, *service.Backend) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	repo := repository.NewMemoryRepository()
	tokens, err := auth.New(&config.Auth{})
	require.NoError(t, err)
	codec := wire.NewCodec(nil)

	registry := eventsource.NewRegistry(eventsource.NewSimulator(interval, 2, repo.ReadOrder, log), log)
	backend, err := service.NewBackend(repo, registry, service.NewReducer(service.DefaultETAGraceWindow, nil),
		nil, nil, log)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTP(reg)
	authHandler, err := handler.NewAuthHandler(tokens, log)
	require.NoError(t, err)
	orderHandler, err := handler.NewOrderHandler(backend, log)
	require.NoError(t, err)
	streamHandler, err := handler.NewStreamHandler(backend, registry, codec, httpMetrics, time.Second, log)
	require.NoError(t, err)
	router, err := handler.NewRouter(&config.App{Mode: config.AppModeDevelop}, tokens,
		authHandler, orderHandler, streamHandler, httpMetrics, reg, log)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		backend.Close()
		srv.CloseClientConnections()
		srv.Close()
		registry.Close()
	})
	return srv.URL, backend
}

// customer is the client side: an authenticated order api and a tracker fed over SSE.
type customer struct {
	api      *orderapi.Client
	tracker  *service.Tracker
	registry *eventsource.Registry
}

func newCustomer(t *testing.T, url string) *customer {
	t.Helper()
	log := zap.NewNop()

	api, err := orderapi.NewClient(&config.Backend{HostString: url}, log)
	require.NoError(t, err)
	token, err := api.RequestToken(context.Background(), "cust-1")
	require.NoError(t, err)
	api = api.WithToken(token)

	sse := eventsource.NewSSE(url, token, wire.NewCodec(nil), 20*time.Millisecond, log)
	registry := eventsource.NewRegistry(sse, log)
	tracker, err := service.NewTracker(api, registry, service.NewReducer(service.DefaultETAGraceWindow, nil),
		nil, log)
	require.NoError(t, err)

	t.Cleanup(func() {
		tracker.CloseAll()
		registry.Close()
	})
	return &customer{api: api, tracker: tracker, registry: registry}
}

func (c *customer) place(t *testing.T) *domain.Order {
	t.Helper()
	order, err := c.api.PlaceOrder(context.Background(), orderapi.PlaceOrderRequest{
		RestaurantID: "meghana-residency",
		Address: domain.Address{Label: "Home", Line: "80 Feet Rd, Indiranagar",
			Location: domain.Location{Latitude: 12.9784, Longitude: 77.6408}},
		Items: []orderapi.PlaceOrderItem{
			{Name: "Chicken Biryani", Quantity: 1, UnitPrice: decimal.MustParse("299.00")},
			{Name: "Mint Lime", Quantity: 2, UnitPrice: decimal.MustParse("79.00"), IsVeg: true},
		},
	})
	require.NoError(t, err)
	return order
}

type updates struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (u *updates) observe(o domain.Order) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.orders = append(u.orders, o)
}

func (u *updates) statuses() []domain.OrderStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]domain.OrderStatus, 0, len(u.orders))
	for _, o := range u.orders {
		out = append(out, o.Status)
	}
	return out
}

func TestTracking_PlaceAndFollowToDelivery(t *testing.T) {
	url, _ := startBackend(t, 100*time.Millisecond)
	c := newCustomer(t, url)

	placed := c.place(t)
	assert.Equal(t, domain.OrderStatusPlaced, placed.Status)
	assert.Equal(t, "457.00", placed.Billing.ItemTotal.String())

	seen := &updates{}
	handle, err := c.tracker.Open(context.Background(), placed.ID, seen.observe)
	require.NoError(t, err)

	require.Eventually(t, handle.Closed, waitFor, tick)

	final := handle.Order()
	assert.Equal(t, domain.OrderStatusDelivered, final.Status)
	assert.False(t, final.DeliveredAt.IsZero())
	assert.False(t, final.IsCancellable)
	assert.Equal(t, placed.Billing, final.Billing)

	statuses := seen.statuses()
	require.NotEmpty(t, statuses)
	for i := 1; i < len(statuses); i++ {
		assert.GreaterOrEqual(t, statuses[i].Rank(), statuses[i-1].Rank(), "status went backwards: %v", statuses)
	}

	// the backend recorded the same progress
	stored, err := c.api.FetchOrder(context.Background(), placed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, stored.Status)

	// the session let go of the stream
	assert.Eventually(t, func() bool { return c.registry.ActiveFeeds() == 0 }, waitFor, tick)
}

func TestTracking_Cancel(t *testing.T) {
	url, backend := startBackend(t, time.Hour)
	c := newCustomer(t, url)

	placed := c.place(t)
	seen := &updates{}
	handle, err := c.tracker.Open(context.Background(), placed.ID, seen.observe)
	require.NoError(t, err)
	require.Eventually(t, handle.Connected, waitFor, tick)

	require.NoError(t, handle.Cancel(context.Background()))
	assert.True(t, handle.Closed())
	assert.Equal(t, domain.OrderStatusCancelled, handle.Order().Status)
	assert.Equal(t, []domain.OrderStatus{domain.OrderStatusCancelled}, seen.statuses())

	stored, err := c.api.FetchOrder(context.Background(), placed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)
	assert.False(t, backend.Tracked(placed.ID))

	// a second customer session sees the terminal order and never connects
	again, err := c.tracker.Open(context.Background(), placed.ID, nil)
	require.NoError(t, err)
	assert.False(t, again.Connected())
	assert.Equal(t, domain.OrderStatusCancelled, again.Order().Status)
}

func TestTracking_ForeignOrder(t *testing.T) {
	url, _ := startBackend(t, time.Hour)
	owner := newCustomer(t, url)
	placed := owner.place(t)

	api, err := orderapi.NewClient(&config.Backend{HostString: url}, zap.NewNop())
	require.NoError(t, err)
	token, err := api.RequestToken(context.Background(), "cust-2")
	require.NoError(t, err)
	stranger := api.WithToken(token)

	_, err = stranger.FetchOrder(context.Background(), placed.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, stranger.CancelOrder(context.Background(), placed.ID), domain.ErrUnauthorized)

	_, err = stranger.FetchOrder(context.Background(), "no-such-order")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
