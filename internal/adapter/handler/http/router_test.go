package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	handler "github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/handler/http"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/metrics"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/wire"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port/mock"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// hub hands its listeners to the test.
type hub struct {
	mu        sync.Mutex
	listeners map[string]port.Listener
	joined    chan string
	left      chan string
}

func newHub() *hub {
	return &hub{
		listeners: make(map[string]port.Listener),
		joined:    make(chan string, 4),
		left:      make(chan string, 4),
	}
}

func (h *hub) Connect(orderID string, l port.Listener) error {
	h.mu.Lock()
	h.listeners[orderID] = l
	h.mu.Unlock()
	h.joined <- orderID
	return nil
}

func (h *hub) Disconnect(orderID string, _ port.Listener) {
	h.mu.Lock()
	delete(h.listeners, orderID)
	h.mu.Unlock()
	h.left <- orderID
}

func (h *hub) listener(orderID string) port.Listener {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listeners[orderID]
}

type fixture struct {
	router  *handler.Router
	orders  *mock.MockOrderService
	tokens  *mock.MockTokenService
	hub     *hub
	metrics *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		orders:  mock.NewMockOrderService(ctrl),
		tokens:  mock.NewMockTokenService(ctrl),
		hub:     newHub(),
		metrics: prometheus.NewRegistry(),
	}
	log := zap.NewNop()

	authHandler, err := handler.NewAuthHandler(f.tokens, log)
	require.NoError(t, err)
	orderHandler, err := handler.NewOrderHandler(f.orders, log)
	require.NoError(t, err)
	httpMetrics := metrics.NewHTTP(f.metrics)
	streamHandler, err := handler.NewStreamHandler(f.orders, f.hub, wire.NewCodec(nil), httpMetrics, time.Hour, log)
	require.NoError(t, err)

	f.router, err = handler.NewRouter(&config.App{Mode: config.AppModeDevelop}, f.tokens,
		authHandler, orderHandler, streamHandler, httpMetrics, f.metrics, log)
	require.NoError(t, err)

	f.tokens.EXPECT().VerifyToken("good").Return(&port.TokenPayload{CustomerID: "cust-1"}, nil).AnyTimes()
	f.tokens.EXPECT().VerifyToken(gomock.Not("good")).Return(nil, domain.ErrInvalidToken).AnyTimes()
	return f
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func ownOrder(id string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:            id,
		Number:        "ZMT-" + id,
		CustomerID:    "cust-1",
		Status:        status,
		IsCancellable: status.IsCancellable(),
		Timestamps:    map[domain.OrderStatus]time.Time{domain.OrderStatusPlaced: time.Now().UTC()},
	}
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)

	f.tokens.EXPECT().CreateToken("cust-1").Return("tok", nil)
	w := f.do(http.MethodPost, "/api/auth/token", "", map[string]string{"customerId": "cust-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"tok"}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/auth/token", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.tokens.EXPECT().CreateToken("cust-2").Return("", errors.New("no entropy"))
	w = f.do(http.MethodPost, "/api/auth/token", "", map[string]string{"customerId": "cust-2"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthCheck(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong type", "Basic abc"},
		{"malformed", "Bearer"},
		{"bad token", "Bearer nope"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders/A", http.NoBody)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)

	body := map[string]any{
		"restaurantId": "meghana-residency",
		"deliveryAddress": map[string]any{
			"label":    "Home",
			"line":     "80 Feet Rd",
			"location": map[string]float64{"latitude": 12.97, "longitude": 77.64},
		},
		"items": []map[string]any{{"name": "Biryani", "quantity": 2, "unitPrice": "199.00", "isVeg": false}},
	}

	f.orders.EXPECT().PlaceOrder(gomock.Any(), "cust-1", gomock.Any()).DoAndReturn(
		func(_ any, _ string, p domain.Placement) (*domain.Order, error) {
			assert.Equal(t, "meghana-residency", p.RestaurantID)
			assert.Equal(t, "80 Feet Rd", p.Address.Line)
			require.Len(t, p.Items, 1)
			assert.Equal(t, 2, p.Items[0].Quantity)
			assert.Equal(t, decimal.MustParse("199.00"), p.Items[0].UnitPrice)
			return ownOrder("A", domain.OrderStatusPlaced), nil
		})

	w := f.do(http.MethodPost, "/api/orders", "good", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var order domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "A", order.ID)
	assert.Equal(t, domain.OrderStatusPlaced, order.Status)

	t.Run("invalid bodies never reach the service", func(t *testing.T) {
		noItems := map[string]any{"restaurantId": "r", "deliveryAddress": map[string]any{"line": "x"}}
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/orders", "good", noItems).Code)

		badQuantity := map[string]any{
			"restaurantId":    "r",
			"deliveryAddress": map[string]any{"line": "x"},
			"items":           []map[string]any{{"name": "Tea", "quantity": 0, "unitPrice": "10"}},
		}
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/orders", "good", badQuantity).Code)

		negative := map[string]any{
			"restaurantId":    "r",
			"deliveryAddress": map[string]any{"line": "x"},
			"items":           []map[string]any{{"name": "Tea", "quantity": 1, "unitPrice": "-10"}},
		}
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/orders", "good", negative).Code)
	})
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)

	f.orders.EXPECT().GetOrder(gomock.Any(), "A").Return(ownOrder("A", domain.OrderStatusPreparing), nil)
	w := f.do(http.MethodGet, "/api/orders/A", "good", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var order domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, domain.OrderStatusPreparing, order.Status)

	foreign := ownOrder("B", domain.OrderStatusPlaced)
	foreign.CustomerID = "someone-else"
	f.orders.EXPECT().GetOrder(gomock.Any(), "B").Return(foreign, nil)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/orders/B", "good", nil).Code)

	f.orders.EXPECT().GetOrder(gomock.Any(), "C").Return(nil, domain.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/orders/C", "good", nil).Code)

	f.orders.EXPECT().GetOrder(gomock.Any(), "D").Return(nil, domain.ErrInternal)
	assert.Equal(t, http.StatusInternalServerError, f.do(http.MethodGet, "/api/orders/D", "good", nil).Code)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)

	f.orders.EXPECT().GetOrder(gomock.Any(), "A").Return(ownOrder("A", domain.OrderStatusAccepted), nil)
	f.orders.EXPECT().CancelOrder(gomock.Any(), "A").Return(ownOrder("A", domain.OrderStatusCancelled), nil)
	w := f.do(http.MethodPost, "/api/orders/A/cancel", "good", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)

	f.orders.EXPECT().GetOrder(gomock.Any(), "B").Return(ownOrder("B", domain.OrderStatusReady), nil)
	f.orders.EXPECT().CancelOrder(gomock.Any(), "B").Return(nil, domain.ErrNotCancellable)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/orders/B/cancel", "good", nil).Code)
}

func TestEvents_TerminalOrder(t *testing.T) {
	f := newFixture(t)

	f.orders.EXPECT().GetOrder(gomock.Any(), "A").Return(ownOrder("A", domain.OrderStatusDelivered), nil)
	w := f.do(http.MethodGet, "/api/orders/A/events", "good", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, f.hub.joined)
}

func TestEvents_Stream(t *testing.T) {
	f := newFixture(t)
	f.orders.EXPECT().GetOrder(gomock.Any(), "A").Return(ownOrder("A", domain.OrderStatusPlaced), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/A/events", http.NoBody)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		f.router.ServeHTTP(w, req)
		close(done)
	}()

	select {
	case id := <-f.hub.joined:
		assert.Equal(t, "A", id)
	case <-time.After(2 * time.Second):
		t.Fatal("stream never joined the feed")
	}

	l := f.hub.listener("A")
	l.OnEvent(domain.Event{OrderID: "A", Timestamp: time.Now(),
		Payload: domain.StatusUpdate{Status: domain.OrderStatusAccepted}})
	l.OnEvent(domain.Event{OrderID: "A", Timestamp: time.Now(),
		Payload: domain.OrderCompleted{DeliveredAt: time.Now()}})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after completion")
	}

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "A", <-f.hub.left)

	codec := wire.NewCodec(nil)
	var kinds []domain.EventKind
	for _, line := range strings.Split(w.Body.String(), "\n") {
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		event, err := codec.Decode([]byte(data))
		require.NoError(t, err)
		kinds = append(kinds, event.Kind())
	}
	assert.Equal(t, []domain.EventKind{domain.EventStatusUpdate, domain.EventOrderCompleted}, kinds)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `order_tracking_http_requests_total{method="GET",path="/health",status="200"} 1`)
}
