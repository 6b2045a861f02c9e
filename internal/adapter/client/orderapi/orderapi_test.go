package orderapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/client/orderapi"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(t *testing.T, srv *httptest.Server, token string) *orderapi.Client {
	t.Helper()
	c, err := orderapi.NewClient(&config.Backend{HostString: srv.URL, Token: token}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestClient_FetchOrder(t *testing.T) {
	placed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	order := domain.Order{
		ID:                    "A",
		Number:                "ZMT-1001",
		Status:                domain.OrderStatusPreparing,
		Items:                 []domain.LineItem{{Name: "Paneer Tikka", Quantity: 2, UnitPrice: decimal.MustParse("240.50"), IsVeg: true}},
		Timestamps:            map[domain.OrderStatus]time.Time{domain.OrderStatusPlaced: placed},
		EstimatedDeliveryTime: placed.Add(40 * time.Minute),
		IsCancellable:         true,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/orders/A", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(order)
	}))
	defer srv.Close()

	got, err := newClient(t, srv, "secret").FetchOrder(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, order.Number, got.Number)
	assert.Equal(t, order.Status, got.Status)
	assert.True(t, order.EstimatedDeliveryTime.Equal(got.EstimatedDeliveryTime))
	assert.True(t, placed.Equal(got.Timestamps[domain.OrderStatusPlaced]))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "240.50", got.Items[0].UnitPrice.String())
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		expErr error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, domain.ErrUnauthorized},
		{"conflict", http.StatusConflict, domain.ErrNotCancellable},
		{"bad request", http.StatusBadRequest, domain.ErrBadRequest},
		{"server error", http.StatusInternalServerError, domain.ErrNetwork},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(test.status)
			}))
			defer srv.Close()

			err := newClient(t, srv, "").CancelOrder(context.Background(), "A")
			assert.ErrorIs(t, err, test.expErr)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := newClient(t, srv, "")
	srv.Close()

	_, err := c.FetchOrder(context.Background(), "A")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestClient_RetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/A/cancel", r.URL.Path)
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newClient(t, srv, "").CancelOrder(context.Background(), "A")
	assert.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newClient(t, srv, "").CancelOrder(context.Background(), "A")
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RequestToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/token", r.URL.Path)
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cust-1", req["customerId"])
		_, _ = w.Write([]byte(`{"token":"v4.local.xyz"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, "")
	token, err := c.RequestToken(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "v4.local.xyz", token)
	assert.Equal(t, "v4.local.xyz", c.WithToken(token).Token())
	assert.Equal(t, "", c.Token())
}

func TestNewClient_EmptyAddress(t *testing.T) {
	_, err := orderapi.NewClient(&config.Backend{}, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
