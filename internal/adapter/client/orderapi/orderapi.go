package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

const maxAttempts = 3
const defaultRetryAfter = time.Second

// Client talks to the order backend over HTTP.
type Client struct {
	logger  *zap.Logger
	baseURL string
	token   string
	http    *http.Client
}

var _ port.OrderAPI = (*Client)(nil)

func NewClient(cfg *config.Backend, log *zap.Logger) (*Client, error) {
	if cfg.HostString == "" {
		return nil, fmt.Errorf("%w: empty backend address", domain.ErrBadRequest)
	}
	base := cfg.HostString
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		logger:  log.Named("OrderAPI"),
		baseURL: strings.TrimRight(base, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// WithToken returns a copy of the client authenticating with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Token() string {
	return c.token
}

type errRetryLater struct {
	RetryAfter time.Duration
	Status     int
}

func (e *errRetryLater) Error() string {
	return fmt.Sprintf("status %d, retry after %s", e.Status, e.RetryAfter)
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+orderID, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPost, "/api/orders/"+orderID+"/cancel", nil, nil)
}

type tokenRequest struct {
	CustomerID string `json:"customerId"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// RequestToken asks the backend for a customer token.
func (c *Client) RequestToken(ctx context.Context, customerID string) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", tokenRequest{CustomerID: customerID}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

type PlaceOrderItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	IsVeg     bool            `json:"isVeg"`
}

type PlaceOrderRequest struct {
	RestaurantID string           `json:"restaurantId"`
	Address      domain.Address   `json:"deliveryAddress"`
	Items        []PlaceOrderItem `json:"items"`
}

// PlaceOrder creates an order on the backend, used by the headless client to get something to track.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		err := c.request(ctx, method, path, payload, out)
		retry, ok := err.(*errRetryLater)
		if !ok {
			return err
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w: %s", domain.ErrNetwork, retry)
		}

		c.logger.Debug("backend asked to retry",
			zap.String("path", path), zap.Int("status", retry.Status), zap.Duration("retry_after", retry.RetryAfter))
		t := time.NewTimer(retry.RetryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", domain.ErrNetwork, ctx.Err())
		case <-t.C:
		}
	}
}

func (c *Client) request(ctx context.Context, method, path string, payload []byte, out any) error {
	url := c.baseURL + path
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("error on %s : %w", url, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request %s: %w", domain.ErrNetwork, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: error on response decode: %w", domain.ErrNetwork, err)
		}
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return &errRetryLater{RetryAfter: retryAfter(resp.Header.Get("Retry-After")), Status: resp.StatusCode}
	}

	c.logger.Debug("unexpected status for request", zap.String("url", url), zap.Int("status", resp.StatusCode))
	return statusError(resp.StatusCode)
}

func statusError(code int) error {
	switch {
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.ErrUnauthorized
	case code == http.StatusConflict:
		return domain.ErrNotCancellable
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return domain.ErrBadRequest
	}
	return fmt.Errorf("%w: unexpected status %d", domain.ErrNetwork, code)
}

func retryAfter(header string) time.Duration {
	sec, err := strconv.Atoi(header)
	if err != nil || sec < 0 {
		return defaultRetryAfter
	}
	return time.Duration(sec) * time.Second
}
