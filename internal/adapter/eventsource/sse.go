package eventsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/wire"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
	"gopkg.in/cenkalti/backoff.v1"
)

const maxReconnectDelay = 30 * time.Second

// SSE reads the backend's text/event-stream for an order and reconnects with
// exponential backoff until the feed is stopped.
type SSE struct {
	baseURL string
	token   string
	codec   *wire.Codec
	delay   time.Duration
	logger  *zap.Logger
}

func NewSSE(baseURL, token string, codec *wire.Codec, reconnectDelay time.Duration, log *zap.Logger) *SSE {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	return &SSE{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		codec:   codec,
		delay:   reconnectDelay,
		logger:  log.Named("SSE"),
	}
}

func (s *SSE) Run(ctx context.Context, orderID string, sink Sink) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = s.delay
	retry.MaxInterval = maxReconnectDelay
	retry.MaxElapsedTime = 0
	retry.Reset()

	for {
		err := s.stream(ctx, orderID, sink)
		sink.SetConnected(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, domain.ErrTerminalOrder) {
			s.logger.Debug("order has no more events", zap.String("order", orderID))
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return err
		}

		delay := s.delay
		if err != nil {
			delay = retry.NextBackOff()
			s.logger.Warn("stream interrupted", zap.String("order", orderID), zap.Error(err),
				zap.Duration("retry_in", delay))
		} else {
			// a clean end of stream resets the backoff
			retry.Reset()
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// stream runs one subscription. Reconnecting is left to Run, so the client makes
// a single attempt.
func (s *SSE) stream(ctx context.Context, orderID string, sink Sink) error {
	client := sse.NewClient(fmt.Sprintf("%s/api/orders/%s/events", s.baseURL, orderID))
	client.ReconnectStrategy = &backoff.StopBackOff{}
	if s.token != "" {
		client.Headers["Authorization"] = "Bearer " + s.token
	}

	var refused error
	client.ResponseValidator = func(_ *sse.Client, resp *http.Response) error {
		switch resp.StatusCode {
		case http.StatusOK:
			sink.SetConnected(true)
			return nil
		case http.StatusNoContent:
			refused = domain.ErrTerminalOrder
		case http.StatusNotFound:
			refused = domain.ErrNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			refused = domain.ErrUnauthorized
		default:
			refused = fmt.Errorf("%w: unexpected status %d", domain.ErrNetwork, resp.StatusCode)
		}
		_ = resp.Body.Close()
		return refused
	}

	err := client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
		if len(msg.Data) == 0 {
			return
		}
		s.dispatch(orderID, msg.Data, sink)
	})
	if refused != nil {
		return refused
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	return nil
}

func (s *SSE) dispatch(orderID string, data []byte, sink Sink) {
	event, err := s.codec.Decode(data)
	if err != nil {
		s.logger.Debug("undecodable event skipped", zap.String("order", orderID), zap.Error(err))
		return
	}
	sink.Emit(event)
}
