package http

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/wire"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const streamBuffer = 64
const defaultHeartbeat = 15 * time.Second

type StreamMetrics interface {
	StreamOpened()
	StreamClosed()
}

// StreamHandler serves the tracking events of an order as server-sent events.
type StreamHandler struct {
	Handler
	orders    port.OrderService
	feeds     port.EventSource
	codec     *wire.Codec
	metrics   StreamMetrics
	heartbeat time.Duration
}

func NewStreamHandler(orders port.OrderService, feeds port.EventSource, codec *wire.Codec,
	metrics StreamMetrics, heartbeat time.Duration, logger *zap.Logger) (*StreamHandler, error) {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamHandler{
		Handler:   *NewHandler(logger),
		orders:    orders,
		feeds:     feeds,
		codec:     codec,
		metrics:   metrics,
		heartbeat: heartbeat,
	}, nil
}

// streamFollower buffers events between the feed and one HTTP response. A client
// too slow to keep up is dropped rather than allowed to stall the feed.
type streamFollower struct {
	events   chan domain.Event
	overflow chan struct{}
	once     sync.Once
}

func newStreamFollower() *streamFollower {
	return &streamFollower{
		events:   make(chan domain.Event, streamBuffer),
		overflow: make(chan struct{}),
	}
}

func (f *streamFollower) OnEvent(event domain.Event) {
	select {
	case f.events <- event:
	default:
		f.once.Do(func() { close(f.overflow) })
	}
}

func (f *streamFollower) OnConnectionChange(bool) {}

func (sh *StreamHandler) Events(ctx *gin.Context) {
	order, ok := loadOwnOrder(ctx, &sh.Handler, sh.orders)
	if !ok {
		return
	}
	if order.Status.IsTerminal() {
		ctx.Status(http.StatusNoContent)
		return
	}

	follower := newStreamFollower()
	if err := sh.feeds.Connect(order.ID, follower); err != nil {
		sh.handleError(ctx, err)
		return
	}
	defer sh.feeds.Disconnect(order.ID, follower)

	if sh.metrics != nil {
		sh.metrics.StreamOpened()
		defer sh.metrics.StreamClosed()
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Status(http.StatusOK)
	ctx.Writer.Flush()

	log := sh.logger.With(zap.String("order", order.ID))
	log.Debug("stream opened")

	heartbeat := time.NewTicker(sh.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Request.Context().Done():
			log.Debug("client went away")
			return
		case <-follower.overflow:
			log.Warn("stream dropped, client too slow")
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(ctx.Writer, ": keep-alive\n\n"); err != nil {
				return
			}
			ctx.Writer.Flush()
		case event := <-follower.events:
			data, err := sh.codec.Encode(event)
			if err != nil {
				log.Error("event not encodable", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(ctx.Writer, "data: %s\n\n", data); err != nil {
				return
			}
			ctx.Writer.Flush()
			if endsStream(event) {
				log.Debug("stream finished", zap.String("kind", string(event.Kind())))
				return
			}
		}
	}
}

func endsStream(event domain.Event) bool {
	switch p := event.Payload.(type) {
	case domain.OrderCompleted:
		return true
	case domain.StatusUpdate:
		return p.Status.IsTerminal()
	}
	return false
}
