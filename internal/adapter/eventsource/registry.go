package eventsource

import (
	"context"
	"fmt"
	"sync"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"go.uber.org/zap"
)

// Sink receives what a transport reads from its channel.
type Sink interface {
	Emit(event domain.Event)
	SetConnected(connected bool)
}

// Transport produces the events of one order until ctx is cancelled.
type Transport interface {
	Run(ctx context.Context, orderID string, sink Sink) error
}

// Registry reference-counts listeners per order id. The first listener of an id
// starts a feed on the transport, the last one to leave stops it.
type Registry struct {
	transport Transport
	logger    *zap.Logger

	mu    sync.Mutex
	feeds map[string]*feed
	wg    sync.WaitGroup
}

var _ port.EventHub = (*Registry)(nil)

func NewRegistry(transport Transport, log *zap.Logger) *Registry {
	return &Registry{
		transport: transport,
		logger:    log.Named("EventSource"),
		feeds:     make(map[string]*feed),
	}
}

type feed struct {
	registry *Registry
	orderID  string
	ctx      context.Context
	cancel   context.CancelFunc

	// deliverMu keeps events and connectivity changes in transport order.
	deliverMu sync.Mutex

	// guarded by registry.mu
	listeners []port.Listener
	connected bool
}

func (r *Registry) Connect(orderID string, listener port.Listener) error {
	if orderID == "" {
		return fmt.Errorf("%w: empty order id", domain.ErrBadRequest)
	}
	if listener == nil {
		return fmt.Errorf("%w: nil listener", domain.ErrBadRequest)
	}

	for {
		r.mu.Lock()
		f, ok := r.feeds[orderID]
		if !ok {
			f = r.newFeed(orderID, listener)
			r.wg.Add(1)
			r.mu.Unlock()

			listener.OnConnectionChange(false)
			go f.run()
			r.logger.Debug("feed started", zap.String("order", orderID))
			return nil
		}
		r.mu.Unlock()

		if r.join(f, listener) {
			return nil
		}
	}
}

func (r *Registry) newFeed(orderID string, listener port.Listener) *feed {
	ctx, cancel := context.WithCancel(context.Background())
	f := &feed{
		registry:  r,
		orderID:   orderID,
		ctx:       ctx,
		cancel:    cancel,
		listeners: []port.Listener{listener},
	}
	r.feeds[orderID] = f
	return f
}

// join adds listener to a running feed. It reports false when the feed stopped
// in the meantime.
func (r *Registry) join(f *feed, listener port.Listener) bool {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	r.mu.Lock()
	if r.feeds[f.orderID] != f {
		r.mu.Unlock()
		return false
	}
	for _, l := range f.listeners {
		if l == listener {
			r.mu.Unlock()
			return true
		}
	}
	f.listeners = append(f.listeners, listener)
	connected := f.connected
	r.mu.Unlock()

	listener.OnConnectionChange(connected)
	return true
}

// Disconnect never waits for an in-flight delivery, so it is safe to call from a listener.
func (r *Registry) Disconnect(orderID string, listener port.Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.feeds[orderID]
	if !ok {
		return
	}
	for i, l := range f.listeners {
		if l == listener {
			f.listeners = append(f.listeners[:i:i], f.listeners[i+1:]...)
			break
		}
	}
	if len(f.listeners) == 0 {
		delete(r.feeds, orderID)
		f.cancel()
		r.logger.Debug("feed stopped", zap.String("order", orderID))
	}
}

// Publish delivers an event that did not come from the transport, in line with
// the feed's own events. Without listeners for the order it is a no-op.
// It must not be called from a listener.
func (r *Registry) Publish(_ context.Context, event domain.Event) error {
	if event.OrderID == "" {
		return fmt.Errorf("%w: event without order id", domain.ErrBadRequest)
	}
	r.mu.Lock()
	f, ok := r.feeds[event.OrderID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	f.Emit(event)
	return nil
}

func (r *Registry) Listeners(orderID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[orderID]; ok {
		return len(f.listeners)
	}
	return 0
}

func (r *Registry) ActiveFeeds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}

// Close stops every feed and waits for the transports to return.
func (r *Registry) Close() {
	r.mu.Lock()
	for id, f := range r.feeds {
		f.cancel()
		delete(r.feeds, id)
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (f *feed) run() {
	defer f.registry.wg.Done()

	err := f.registry.transport.Run(f.ctx, f.orderID, f)
	if f.ctx.Err() != nil {
		return
	}
	if err != nil {
		f.registry.logger.Error("feed failed", zap.String("order", f.orderID), zap.Error(err))
	}

	// the transport ended on its own: listeners go offline and the next Connect starts over
	f.SetConnected(false)
	r := f.registry
	r.mu.Lock()
	if r.feeds[f.orderID] == f {
		delete(r.feeds, f.orderID)
	}
	r.mu.Unlock()
	f.cancel()
}

// live returns the listeners to deliver to, nil once the feed has been stopped.
func (f *feed) live() []port.Listener {
	r := f.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ctx.Err() != nil || r.feeds[f.orderID] != f {
		return nil
	}
	out := make([]port.Listener, len(f.listeners))
	copy(out, f.listeners)
	return out
}

func (f *feed) Emit(event domain.Event) {
	if event.OrderID == "" {
		event.OrderID = f.orderID
	}
	if event.OrderID != f.orderID {
		f.registry.logger.Warn("event for another order dropped",
			zap.String("order", f.orderID), zap.String("event_order", event.OrderID))
		return
	}

	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	for _, l := range f.live() {
		l.OnEvent(event)
	}
}

func (f *feed) SetConnected(connected bool) {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	r := f.registry
	r.mu.Lock()
	changed := f.connected != connected
	f.connected = connected
	r.mu.Unlock()
	if !changed {
		return
	}

	r.logger.Debug("connection changed", zap.String("order", f.orderID), zap.Bool("connected", connected))
	for _, l := range f.live() {
		l.OnConnectionChange(connected)
	}
}
