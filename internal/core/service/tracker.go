package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"go.uber.org/zap"
)

// Tracker owns the tracking sessions of the application, one per observed order id.
type Tracker struct {
	api     port.OrderAPI
	source  port.EventSource
	reducer port.Reducer
	metrics port.TrackingMetrics
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewTracker(api port.OrderAPI, source port.EventSource, reducer port.Reducer,
	metrics port.TrackingMetrics, logger *zap.Logger) (*Tracker, error) {
	if api == nil || source == nil || reducer == nil {
		return nil, errors.New("tracker needs an order api, an event source and a reducer")
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		api:      api,
		source:   source,
		reducer:  reducer,
		metrics:  metrics,
		logger:   logger,
		sessions: make(map[string]*session),
	}, nil
}

// Open starts observing orderID. The first Open for an id fetches the order and
// subscribes to the event source; later Opens join the same session. Fetch errors
// are returned unchanged. ctx bounds only this caller's wait: the shared fetch keeps
// going for the other callers, and is abandoned once every caller has given up.
func (t *Tracker) Open(ctx context.Context, orderID string, observer port.Observer) (*Handle, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: empty order id", domain.ErrBadRequest)
	}

	t.mu.Lock()
	s, ok := t.sessions[orderID]
	if !ok {
		s = newSession(t, orderID)
		t.sessions[orderID] = s
	}
	s.waiters++
	t.mu.Unlock()

	if !ok {
		go s.start(context.WithoutCancel(ctx))
	}

	select {
	case <-s.ready:
	case <-ctx.Done():
		loaded, last := t.abandon(s)
		if !loaded {
			if last {
				s.close("abandoned")
			}
			return nil, ctx.Err()
		}
	}
	defer t.leave(s)

	if s.startErr != nil {
		return nil, s.startErr
	}
	return s.attach(observer)
}

func (t *Tracker) leave(s *session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s.waiters--
}

// abandon drops one waiter of s whose context ended. A session that finished
// loading meanwhile is reported as loaded and the waiter stays. Otherwise, when it
// was the last waiter, s is unlinked so later Opens start over.
func (t *Tracker) abandon(s *session) (loaded, last bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-s.ready:
		return true, false
	default:
	}
	s.waiters--
	if s.waiters > 0 {
		return false, false
	}
	if t.sessions[s.orderID] == s {
		delete(t.sessions, s.orderID)
	}
	return false, true
}

// Cancel cancels orderID. An open session is updated with the result; without one
// the order is fetched first so the same cancellable guard applies.
func (t *Tracker) Cancel(ctx context.Context, orderID string) error {
	if s := t.lookup(orderID); s != nil {
		return s.cancel(ctx)
	}

	order, err := t.api.FetchOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil || !order.IsCancellable {
		t.metrics.CancelRequested("rejected")
		return domain.ErrNotCancellable
	}
	if err := t.api.CancelOrder(ctx, orderID); err != nil {
		t.metrics.CancelRequested("failed")
		return err
	}
	t.metrics.CancelRequested("ok")
	return nil
}

// Close ends the session for orderID. No observer is notified after Close returns.
func (t *Tracker) Close(orderID string) {
	if s := t.lookup(orderID); s != nil {
		s.close("closed")
	}
}

func (t *Tracker) CloseAll() {
	t.mu.Lock()
	all := make([]*session, 0, len(t.sessions))
	for _, s := range t.sessions {
		all = append(all, s)
	}
	t.mu.Unlock()

	for _, s := range all {
		s.close("shutdown")
	}
}

// Order returns the current snapshot of a tracked order.
func (t *Tracker) Order(orderID string) (domain.Order, bool) {
	s := t.lookup(orderID)
	if s == nil {
		return domain.Order{}, false
	}
	o := s.order.Load()
	if o == nil {
		return domain.Order{}, false
	}
	return o.Clone(), true
}

func (t *Tracker) lookup(orderID string) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[orderID]
}

func (t *Tracker) remove(s *session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessions[s.orderID] == s {
		delete(t.sessions, s.orderID)
	}
}

// Handle is one observer's view of a tracking session.
type Handle struct {
	s    *session
	id   uint64
	once sync.Once
}

func (h *Handle) Order() domain.Order {
	return h.s.order.Load().Clone()
}

// Connected reports whether the live channel is up, independently of the order status.
func (h *Handle) Connected() bool {
	return h.s.connected.Load()
}

func (h *Handle) Closed() bool {
	return h.s.closed.Load()
}

func (h *Handle) Cancel(ctx context.Context) error {
	return h.s.cancel(ctx)
}

// Detach stops notifications to this handle's observer. The session closes when
// its last handle detaches.
func (h *Handle) Detach() {
	h.once.Do(func() { h.s.detach(h.id) })
}

type nopMetrics struct{}

func (nopMetrics) EventReceived(domain.EventKind) {}
func (nopMetrics) EventApplied(domain.EventKind) {}
func (nopMetrics) EventDropped(domain.EventKind, string) {}
func (nopMetrics) SessionOpened() {}
func (nopMetrics) SessionClosed() {}
func (nopMetrics) CancelRequested(string) {}
