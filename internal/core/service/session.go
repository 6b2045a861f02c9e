package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"go.uber.org/zap"
)

// session tracks a single order. It is the port.Listener registered with the event source.
//
// dispatchMu serializes reducer calls, observer notifications and close, so once
// closed is set under it no further reducer call or notification happens.
// Observers run with dispatchMu held and must not call back into the session.
type session struct {
	tracker *Tracker
	orderID string
	log     *zap.Logger

	ready    chan struct{}
	startErr error

	// waiters counts Opens still waiting on ready; guarded by tracker.mu.
	waiters int

	// cancelSlot admits one cancel request at a time.
	cancelSlot chan struct{}

	order     atomic.Pointer[domain.Order]
	connected atomic.Bool
	closed    atomic.Bool

	dispatchMu sync.Mutex
	observers  map[uint64]port.Observer
	handles    map[uint64]struct{}
	nextID     uint64

	// lifeMu orders subscribe against unsubscribe.
	lifeMu     sync.Mutex
	subscribed bool
	opened     bool
}

func newSession(t *Tracker, orderID string) *session {
	return &session{
		tracker:    t,
		orderID:    orderID,
		log:        t.logger.Named("Session").With(zap.String("order", orderID)),
		ready:      make(chan struct{}),
		cancelSlot: make(chan struct{}, 1),
		observers:  make(map[uint64]port.Observer),
		handles:    make(map[uint64]struct{}),
	}
}

func (s *session) start(ctx context.Context) {
	defer close(s.ready)

	order, err := s.tracker.api.FetchOrder(ctx, s.orderID)
	if err == nil && order == nil {
		err = fmt.Errorf("%w: order %s", domain.ErrNotFound, s.orderID)
	}
	if err != nil {
		s.log.Debug("fetch failed", zap.Error(err))
		s.abort(err)
		return
	}

	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.closed.Load() {
		s.log.Debug("fetch result discarded, session closed while loading")
		s.startErr = domain.ErrSessionClosed
		return
	}

	snapshot := order.Clone()
	s.order.Store(&snapshot)

	if !snapshot.Status.IsTerminal() {
		if err := s.tracker.source.Connect(s.orderID, s); err != nil {
			s.log.Error("subscribe failed", zap.Error(err))
			s.abort(err)
			return
		}
		s.subscribed = true
	}

	s.opened = true
	s.tracker.metrics.SessionOpened()
	s.log.Debug("session opened", zap.String("status", string(snapshot.Status)))
}

func (s *session) abort(err error) {
	s.closed.Store(true)
	s.startErr = err
	s.tracker.remove(s)
}

func (s *session) attach(observer port.Observer) (*Handle, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if s.closed.Load() {
		return nil, domain.ErrSessionClosed
	}

	s.nextID++
	s.handles[s.nextID] = struct{}{}
	if observer != nil {
		s.observers[s.nextID] = observer
	}
	return &Handle{s: s, id: s.nextID}, nil
}

func (s *session) detach(id uint64) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	delete(s.observers, id)
	delete(s.handles, id)
	if len(s.handles) == 0 {
		s.closeLocked("detached")
	}
}

// OnEvent runs the reducer over the current snapshot and publishes the result.
func (s *session) OnEvent(event domain.Event) {
	kind := event.Kind()
	s.tracker.metrics.EventReceived(kind)

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if s.closed.Load() {
		s.tracker.metrics.EventDropped(kind, "session_closed")
		return
	}

	current := s.order.Load()
	next, err := s.tracker.reducer.Apply(current.Clone(), event)
	if err != nil {
		s.log.Debug("event dropped", zap.String("kind", string(kind)), zap.Error(err))
		s.tracker.metrics.EventDropped(kind, dropReason(err))
		return
	}
	s.tracker.metrics.EventApplied(kind)

	s.publishLocked(next)
}

func (s *session) OnConnectionChange(connected bool) {
	if s.closed.Load() {
		return
	}
	if s.connected.Swap(connected) != connected {
		s.log.Debug("connection changed", zap.Bool("connected", connected))
	}
}

// publishLocked stores next, notifies observers, and closes the session on a terminal status.
func (s *session) publishLocked(next domain.Order) {
	s.order.Store(&next)
	for _, observe := range s.observers {
		observe(next.Clone())
	}
	if next.Status.IsTerminal() {
		s.closeLocked(string(next.Status))
	}
}

// cancel judges the last known snapshot, so an order that closed its session by
// reaching a terminal status still answers ErrNotCancellable.
func (s *session) cancel(ctx context.Context) error {
	select {
	case s.cancelSlot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.cancelSlot }()

	current := s.order.Load()
	if current == nil || !current.IsCancellable {
		s.tracker.metrics.CancelRequested("rejected")
		return domain.ErrNotCancellable
	}

	if err := s.tracker.api.CancelOrder(ctx, s.orderID); err != nil {
		s.log.Warn("cancel failed", zap.Error(err))
		s.tracker.metrics.CancelRequested("failed")
		return err
	}
	s.tracker.metrics.CancelRequested("ok")

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if s.closed.Load() {
		s.log.Debug("cancel confirmed after session closed")
		return nil
	}

	event := domain.Event{
		OrderID: s.orderID,
		Payload: domain.StatusUpdate{Status: domain.OrderStatusCancelled},
	}
	next, err := s.tracker.reducer.Apply(s.order.Load().Clone(), event)
	if err != nil {
		// the order reached a terminal state between the request and the reply
		s.log.Warn("cancel not applied locally", zap.Error(err))
		s.closeLocked("cancelled")
		return nil
	}

	s.publishLocked(next)
	return nil
}

func (s *session) close(reason string) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.closeLocked(reason)
}

func (s *session) closeLocked(reason string) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.closed.Swap(true) {
		return
	}

	if s.subscribed {
		s.tracker.source.Disconnect(s.orderID, s)
		s.subscribed = false
	}
	s.connected.Store(false)
	s.observers = make(map[uint64]port.Observer)
	s.tracker.remove(s)
	if s.opened {
		s.tracker.metrics.SessionClosed()
	}
	s.log.Debug("session closed", zap.String("reason", reason))
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrStaleEvent):
		return "stale"
	case errors.Is(err, domain.ErrTerminalOrder):
		return "terminal"
	case errors.Is(err, domain.ErrNoCourier):
		return "no_courier"
	case errors.Is(err, domain.ErrUnknownEvent):
		return "unknown"
	case errors.Is(err, domain.ErrInvalidEvent):
		return "invalid"
	}
	return "error"
}
