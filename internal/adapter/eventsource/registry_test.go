package eventsource_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/eventsource"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port/mock"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

// manualTransport hands its sinks to the test and blocks until the feed stops.
type manualTransport struct {
	mu      sync.Mutex
	sinks   map[string]eventsource.Sink
	runs    int
	started chan string
	stopped chan string
	finish  chan error
}

func newManualTransport() *manualTransport {
	return &manualTransport{
		sinks:   make(map[string]eventsource.Sink),
		started: make(chan string, 16),
		stopped: make(chan string, 16),
		finish:  make(chan error, 1),
	}
}

func (m *manualTransport) Run(ctx context.Context, orderID string, sink eventsource.Sink) error {
	m.mu.Lock()
	m.sinks[orderID] = sink
	m.runs++
	m.mu.Unlock()
	m.started <- orderID

	select {
	case <-ctx.Done():
		m.stopped <- orderID
		return ctx.Err()
	case err := <-m.finish:
		return err
	}
}

func (m *manualTransport) sink(orderID string) eventsource.Sink {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sinks[orderID]
}

func (m *manualTransport) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

type recordingListener struct {
	mu        sync.Mutex
	events    []domain.Event
	connected []bool
}

func (l *recordingListener) OnEvent(e domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingListener) OnConnectionChange(c bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = append(l.connected, c)
}

func (l *recordingListener) snapshot() ([]domain.Event, []bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Event(nil), l.events...), append([]bool(nil), l.connected...)
}

func eta(orderID string, minutes int) domain.Event {
	return domain.Event{OrderID: orderID, Payload: domain.ETAUpdate{MinutesRemaining: minutes}}
}

func started(t *testing.T, tr *manualTransport) string {
	t.Helper()
	select {
	case id := <-tr.started:
		return id
	case <-time.After(waitFor):
		t.Fatal("feed did not start")
	}
	return ""
}

func TestRegistry_RefCounting(t *testing.T) {
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())
	defer reg.Close()

	l1, l2 := &recordingListener{}, &recordingListener{}
	require.NoError(t, reg.Connect("A", l1))
	require.NoError(t, reg.Connect("A", l2))
	require.NoError(t, reg.Connect("A", l2))
	assert.Equal(t, "A", started(t, tr))

	assert.Equal(t, 2, reg.Listeners("A"))
	assert.Equal(t, 1, reg.ActiveFeeds())
	assert.Equal(t, 1, tr.runCount())

	reg.Disconnect("A", l1)
	assert.Equal(t, 1, reg.Listeners("A"))
	assert.Equal(t, 1, reg.ActiveFeeds())

	reg.Disconnect("A", l2)
	assert.Equal(t, 0, reg.Listeners("A"))
	assert.Equal(t, 0, reg.ActiveFeeds())

	select {
	case id := <-tr.stopped:
		assert.Equal(t, "A", id)
	case <-time.After(waitFor):
		t.Fatal("feed was not stopped")
	}

	// unknown ids and listeners are ignored
	reg.Disconnect("A", l1)
	reg.Disconnect("nope", l1)
}

func TestRegistry_InvalidConnect(t *testing.T) {
	reg := eventsource.NewRegistry(newManualTransport(), zap.NewNop())
	defer reg.Close()

	assert.ErrorIs(t, reg.Connect("", &recordingListener{}), domain.ErrBadRequest)
	assert.ErrorIs(t, reg.Connect("A", nil), domain.ErrBadRequest)
	assert.Equal(t, 0, reg.ActiveFeeds())
}

func TestRegistry_OrderedDelivery(t *testing.T) {
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())
	defer reg.Close()

	l1, l2 := &recordingListener{}, &recordingListener{}
	require.NoError(t, reg.Connect("A", l1))
	require.NoError(t, reg.Connect("A", l2))
	started(t, tr)

	sink := tr.sink("A")
	for i := 0; i < 100; i++ {
		sink.Emit(eta("A", i))
	}
	// events without an id belong to the feed, events for other ids are dropped
	sink.Emit(domain.Event{Payload: domain.ETAUpdate{MinutesRemaining: 100}})
	sink.Emit(eta("B", 101))

	for _, l := range []*recordingListener{l1, l2} {
		events, _ := l.snapshot()
		require.Len(t, events, 101)
		for i, e := range events {
			assert.Equal(t, "A", e.OrderID)
			assert.Equal(t, i, e.Payload.(domain.ETAUpdate).MinutesRemaining)
		}
	}
}

func TestRegistry_Isolation(t *testing.T) {
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())
	defer reg.Close()

	la, lb := &recordingListener{}, &recordingListener{}
	require.NoError(t, reg.Connect("A", la))
	require.NoError(t, reg.Connect("B", lb))
	started(t, tr)
	started(t, tr)
	assert.Equal(t, 2, reg.ActiveFeeds())

	tr.sink("B").Emit(eta("B", 1))

	eventsA, _ := la.snapshot()
	eventsB, _ := lb.snapshot()
	assert.Empty(t, eventsA)
	assert.Len(t, eventsB, 1)
}

func TestRegistry_Connectivity(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())
	defer reg.Close()

	first := &recordingListener{}
	require.NoError(t, reg.Connect("A", first))
	started(t, tr)

	tr.sink("A").SetConnected(true)
	tr.sink("A").SetConnected(true)

	late := mock.NewMockListener(ctrl)
	late.EXPECT().OnConnectionChange(true)
	require.NoError(t, reg.Connect("A", late))

	late.EXPECT().OnConnectionChange(false)
	tr.sink("A").SetConnected(false)

	_, conn := first.snapshot()
	assert.Equal(t, []bool{false, true, false}, conn)
}

func TestRegistry_NoDeliveryAfterStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())
	defer reg.Close()

	// no OnEvent expectation: a delivery after disconnect fails the test
	l := mock.NewMockListener(ctrl)
	l.EXPECT().OnConnectionChange(false)
	require.NoError(t, reg.Connect("A", l))
	started(t, tr)

	sink := tr.sink("A")
	reg.Disconnect("A", l)

	sink.Emit(eta("A", 1))
	sink.SetConnected(true)
}

func TestRegistry_TransportEndsOnItsOwn(t *testing.T) {
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())
	defer reg.Close()

	l := &recordingListener{}
	require.NoError(t, reg.Connect("A", l))
	started(t, tr)
	tr.sink("A").SetConnected(true)

	tr.finish <- errors.New("stream gone")

	assert.Eventually(t, func() bool { return reg.ActiveFeeds() == 0 }, waitFor, tick)
	_, conn := l.snapshot()
	assert.Equal(t, []bool{false, true, false}, conn)

	// the next listener starts a fresh feed
	require.NoError(t, reg.Connect("A", &recordingListener{}))
	started(t, tr)
	assert.Equal(t, 2, tr.runCount())
}

func TestRegistry_Close(t *testing.T) {
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())

	require.NoError(t, reg.Connect("A", &recordingListener{}))
	require.NoError(t, reg.Connect("B", &recordingListener{}))
	started(t, tr)
	started(t, tr)

	reg.Close()

	assert.Equal(t, 0, reg.ActiveFeeds())
	assert.Len(t, tr.stopped, 2)
}

func TestRegistry_ListenerDisconnectsWhileDelivering(t *testing.T) {
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())
	defer reg.Close()

	l := &selfRemovingListener{reg: reg, orderID: "A"}
	require.NoError(t, reg.Connect("A", l))
	started(t, tr)

	done := make(chan struct{})
	go func() {
		tr.sink("A").Emit(eta("A", 1))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("delivery deadlocked")
	}
	assert.Equal(t, 0, reg.ActiveFeeds())
}

type selfRemovingListener struct {
	reg     *eventsource.Registry
	orderID string
}

func (l *selfRemovingListener) OnEvent(domain.Event) {
	l.reg.Disconnect(l.orderID, l)
}

func (l *selfRemovingListener) OnConnectionChange(bool) {}

func TestRegistry_Publish(t *testing.T) {
	tr := newManualTransport()
	reg := eventsource.NewRegistry(tr, zap.NewNop())
	defer reg.Close()

	ctx := context.Background()
	assert.ErrorIs(t, reg.Publish(ctx, domain.Event{}), domain.ErrBadRequest)
	// nobody follows B yet
	assert.NoError(t, reg.Publish(ctx, eta("B", 1)))

	l := &recordingListener{}
	require.NoError(t, reg.Connect("A", l))
	started(t, tr)

	tr.sink("A").Emit(eta("A", 1))
	require.NoError(t, reg.Publish(ctx, domain.Event{
		OrderID: "A",
		Payload: domain.StatusUpdate{Status: domain.OrderStatusCancelled},
	}))

	events, _ := l.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventETAUpdate, events[0].Kind())
	assert.Equal(t, domain.EventStatusUpdate, events[1].Kind())
}
