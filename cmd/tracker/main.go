package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/client/orderapi"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/eventsource"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/logger"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/metrics"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/wire"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/service"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const updateBuffer = 64

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log, err := logger.NewLogger(conf.App)
	if err != nil {
		fmt.Printf("error creating log: %s", err)
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	if conf.Tracking.OrderID == "" {
		log.Error("no order to track, set -order or TRACKING_ORDER_ID")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := orderapi.NewClient(conf.Backend, log)
	if err != nil {
		log.Error("order api client creating error", zap.Error(err))
		return
	}
	if client.Token() == "" && conf.Backend.CustomerID != "" {
		token, err := client.RequestToken(ctx, conf.Backend.CustomerID)
		if err != nil {
			log.Error("token request error", zap.Error(err))
			return
		}
		client = client.WithToken(token)
	}

	transport, closeTransport, err := newTransport(conf, client, log)
	if err != nil {
		log.Error("transport creating error", zap.Error(err))
		return
	}
	defer closeTransport()

	registry := eventsource.NewRegistry(transport, log)
	defer registry.Close()

	reducer := service.NewReducer(conf.Tracking.ETAGraceWindow, nil)
	tracker, err := service.NewTracker(client, registry, reducer,
		metrics.NewTracking(prometheus.DefaultRegisterer), log.Named("Tracker"))
	if err != nil {
		log.Error("tracker creating error", zap.Error(err))
		return
	}
	defer tracker.CloseAll()

	updates := make(chan domain.Order, updateBuffer)
	handle, err := tracker.Open(ctx, conf.Tracking.OrderID, func(order domain.Order) {
		select {
		case updates <- order:
		default:
		}
	})
	if err != nil {
		log.Error("tracking could not start", zap.String("order", conf.Tracking.OrderID), zap.Error(err))
		return
	}
	defer handle.Detach()

	track(ctx, handle, updates, conf.Tracking.CancelAfter, log)
}

func newTransport(conf *config.Config, client *orderapi.Client, log *zap.Logger) (eventsource.Transport, func(), error) {
	codec := wire.NewCodec(nil)
	switch conf.Tracking.Transport {
	case config.TransportSSE:
		return eventsource.NewSSE(conf.Backend.HostString, client.Token(), codec, conf.Tracking.ReconnectDelay, log), func() {}, nil
	case config.TransportAMQP:
		conn, open, err := eventsource.DialChannels(conf.AMQP.URL)
		if err != nil {
			return nil, nil, err
		}
		return eventsource.NewAMQP(open, conf.AMQP.Exchange, codec, log), func() { _ = conn.Close() }, nil
	case config.TransportSimulator:
		return eventsource.NewSimulator(conf.Simulator.Interval, conf.Simulator.LocationPings, client.FetchOrder, log), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown tracking transport %q", conf.Tracking.Transport)
}

// track logs every update until the order reaches a terminal status or ctx ends.
func track(ctx context.Context, handle *service.Handle, updates <-chan domain.Order, cancelAfter time.Duration, log *zap.Logger) {
	report(log, handle.Order(), handle.Connected())
	if handle.Order().Status.IsTerminal() {
		return
	}

	var cancelTimer <-chan time.Time
	if cancelAfter > 0 {
		t := time.NewTimer(cancelAfter)
		defer t.Stop()
		cancelTimer = t.C
	}
	poll := time.NewTicker(time.Second)
	defer poll.Stop()

	connected := handle.Connected()
	for {
		select {
		case <-ctx.Done():
			return
		case order := <-updates:
			report(log, order, handle.Connected())
		case <-cancelTimer:
			cancelTimer = nil
			err := handle.Cancel(ctx)
			switch {
			case err == nil:
				log.Info("order cancelled")
			case errors.Is(err, domain.ErrNotCancellable):
				log.Warn("too late to cancel")
			default:
				log.Error("cancel failed", zap.Error(err))
			}
		case <-poll.C:
			if c := handle.Connected(); c != connected {
				connected = c
				log.Info("connectivity changed", zap.Bool("connected", c))
			}
		}

		if handle.Closed() && len(updates) == 0 {
			log.Info("tracking finished", zap.String("status", string(handle.Order().Status)))
			return
		}
	}
}

func report(log *zap.Logger, order domain.Order, connected bool) {
	view := service.Present(order, time.Now())
	fields := []zap.Field{
		zap.String("order", view.OrderNumber),
		zap.String("status", view.StatusLabel),
		zap.String("eta", view.ETALabel),
		zap.Bool("connected", connected),
		zap.Bool("can_cancel", view.CanCancel),
	}
	if view.DistanceLabel != "" {
		fields = append(fields, zap.String("distance", view.DistanceLabel))
	}
	if view.Courier != nil {
		fields = append(fields,
			zap.String("courier", view.Courier.Name),
			zap.Float64("lat", view.Courier.Location.Latitude),
			zap.Float64("lng", view.Courier.Location.Longitude))
	}
	for _, stage := range view.Stages {
		if stage.IsCurrent {
			fields = append(fields, zap.String("stage", stage.Description))
		}
	}
	log.Info("tracking update", fields...)
}
