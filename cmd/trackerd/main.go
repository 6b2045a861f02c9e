package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/auth"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/eventsource"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/handler/http"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/logger"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/metrics"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/storage"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/storage/repository"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/wire"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/service"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, conf.Database, log)
	if err != nil {
		log.Error("order repo creating error", zap.Error(err))
		return
	}
	defer closeRepo()

	tokenService, err := auth.New(conf.Auth)
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	codec := wire.NewCodec(validator.New())

	var broker port.EventPublisher
	if conf.AMQP.URL != "" {
		conn, open, err := eventsource.DialChannels(conf.AMQP.URL)
		if err != nil {
			log.Error("broker connection error", zap.Error(err))
			return
		}
		defer func() { _ = conn.Close() }()

		ch, err := open()
		if err != nil {
			log.Error("broker channel error", zap.Error(err))
			return
		}
		publisher, err := eventsource.NewPublisher(ch, conf.AMQP.Exchange, codec)
		if err != nil {
			log.Error("publisher creating error", zap.Error(err))
			return
		}
		defer func() { _ = publisher.Close() }()
		broker = publisher
		log.Info("publishing tracking events", zap.String("exchange", conf.AMQP.Exchange))
	}

	simulator := eventsource.NewSimulator(conf.Simulator.Interval, conf.Simulator.LocationPings, repo.ReadOrder, log)
	registry := eventsource.NewRegistry(simulator, log)
	defer registry.Close()

	reducer := service.NewReducer(conf.Tracking.ETAGraceWindow, nil)
	backend, err := service.NewBackend(repo, registry, reducer, broker, nil, log.Named("Backend"))
	if err != nil {
		log.Error("backend creating error", zap.Error(err))
		return
	}
	defer backend.Close()

	resumed, err := backend.Resume(ctx)
	if err != nil {
		log.Error("resuming orders error", zap.Error(err))
		return
	}
	log.Info("active orders resumed", zap.Int("count", resumed))

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTP(promRegistry)

	authHandler, err := http.NewAuthHandler(tokenService, log.Named("Auth handler"))
	if err != nil {
		log.Error("auth handler creating error", zap.Error(err))
		return
	}
	orderHandler, err := http.NewOrderHandler(backend, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	streamHandler, err := http.NewStreamHandler(backend, registry, codec, httpMetrics, 0, log.Named("Stream handler"))
	if err != nil {
		log.Error("stream handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.App, tokenService, authHandler, orderHandler, streamHandler,
		httpMetrics, promRegistry, log.Named("Router"))
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(ctx, conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
	log.Info("stopped")
}

func openRepository(ctx context.Context, conf *config.Database, log *zap.Logger) (port.OrderRepository, func(), error) {
	if conf.DSN == "" {
		log.Info("no database configured, orders are kept in memory")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := storage.NewDBStorage(ctx, conf, log)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database migration error: %w", err)
	}
	repo, err := repository.NewRepository(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, db.Close, nil
}
