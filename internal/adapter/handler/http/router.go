package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/metrics"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Router struct {
	*gin.Engine
	logger *zap.Logger
}

func NewRouter(
	conf *config.App,
	tokenService port.TokenService,
	authHandler *AuthHandler,
	orderHandler *OrderHandler,
	streamHandler *StreamHandler,
	httpMetrics *metrics.HTTP,
	gatherer prometheus.Gatherer,
	logger *zap.Logger) (*Router, error) {

	if conf.Mode == config.AppModeProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	if httpMetrics != nil {
		router.Use(httpMetrics.Middleware())
	}

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	h := NewHandler(logger)
	api := router.Group("/api")
	{
		api.POST("/auth/token", authHandler.IssueToken)

		orders := api.Group("/orders")
		{
			orders.Use(authCheck(h, tokenService))
			orders.POST("", orderHandler.PlaceOrder)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("/:id/cancel", orderHandler.CancelOrder)
			orders.GET("/:id/events", streamHandler.Events)
		}
	}

	return &Router{Engine: router, logger: logger}, nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (r *Router) Serve(ctx context.Context, listenAddr string) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		// open event streams end with ctx instead of holding up Shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	r.logger.Info("listening", zap.String("address", listenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
