package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/cart"
	shophttp "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/internal/notify"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
	"github.com/fjod/go_shop/pkg/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	store := cart.NewRedisStore(redisClient)
	catalog := service.NewCatalogService(repo)
	coupons := service.NewCouponResolver(repo, logger)
	orders := service.NewOrderService(repo, logger)
	gateway := payment.NewGateway(cfg.StripeSecretKey, cfg.Currency, cfg.GatewayTimeout)

	successURL := cfg.BaseURL + "/payment/completed"
	cancelURL := cfg.BaseURL + "/payment/canceled"

	cartHandler := shophttp.NewCartHandler(store, catalog, coupons, cfg.RequestTimeout, logger)
	orderHandler := shophttp.NewOrderHandler(store, catalog, coupons, orders, cfg.RequestTimeout, logger)
	paymentHandler := shophttp.NewPaymentHandler(orders, gateway, successURL, cancelURL, cfg.RequestTimeout, logger)
	webhookHandler := shophttp.NewWebhookHandler(cfg.StripeWebhookSecret, orders, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(shophttp.SessionMiddleware)
		r.Get("/cart", cartHandler.GetCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Delete("/cart/items/{productID}", cartHandler.RemoveItem)
		r.Post("/cart/coupon", cartHandler.ApplyCoupon)
		r.Post("/orders", orderHandler.CreateOrder)
		r.Post("/orders/{orderID}/payment-session", paymentHandler.CreatePaymentSession)
	})

	// the gateway authenticates with its signature header, not a session
	r.Post("/webhooks/stripe", webhookHandler.Handle)

	// landing pages for the gateway redirect; the real order state arrives
	// through the webhook, these only acknowledge the customer
	r.Get("/payment/completed", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("Your payment was successful. A confirmation email is on its way.")) //nolint:errcheck
	})
	r.Get("/payment/canceled", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("Your payment was canceled. Your order is still awaiting payment.")) //nolint:errcheck
	})

	var wg sync.WaitGroup
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	poller := notify.NewOutboxPoller(repo, logger, cfg.Brokers()...)
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: otelhttp.NewHandler(r, "shop-server"),
	}

	go func() {
		logger.Info("shop server listening", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down shop server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	pollerCancel()
	if err := poller.Close(); err != nil {
		logger.Error("error closing outbox poller", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("outbox poller stopped cleanly")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out waiting for outbox poller")
	}
}
