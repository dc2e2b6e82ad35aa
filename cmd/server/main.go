package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/calebmoreno/storefront/internal/config"
	"github.com/calebmoreno/storefront/internal/coupon"
	"github.com/calebmoreno/storefront/internal/handlers"
	"github.com/calebmoreno/storefront/internal/middleware"
	"github.com/calebmoreno/storefront/internal/models"
	"github.com/calebmoreno/storefront/internal/notify"
	"github.com/calebmoreno/storefront/internal/payment"
	"github.com/calebmoreno/storefront/internal/repository"
	"github.com/calebmoreno/storefront/internal/service"
	"github.com/calebmoreno/storefront/internal/webhook"
	"github.com/calebmoreno/storefront/pkg/logger"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting storefront checkout server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"order_store", cfg.Store.Backend,
		"log_level", cfg.LogLevel,
	)

	// Catalog and coupon registry
	productRepo := repository.NewInMemoryProductRepository()
	couponRegistry := coupon.NewInMemoryRegistry(seedCoupons())
	couponService := coupon.NewService(couponRegistry)

	// Order store
	orderStore, dbClose, err := newOrderStore(cfg.Store)
	if err != nil {
		log.Error("failed to initialize order store", "error", err)
		os.Exit(1)
	}
	if dbClose != nil {
		defer dbClose()
	}

	// Payment provider client
	gateway := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.AccessToken)

	// Order event notifier
	var notifier notify.Notifier = notify.NoopNotifier{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, log)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Info("kafka notifier enabled", "topic", cfg.Kafka.OrderTopic)
	}

	// Services
	productService := service.NewProductService(productRepo)
	checkoutService := service.NewCheckoutService(
		productRepo,
		couponService,
		gateway,
		orderStore,
		notifier,
		service.RedirectURLs{
			Success:         cfg.Payment.SuccessURL,
			Failure:         cfg.Payment.FailureURL,
			Pending:         cfg.Payment.PendingURL,
			NotificationURL: cfg.Payment.NotificationURL,
		},
		log,
	)
	reconciler := webhook.NewReconciler(gateway, productRepo, couponService, orderStore, notifier, log)

	// Handlers
	healthHandler := handlers.NewHealthHandler(log)
	productHandler := handlers.NewProductHandler(productService, log)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, log)
	orderHandler := handlers.NewOrderHandler(orderStore, log)
	webhookHandler := handlers.NewWebhookHandler(reconciler, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health and metrics
	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	// Payment provider webhook
	r.Post("/webhooks/payment", webhookHandler.HandlePayment)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Product endpoints
		r.Get("/product", productHandler.ListProducts)
		r.Get("/product/{productId}", productHandler.GetProduct)

		// Checkout endpoints
		r.Post("/checkout", checkoutHandler.CheckoutOnline)
		r.Post("/orders/cash", checkoutHandler.CheckoutCash)

		// Admin order endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth))
			r.Get("/orders", orderHandler.ListOrders)
			r.Get("/orders/{orderId}", orderHandler.GetOrder)
			r.Patch("/orders/{orderId}/status", orderHandler.UpdateStatus)
		})
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// newOrderStore builds the configured persistence backend. The returned
// closer is nil for the in-memory store.
func newOrderStore(cfg config.StoreConfig) (repository.OrderStore, func() error, error) {
	if cfg.Backend != "postgres" {
		return repository.NewInMemoryOrderStore(), nil, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	store := repository.NewPostgresOrderStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db.Close, nil
}

// seedCoupons is demo data until coupons get an admin surface.
func seedCoupons() []models.Coupon {
	expiry := time.Now().AddDate(1, 0, 0)
	return []models.Coupon{
		{Code: "WELCOME10", Type: models.CouponPercentage, Value: decimal.NewFromInt(10), MaxUses: 1000, ExpiresAt: expiry},
		{Code: "TAKEFIVE", Type: models.CouponFixed, Value: decimal.NewFromInt(5), MaxUses: 500, ExpiresAt: expiry},
		{Code: "HALFPIZZA", Type: models.CouponPercentage, Value: decimal.NewFromInt(50), MaxUses: 50, ExpiresAt: expiry},
	}
}
