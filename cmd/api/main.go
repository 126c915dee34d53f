package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/session"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		return err
	}

	policy, err := pricing.NewPolicy(cfg.Pricing)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	productRepo := product.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	productService, err := product.NewService(productRepo, policy)
	if err != nil {
		return err
	}
	if cfg.App.IsDev() && cfg.FeatureFlags.SeedCatalog {
		inserted, err := productService.Seed(ctx)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "inserted", inserted), "catalog seed checked")
	}

	cartService, err := cart.NewService(cartRepo, productRepo, policy)
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		return err
	}

	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return err
		}
	}

	gateway, err := newGateway(cfg, stripeClient, logg)
	if err != nil {
		return err
	}

	locker, err := checkout.NewRedisLocker(redisClient, cfg.Checkout.LockTTL, cfg.Checkout.LockWait, cfg.Checkout.LockPoll)
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.Dependencies{
		Tx:             dbClient,
		Cart:           cartRepo,
		Products:       productRepo,
		Orders:         ordersRepo,
		Gateway:        gateway,
		Locker:         locker,
		Numbers:        checkout.NewOrderNumbers(cfg.Checkout.OrderNumberPrefix),
		Policy:         policy,
		Metrics:        checkoutMetrics,
		Logger:         logg,
		PublishableKey: stripeClient.PublishableKey(),
		ReserveStock:   cfg.FeatureFlags.ReserveStock,
		CommitTimeout:  cfg.Checkout.CommitTimeout,
	})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(ordersRepo, logg)
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewDeliveryGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"payments_mode": cfg.Payments.Mode,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			productService,
			cartService,
			checkoutService,
			ordersService,
			stripeClient,
			webhookService,
			webhookGuard,
			registry,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newGateway(cfg *config.Config, stripeClient *stripe.Client, logg *logger.Logger) (payments.Gateway, error) {
	if cfg.Payments.IsManual() {
		logg.Warn(context.Background(), "payments running in manual mode; orders are recorded as pending")
		return payments.NewManualGateway(), nil
	}
	return payments.NewStripeGateway(payments.NewIntentCreator(stripeClient), payments.StripeOptions{
		Timeout:    cfg.Checkout.GatewayTimeout,
		MaxRetries: cfg.Checkout.GatewayMaxRetries,
		Backoff:    cfg.Checkout.GatewayBackoff,
	}, logg)
}
