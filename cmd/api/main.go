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

	"github.com/angelmondragon/phytopro-backend/api/controllers"
	"github.com/angelmondragon/phytopro-backend/api/routes"
	"github.com/angelmondragon/phytopro-backend/internal/auth"
	"github.com/angelmondragon/phytopro-backend/internal/cart"
	"github.com/angelmondragon/phytopro-backend/internal/catalog"
	"github.com/angelmondragon/phytopro-backend/internal/checkout"
	"github.com/angelmondragon/phytopro-backend/internal/orders"
	"github.com/angelmondragon/phytopro-backend/internal/payments"
	"github.com/angelmondragon/phytopro-backend/internal/reviews"
	"github.com/angelmondragon/phytopro-backend/internal/sessions"
	"github.com/angelmondragon/phytopro-backend/internal/stats"
	"github.com/angelmondragon/phytopro-backend/internal/users"
	stripewebhook "github.com/angelmondragon/phytopro-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/phytopro-backend/pkg/config"
	"github.com/angelmondragon/phytopro-backend/pkg/db"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
	"github.com/angelmondragon/phytopro-backend/pkg/metrics"
	"github.com/angelmondragon/phytopro-backend/pkg/migrate"
	"github.com/angelmondragon/phytopro-backend/pkg/outbox"
	"github.com/angelmondragon/phytopro-backend/pkg/redis"
	"github.com/angelmondragon/phytopro-backend/pkg/stripe"
)

const (
	webhookGuardScope = "stripe_webhook"
	shutdownTimeout   = 15 * time.Second
)

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
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

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	provider, err := auth.NewProviderClient(cfg.OAuth)
	if err != nil {
		return err
	}

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		Sessions:       sessions.NewStore(conn),
		Provider:       provider,
		JWTConfig:      cfg.JWT,
		SessionConfig:  cfg.Session,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return err
	}
	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		return err
	}
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:       dbClient,
		Cart:     cartRepo,
		Catalog:  catalogRepo,
		Orders:   ordersRepo,
		Payments: payments.NewRepository(conn),
		Gateway:  stripeClient,
		Outbox:   outboxSvc,
		Shipping: cfg.Shipping,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, outboxSvc, checkoutSvc)
	if err != nil {
		return err
	}
	reviewsSvc, err := reviews.NewService(dbClient, reviews.NewRepository(conn), catalogRepo)
	if err != nil {
		return err
	}
	statsSvc, err := stats.NewService(stats.NewRepository(conn))
	if err != nil {
		return err
	}

	guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, webhookGuardScope)
	if err != nil {
		return err
	}
	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Parser:   stripeClient,
		Payments: checkoutSvc,
		Guard:    guard,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Gatherer:         prometheus.DefaultGatherer,
		RateLimiter:      redisClient,
		IdempotencyStore: redisClient,
		Auth:             authSvc,
		Catalog:          catalogSvc,
		Cart:             cartSvc,
		Checkout:         checkoutSvc,
		Orders:           ordersSvc,
		Reviews:          reviewsSvc,
		Stats:            statsSvc,
		Webhook:          webhookSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
