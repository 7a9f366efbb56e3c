package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/phytopro-backend/internal/cart"
	"github.com/angelmondragon/phytopro-backend/internal/catalog"
	"github.com/angelmondragon/phytopro-backend/internal/checkout"
	"github.com/angelmondragon/phytopro-backend/internal/cron"
	"github.com/angelmondragon/phytopro-backend/internal/orders"
	"github.com/angelmondragon/phytopro-backend/internal/payments"
	"github.com/angelmondragon/phytopro-backend/internal/sessions"
	"github.com/angelmondragon/phytopro-backend/pkg/config"
	"github.com/angelmondragon/phytopro-backend/pkg/db"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
	"github.com/angelmondragon/phytopro-backend/pkg/metrics"
	"github.com/angelmondragon/phytopro-backend/pkg/migrate"
	"github.com/angelmondragon/phytopro-backend/pkg/outbox"
	"github.com/angelmondragon/phytopro-backend/pkg/redis"
	"github.com/angelmondragon/phytopro-backend/pkg/stripe"
)

const lockName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run one cycle and exit")
	only := flag.String("jobs", "", "comma separated job names to run with -once (default all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if err := run(ctx, cfg, logg, *once, splitNames(*only)); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool, names []string) error {
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

	conn := dbClient.DB()
	paymentsRepo := payments.NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:       dbClient,
		Cart:     cart.NewRepository(conn),
		Catalog:  catalog.NewRepository(conn),
		Orders:   orders.NewRepository(conn),
		Payments: paymentsRepo,
		Gateway:  stripeClient,
		Outbox:   outbox.NewService(outboxRepo, logg),
		Shipping: cfg.Shipping,
		Metrics:  metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	expiryJob, err := cron.NewPaymentExpiryJob(cron.PaymentExpiryJobParams{
		Logger:   logg,
		Payments: paymentsRepo,
		Checkout: checkoutSvc,
		TTL:      cfg.Checkout.PaymentExpiry,
	})
	if err != nil {
		return err
	}
	sessionJob, err := cron.NewSessionCleanupJob(logg, sessions.NewStore(conn))
	if err != nil {
		return err
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, lockName, cfg.Cron.LockTTL)
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiryJob, sessionJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	if once {
		logg.Info(ctx, "running cron jobs once")
		return service.RunOnce(ctx, names...)
	}
	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

func splitNames(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
