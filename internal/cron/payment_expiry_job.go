package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/phytopro-backend/internal/checkout"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
)

const paymentExpiryBatch = 200

type pendingPaymentReader interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentTransaction, error)
}

type paymentReconciler interface {
	ReconcilePayment(ctx context.Context, sessionID string, source checkout.Source) (checkout.Reconciliation, error)
}

type PaymentExpiryJobParams struct {
	Logger   *logger.Logger
	Payments pendingPaymentReader
	Checkout paymentReconciler
	TTL      time.Duration
}

// NewPaymentExpiryJob builds the job that settles checkout sessions left
// pending longer than TTL. Each session is checked against the gateway first:
// paid sessions are confirmed, open or expired ones cancel their orders.
func NewPaymentExpiryJob(params PaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments reader required")
	}
	if params.Checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("payment expiry ttl must be positive")
	}
	return &paymentExpiryJob{
		logg:     params.Logger,
		payments: params.Payments,
		checkout: params.Checkout,
		ttl:      params.TTL,
		now:      time.Now,
	}, nil
}

type paymentExpiryJob struct {
	logg     *logger.Logger
	payments pendingPaymentReader
	checkout paymentReconciler
	ttl      time.Duration
	now      func() time.Time
}

func (j *paymentExpiryJob) Name() string { return "payment-expiry" }

func (j *paymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	rows, err := j.payments.ListPendingBefore(ctx, cutoff, paymentExpiryBatch)
	if err != nil {
		return fmt.Errorf("list stale payments: %w", err)
	}

	var errs error
	confirmed, expired := 0, 0
	for _, txn := range rows {
		outcome, err := j.checkout.ReconcilePayment(ctx, txn.SessionID, checkout.SourceCron)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reconcile %s: %w", txn.SessionID, err))
			continue
		}
		switch outcome {
		case checkout.ReconcileConfirmed:
			confirmed++
		case checkout.ReconcileExpired:
			expired++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(rows),
		"confirmed":  confirmed,
		"expired":    expired,
	})
	j.logg.Info(logCtx, "payment expiry sweep complete")
	return errs
}
