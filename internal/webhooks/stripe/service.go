package stripewebhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/phytopro-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
	"github.com/angelmondragon/phytopro-backend/pkg/metrics"
	"github.com/angelmondragon/phytopro-backend/pkg/stripe"
)

const (
	eventSessionCompleted    = "checkout.session.completed"
	eventAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
	eventSessionExpired      = "checkout.session.expired"
)

type webhookParser interface {
	ParseWebhook(payload []byte, signature string) (*stripe.WebhookNotification, error)
}

type paymentHandler interface {
	ConfirmPayment(ctx context.Context, sessionID, gatewayPaymentStatus string, source checkout.Source) (bool, error)
	ExpirePayment(ctx context.Context, sessionID string, source checkout.Source) (bool, error)
}

type ServiceParams struct {
	Parser   webhookParser
	Payments paymentHandler
	Guard    *IdempotencyGuard
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
}

// Service verifies Stripe deliveries and routes checkout events to the
// payment confirmation flow.
type Service struct {
	parser   webhookParser
	payments paymentHandler
	guard    *IdempotencyGuard
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Parser == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook parser required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment handler required")
	}
	return &Service{
		parser:   params.Parser,
		payments: params.Payments,
		guard:    params.Guard,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Handle processes one delivery. Errors are returned for logging only; the
// HTTP layer acknowledges every delivery.
func (s *Service) Handle(ctx context.Context, payload []byte, signature string) error {
	note, err := s.parser.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.IncWebhook("unknown", "invalid_signature")
		if errors.Is(err, stripe.ErrInvalidSignature) {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidSignature, err, "stripe signature verification failed")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode stripe event")
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"stripe_event_id":   note.EventID,
			"stripe_event_type": note.EventType,
		})
	}

	if !handled(note.EventType) || note.SessionID == "" {
		s.metrics.IncWebhook(note.EventType, "ignored")
		return nil
	}

	if s.guard != nil && note.EventID != "" {
		seen, err := s.guard.Seen(ctx, note.EventID)
		if err != nil {
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("webhook idempotency guard unavailable: %v", err))
			}
		} else if seen {
			s.metrics.IncWebhook(note.EventType, "duplicate")
			return nil
		}
	}

	if err := s.dispatch(ctx, note); err != nil {
		s.metrics.IncWebhook(note.EventType, "failed")
		if s.guard != nil && note.EventID != "" {
			if ferr := s.guard.Forget(ctx, note.EventID); ferr != nil && s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("release webhook idempotency key: %v", ferr))
			}
		}
		return err
	}
	s.metrics.IncWebhook(note.EventType, "processed")
	return nil
}

func (s *Service) dispatch(ctx context.Context, note *stripe.WebhookNotification) error {
	switch note.EventType {
	case eventSessionExpired:
		_, err := s.payments.ExpirePayment(ctx, note.SessionID, checkout.SourceWebhook)
		return err
	default:
		_, err := s.payments.ConfirmPayment(ctx, note.SessionID, note.PaymentStatus, checkout.SourceWebhook)
		return err
	}
}

func handled(eventType string) bool {
	switch eventType {
	case eventSessionCompleted, eventAsyncPaymentSuccess, eventSessionExpired:
		return true
	default:
		return false
	}
}
