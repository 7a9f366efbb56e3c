package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/cart"
	"github.com/angelmondragon/phytopro-backend/internal/catalog"
	"github.com/angelmondragon/phytopro-backend/internal/checkout/helpers"
	"github.com/angelmondragon/phytopro-backend/internal/orders"
	"github.com/angelmondragon/phytopro-backend/internal/payments"
	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/config"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
	"github.com/angelmondragon/phytopro-backend/pkg/metrics"
	"github.com/angelmondragon/phytopro-backend/pkg/outbox"
	"github.com/angelmondragon/phytopro-backend/pkg/stripe"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

// Source labels which path observed a gateway status.
type Source string

const (
	SourcePoll    Source = "poll"
	SourceWebhook Source = "webhook"
	SourceCron    Source = "cron"
	SourceAdmin   Source = "admin"
)

const (
	gatewayStatusPaid    = "paid"
	gatewayStatusOpen    = "open"
	gatewayStatusExpired = "expired"
)

// Reconciliation reports what ReconcilePayment did with a pending session.
type Reconciliation string

const (
	ReconcileConfirmed Reconciliation = "confirmed"
	ReconcileExpired   Reconciliation = "expired"
	ReconcileUntouched Reconciliation = "untouched"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	CreateCheckoutSession(ctx context.Context, req stripe.CheckoutSessionRequest) (*stripe.CheckoutSession, error)
	GetCheckoutStatus(ctx context.Context, sessionID string) (*stripe.CheckoutStatus, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	Currency() string
}

// Service orchestrates order creation and payment confirmation.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error)
	PollStatus(ctx context.Context, userID uuid.UUID, sessionID string) (*stripe.CheckoutStatus, error)
	ConfirmPayment(ctx context.Context, sessionID, gatewayPaymentStatus string, source Source) (bool, error)
	ExpirePayment(ctx context.Context, sessionID string, source Source) (bool, error)
	ReconcilePayment(ctx context.Context, sessionID string, source Source) (Reconciliation, error)
	ReleasePendingPayment(ctx context.Context, sessionID string) error
	Quote(subtotalCents int) helpers.ShippingQuote
}

// ServiceParams groups the checkout collaborators.
type ServiceParams struct {
	Tx       txRunner
	Cart     *cart.Repository
	Catalog  *catalog.Repository
	Orders   *orders.Repository
	Payments *payments.Repository
	Gateway  gateway
	Outbox   outbox.Emitter
	Shipping config.ShippingConfig
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	cart     *cart.Repository
	catalog  *catalog.Repository
	orders   *orders.Repository
	payments *payments.Repository
	gateway  gateway
	outbox   outbox.Emitter
	shipping config.ShippingConfig
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case p.Cart == nil:
		return nil, fmt.Errorf("cart repository required")
	case p.Catalog == nil:
		return nil, fmt.Errorf("catalog repository required")
	case p.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case p.Payments == nil:
		return nil, fmt.Errorf("payments repository required")
	case p.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case p.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:       p.Tx,
		cart:     p.Cart,
		catalog:  p.Catalog,
		orders:   p.Orders,
		payments: p.Payments,
		gateway:  p.Gateway,
		outbox:   p.Outbox,
		shipping: p.Shipping,
		metrics:  p.Metrics,
		logg:     p.Logger,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error) {
	address := input.ShippingAddress.Normalize()
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	successURL, cancelURL, err := helpers.RedirectURLs(input.OriginURL)
	if err != nil {
		return nil, err
	}

	order, totals, err := s.placeOrder(ctx, userID, address)
	if err != nil {
		s.metrics.IncOrder("rejected")
		return nil, err
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
	}

	metadata := map[string]string{
		"order_id": order.ID.String(),
		"user_id":  userID.String(),
	}
	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionRequest{
		AmountCents: totals.TotalCents,
		Currency:    s.gateway.Currency(),
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
		Description: fmt.Sprintf("Commande %s", order.ID.String()[:8]),
		Metadata:    metadata,
	})
	if err != nil {
		s.metrics.IncOrder("gateway_error")
		if s.logg != nil {
			s.logg.Error(ctx, "checkout session creation failed; order left pending", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "create checkout session")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn := &models.PaymentTransaction{
			SessionID:     session.SessionID,
			UserID:        userID,
			OrderID:       order.ID,
			AmountCents:   totals.TotalCents,
			Currency:      s.gateway.Currency(),
			Status:        enums.PaymentTransactionPending,
			PaymentStatus: enums.PaymentStatusUnpaid,
			Metadata:      metadata,
		}
		if err := s.payments.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment transaction")
		}
		attached, err := s.orders.WithTx(tx).AttachPaymentSession(ctx, order.ID, session.SessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link payment session")
		}
		if !attached {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already linked to a payment session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrder("created")
	if s.logg != nil {
		s.logg.Info(s.logg.WithPaymentSession(ctx, session.SessionID), "checkout session created")
	}
	return &CreateOrderResult{
		CheckoutURL: session.URL,
		SessionID:   session.SessionID,
		OrderID:     order.ID,
	}, nil
}

// placeOrder validates the cart against the live catalog and persists the
// pending order together with its order_created event.
func (s *service) placeOrder(ctx context.Context, userID uuid.UUID, address types.ShippingAddress) (*models.Order, helpers.Totals, error) {
	items, err := s.cart.ListByUser(ctx, userID)
	if err != nil {
		return nil, helpers.Totals{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(items) == 0 {
		return nil, helpers.Totals{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, helpers.Totals{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	lines, err := helpers.SnapshotLines(items, products)
	if err != nil {
		return nil, helpers.Totals{}, err
	}
	if len(lines) == 0 {
		return nil, helpers.Totals{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "no cart item is still available")
	}
	totals := helpers.ComputeTotals(lines, s.shipping)

	order := &models.Order{
		UserID:            userID,
		SubtotalCents:     totals.SubtotalCents,
		ShippingCostCents: totals.ShippingCents,
		TotalCents:        totals.TotalCents,
		ShippingAddress:   address,
		Status:            enums.OrderStatusPending,
		Items:             make([]models.OrderItem, 0, len(lines)),
	}
	for i, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			Position:       i,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: &userID, Source: "checkout"},
			Data: outbox.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        userID,
				SubtotalCents: totals.SubtotalCents,
				ShippingCents: totals.ShippingCents,
				TotalCents:    totals.TotalCents,
				ItemCount:     totals.ItemCount,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
		}
		return nil
	})
	if err != nil {
		return nil, helpers.Totals{}, err
	}
	return order, totals, nil
}

func (s *service) PollStatus(ctx context.Context, userID uuid.UUID, sessionID string) (*stripe.CheckoutStatus, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	txn, err := s.payments.FindBySession(ctx, sessionID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment transaction")
	}
	if txn.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
	}

	status, err := s.gateway.GetCheckoutStatus(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "fetch checkout status")
	}

	switch {
	case status.PaymentStatus == gatewayStatusPaid:
		if _, err := s.ConfirmPayment(ctx, sessionID, status.PaymentStatus, SourcePoll); err != nil {
			return nil, err
		}
	case status.Status == gatewayStatusExpired:
		if _, err := s.ExpirePayment(ctx, sessionID, SourcePoll); err != nil {
			return nil, err
		}
	}
	return status, nil
}

// ConfirmPayment applies a paid gateway status exactly once per session. The
// conditional unpaid to paid update on the transaction gates every side effect;
// any later failure rolls the whole unit back. Money captured for an order that
// already left pending is kept on the transaction and flagged for refund.
func (s *service) ConfirmPayment(ctx context.Context, sessionID, gatewayPaymentStatus string, source Source) (bool, error) {
	if gatewayPaymentStatus != gatewayStatusPaid {
		return false, nil
	}
	if s.logg != nil {
		ctx = s.logg.WithPaymentSession(ctx, sessionID)
	}

	confirmed := false
	refund := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := s.payments.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		gated, err := paymentsRepo.MarkPaid(ctx, sessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark transaction paid")
		}
		if !gated {
			return nil
		}
		txn, err := paymentsRepo.FindBySession(ctx, sessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload payment transaction")
		}
		order, err := ordersRepo.FindByID(ctx, txn.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		moved, err := ordersRepo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
		}
		if !moved {
			refund = true
			return s.emitRefundRequired(ctx, tx, order, txn, source)
		}

		for _, item := range order.Items {
			if err := decrementStock(ctx, catalogRepo, item, s.logg); err != nil {
				return err
			}
		}

		if _, err := s.cart.WithTx(tx).Clear(ctx, order.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Source: string(source)},
			Data: outbox.OrderPaidEvent{
				OrderID:          order.ID,
				UserID:           order.UserID,
				PaymentSessionID: sessionID,
				TotalCents:       order.TotalCents,
				Source:           string(source),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order paid")
		}
		confirmed = true
		return nil
	})
	if err != nil {
		s.metrics.IncConfirmation(string(source), "failed")
		if s.logg != nil {
			s.logg.Error(ctx, "payment confirmation rolled back", err)
		}
		return false, err
	}

	if refund {
		s.metrics.IncConfirmation(string(source), "refund_required")
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("payment captured via %s for an order that is no longer pending; refund required", source))
		}
		return false, nil
	}
	if !confirmed {
		s.metrics.IncConfirmation(string(source), "skipped")
		return false, nil
	}
	s.metrics.IncConfirmation(string(source), "confirmed")
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("payment confirmed via %s", source))
	}
	return true, nil
}

func (s *service) emitRefundRequired(ctx context.Context, tx *gorm.DB, order *models.Order, txn *models.PaymentTransaction, source Source) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderRefundRequired,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{Source: string(source)},
		Data: outbox.OrderRefundRequiredEvent{
			OrderID:          order.ID,
			UserID:           order.UserID,
			PaymentSessionID: txn.SessionID,
			AmountCents:      txn.AmountCents,
			OrderStatus:      string(order.Status),
			Source:           string(source),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order refund required")
	}
	return nil
}

func decrementStock(ctx context.Context, products *catalog.Repository, item models.OrderItem, logg *logger.Logger) error {
	ok, err := products.DecrementStock(ctx, item.ProductID, item.Quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
	}
	if ok {
		return nil
	}
	product, err := products.FindByID(ctx, item.ProductID)
	if err != nil {
		if repo.IsNotFound(err) {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "product_id", item.ProductID.String()), "product removed before payment confirmation; stock not adjusted")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return pkgerrors.InsufficientStock(pkgerrors.StockDetails{
		ProductID:   product.ID.String(),
		ProductName: product.Name,
		Available:   product.Stock,
		Requested:   item.Quantity,
	})
}

// ExpirePayment marks a pending session expired and cancels its order if the
// order is still pending.
func (s *service) ExpirePayment(ctx context.Context, sessionID string, source Source) (bool, error) {
	expired := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := s.payments.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		ok, err := paymentsRepo.MarkExpired(ctx, sessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark transaction expired")
		}
		if !ok {
			return nil
		}
		expired = true

		txn, err := paymentsRepo.FindBySession(ctx, sessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload payment transaction")
		}
		cancelled, err := ordersRepo.TransitionStatus(ctx, txn.OrderID, enums.OrderStatusPending, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}
		if !cancelled {
			return nil
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   txn.OrderID,
			Actor:         &outbox.ActorRef{Source: string(source)},
			Data: outbox.OrderCancelledEvent{
				OrderID: txn.OrderID,
				UserID:  txn.UserID,
				Reason:  "payment_expired",
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order cancelled")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if expired && s.logg != nil {
		s.logg.Info(s.logg.WithPaymentSession(ctx, sessionID), fmt.Sprintf("payment session expired via %s", source))
	}
	return expired, nil
}

// ReconcilePayment settles a pending session from the gateway's own view of it.
// A paid session is confirmed. An open session is closed at the gateway before
// the local expiry so it cannot be paid afterwards. A complete but unpaid
// session is still settling and is left alone.
func (s *service) ReconcilePayment(ctx context.Context, sessionID string, source Source) (Reconciliation, error) {
	status, err := s.gateway.GetCheckoutStatus(ctx, sessionID)
	if err != nil {
		return ReconcileUntouched, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "fetch checkout status")
	}

	switch {
	case status.PaymentStatus == gatewayStatusPaid:
		confirmed, err := s.ConfirmPayment(ctx, sessionID, status.PaymentStatus, source)
		if err != nil {
			return ReconcileUntouched, err
		}
		if !confirmed {
			return ReconcileUntouched, nil
		}
		return ReconcileConfirmed, nil
	case status.Status == gatewayStatusOpen:
		if err := s.gateway.ExpireCheckoutSession(ctx, sessionID); err != nil {
			return ReconcileUntouched, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "expire checkout session")
		}
	case status.Status != gatewayStatusExpired:
		return ReconcileUntouched, nil
	}

	expired, err := s.ExpirePayment(ctx, sessionID, source)
	if err != nil {
		return ReconcileUntouched, err
	}
	if !expired {
		return ReconcileUntouched, nil
	}
	return ReconcileExpired, nil
}

// ReleasePendingPayment makes sure a session can no longer be paid before its
// order is cancelled by hand. The transaction itself stays pending until the
// expiry webhook or the payment expiry job records it.
func (s *service) ReleasePendingPayment(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	status, err := s.gateway.GetCheckoutStatus(ctx, sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "fetch checkout status")
	}

	switch {
	case status.PaymentStatus == gatewayStatusPaid:
		if _, err := s.ConfirmPayment(ctx, sessionID, status.PaymentStatus, SourceAdmin); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has been paid")
	case status.Status == gatewayStatusOpen:
		if err := s.gateway.ExpireCheckoutSession(ctx, sessionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "expire checkout session")
		}
		return nil
	case status.Status == gatewayStatusExpired:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is still processing")
	}
}

func (s *service) Quote(subtotalCents int) helpers.ShippingQuote {
	return helpers.Quote(subtotalCents, s.shipping)
}
