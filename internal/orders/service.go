package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/outbox"
	"github.com/angelmondragon/phytopro-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order reads and admin fulfilment transitions.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, params pagination.Params, status *enums.OrderStatus) (*OrderList, error)
	ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, actor uuid.UUID) (*OrderDTO, error)
}

// paymentReleaser closes the checkout session of a pending order so it can no
// longer be paid once the order is cancelled.
type paymentReleaser interface {
	ReleasePendingPayment(ctx context.Context, sessionID string) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	outbox   outbox.Emitter
	payments paymentReleaser
}

// NewService builds the order service with the required dependencies. A nil
// releaser cancels pending orders without touching their payment session.
func NewService(r *Repository, tx txRunner, emitter outbox.Emitter, payments paymentReleaser) (Service, error) {
	if r == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: r, tx: tx, outbox: emitter, payments: payments}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return fromModels(rows), nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOwned(ctx, userID, orderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, status *enums.OrderStatus) (*OrderList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListPage(ctx, params, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &OrderList{}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	list.Orders = fromModels(rows)
	return list, nil
}

// ChangeStatus applies an admin transition. Moving to paid is reserved for
// payment confirmation.
func (s *service) ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, actor uuid.UUID) (*OrderDTO, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}
	if to == enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid status is set by payment confirmation")
	}
	if to == enums.OrderStatusCancelled {
		if err := s.releasePayment(ctx, orderID); err != nil {
			return nil, err
		}
	}

	var result OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		order, err := orders.FindByID(ctx, orderID)
		if err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		from := order.Status
		if !from.CanTransitionTo(to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to))
		}
		changed, err := orders.TransitionStatus(ctx, order.ID, from, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		if err := s.outbox.Emit(ctx, tx, statusEvent(order.ID, order.UserID, from, to, actor)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit status event")
		}

		order.Status = to
		result = FromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// releasePayment runs outside the status transaction since it calls the
// payment gateway.
func (s *service) releasePayment(ctx context.Context, orderID uuid.UUID) error {
	if s.payments == nil {
		return nil
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.Status != enums.OrderStatusPending || order.PaymentSessionID == nil {
		return nil
	}
	return s.payments.ReleasePendingPayment(ctx, *order.PaymentSessionID)
}

func statusEvent(orderID, userID uuid.UUID, from, to enums.OrderStatus, actor uuid.UUID) outbox.DomainEvent {
	event := outbox.DomainEvent{
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &outbox.ActorRef{UserID: &actor, Source: "admin"},
	}
	if to == enums.OrderStatusCancelled {
		event.EventType = enums.EventOrderCancelled
		event.Data = outbox.OrderCancelledEvent{OrderID: orderID, UserID: userID, Reason: "admin"}
		return event
	}
	event.EventType = enums.EventOrderStatusChanged
	event.Data = outbox.OrderStatusChangedEvent{OrderID: orderID, From: from.String(), To: to.String()}
	return event
}
