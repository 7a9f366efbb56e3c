package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/pkg/db/dbtest"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/outbox"
	"github.com/angelmondragon/phytopro-backend/pkg/pagination"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	return newTestServiceWithReleaser(t, nil)
}

func newTestServiceWithReleaser(t *testing.T, releaser paymentReleaser) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	svc, err := NewService(NewRepository(conn), client, emitter, releaser)
	require.NoError(t, err)
	return svc, conn
}

type stubReleaser struct {
	released []string
	errs     map[string]error
}

func (s *stubReleaser) ReleasePendingPayment(_ context.Context, sessionID string) error {
	s.released = append(s.released, sessionID)
	return s.errs[sessionID]
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.OrderStatus, createdAt time.Time) models.Order {
	t.Helper()
	order := models.Order{
		UserID:            userID,
		SubtotalCents:     2000,
		ShippingCostCents: 990,
		TotalCents:        2990,
		ShippingAddress:   types.ShippingAddress{FullName: "A", Address: "1 rue", City: "Lyon", PostalCode: "69000", Country: "France", Phone: "06"},
		Status:            status,
		Items: []models.OrderItem{
			{Position: 1, ProductID: uuid.New(), ProductName: "Second", Quantity: 1, UnitPriceCents: 500},
			{Position: 0, ProductID: uuid.New(), ProductName: "First", Quantity: 3, UnitPriceCents: 500},
		},
		CreatedAt: createdAt,
	}
	require.NoError(t, conn.Create(&order).Error)
	return order
}

func countEvents(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func TestListAndGetForUser(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	owner, other := uuid.New(), uuid.New()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	older := seedOrder(t, conn, owner, enums.OrderStatusPaid, base)
	newer := seedOrder(t, conn, owner, enums.OrderStatusPending, base.Add(time.Hour))
	seedOrder(t, conn, other, enums.OrderStatusPending, base)

	list, err := svc.ListForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, "First", list[0].Items[0].ProductName, "items keep line order")
	assert.Equal(t, "29.90", list[0].Total)

	got, err := svc.GetForUser(ctx, owner, older.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, got.Status)

	_, err = svc.GetForUser(ctx, other, older.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAdminListPaginates(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedOrder(t, conn, uuid.New(), enums.OrderStatusPaid, base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, conn, uuid.New(), enums.OrderStatusCancelled, base)

	first, err := svc.AdminList(ctx, pagination.Params{Limit: 2}, nil)
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)

	seen := map[uuid.UUID]bool{}
	page := first
	for {
		for _, o := range page.Orders {
			assert.False(t, seen[o.ID], "orders must not repeat across pages")
			seen[o.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		page, err = svc.AdminList(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor}, nil)
		require.NoError(t, err)
	}
	assert.Len(t, seen, 6)

	paid := enums.OrderStatusPaid
	filtered, err := svc.AdminList(ctx, pagination.Params{Limit: 50}, &paid)
	require.NoError(t, err)
	assert.Len(t, filtered.Orders, 5)

	_, err = svc.AdminList(ctx, pagination.Params{Cursor: "!!"}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestChangeStatusFollowsTransitionTable(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	admin := uuid.New()
	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPaid, time.Now().UTC())

	_, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusDelivered, admin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	shipped, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusShipped, admin)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, shipped.Status)

	delivered, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusDelivered, admin)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	assert.EqualValues(t, 2, countEvents(t, conn, enums.EventOrderStatusChanged))

	_, err = svc.ChangeStatus(ctx, order.ID, enums.OrderStatusCancelled, admin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "delivered is terminal")

	_, err = svc.ChangeStatus(ctx, uuid.New(), enums.OrderStatusShipped, admin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestChangeStatusCancelAndPaidGuard(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	pending := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, time.Now().UTC())

	_, err := svc.ChangeStatus(ctx, pending.ID, enums.OrderStatusPaid, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ChangeStatus(ctx, pending.ID, enums.OrderStatus("lost"), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	cancelled, err := svc.ChangeStatus(ctx, pending.ID, enums.OrderStatusCancelled, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.EqualValues(t, 1, countEvents(t, conn, enums.EventOrderCancelled))
}

func TestCancelPendingOrderReleasesPaymentSession(t *testing.T) {
	ctx := context.Background()
	releaser := &stubReleaser{errs: map[string]error{
		"cs_paid": pkgerrors.New(pkgerrors.CodeStateConflict, "order has been paid"),
	}}
	svc, conn := newTestServiceWithReleaser(t, releaser)
	r := NewRepository(conn)

	open := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	ok, err := r.AttachPaymentSession(ctx, open.ID, "cs_open")
	require.NoError(t, err)
	require.True(t, ok)
	cancelled, err := svc.ChangeStatus(ctx, open.ID, enums.OrderStatusCancelled, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	paid := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	ok, err = r.AttachPaymentSession(ctx, paid.ID, "cs_paid")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = svc.ChangeStatus(ctx, paid.ID, enums.OrderStatusCancelled, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	reloaded, err := r.FindByID(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status, "order is left for the payment confirmation")

	unlinked := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	_, err = svc.ChangeStatus(ctx, unlinked.ID, enums.OrderStatusCancelled, uuid.New())
	require.NoError(t, err)

	shipped := seedOrder(t, conn, uuid.New(), enums.OrderStatusPaid, time.Now().UTC())
	_, err = svc.ChangeStatus(ctx, shipped.ID, enums.OrderStatusShipped, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"cs_open", "cs_paid"}, releaser.released)
	assert.EqualValues(t, 2, countEvents(t, conn, enums.EventOrderCancelled))
}

func TestRepositoryConditionalWrites(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	r := NewRepository(conn)
	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, time.Now().UTC())

	ok, err := r.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.AttachPaymentSession(ctx, order.ID, "cs_1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.AttachPaymentSession(ctx, order.ID, "cs_2")
	require.NoError(t, err)
	assert.False(t, ok, "session id is set once")

	reloaded, err := r.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.PaymentSessionID)
	assert.Equal(t, "cs_1", *reloaded.PaymentSessionID)
}
