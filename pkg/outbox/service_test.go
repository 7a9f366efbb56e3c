package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/pkg/db/dbtest"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/enums"
)

func TestEmitStoresEnvelopeInTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{Source: "webhook"},
			Data:          OrderPaidEvent{OrderID: orderID, TotalCents: 1990, Source: "webhook"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderPaid, rows[0].EventType)
	assert.Equal(t, orderID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)

	var data OrderPaidEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, 1990, data.TotalCents)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          OrderCreatedEvent{},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRejectsUnknownTypesAndMissingTx(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))

	conn := dbtest.Open(t)
	err := svc.Emit(context.Background(), conn, DomainEvent{EventType: "bogus", AggregateType: enums.AggregateOrder})
	require.Error(t, err)
}

func TestRepositoryMarkPublishedAndFailed(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	rows, err := repo.FetchUnpublished(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublished(ctx, rows[0].ID))
	require.NoError(t, repo.MarkFailed(ctx, rows[1].ID, errors.New("pubsub down")))
	require.NoError(t, repo.MarkFailed(ctx, rows[1].ID, errors.New("pubsub down")))

	remaining, err := repo.FetchUnpublished(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, remaining, "published and exhausted events are skipped")

	all, err := repo.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].AttemptCount)
	require.NotNil(t, all[0].LastError)
	assert.Equal(t, "pubsub down", *all[0].LastError)
}

func TestRepositoryMarkTerminalSkipsEvent(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.Insert(conn, models.OutboxEvent{EventType: enums.EventOrderCancelled, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`not-json`)}))
	rows, err := repo.FetchUnpublished(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, repo.MarkTerminal(ctx, rows[0].ID, errors.New("malformed envelope"), 5))

	rows, err = repo.FetchUnpublished(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
