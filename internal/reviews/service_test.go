package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/catalog"
	"github.com/angelmondragon/phytopro-backend/pkg/db/dbtest"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(client, NewRepository(conn), catalog.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB) models.Product {
	t.Helper()
	p := models.Product{Name: "Purin de prêle", Slug: uuid.NewString(), Category: "bio", Brand: "Acme", PriceCents: 700, Stock: 3}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func author(name string) *models.User {
	return &models.User{ID: uuid.New(), Name: name}
}

func TestCreateAggregatesRating(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	product := seedProduct(t, conn)

	for i, rating := range []int{5, 4, 3} {
		_, err := svc.Create(ctx, author(string(rune('A'+i))), CreateRequest{ProductID: product.ID, Rating: rating, Comment: " ok "})
		require.NoError(t, err)
	}

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	assert.True(t, decimal.NewFromFloat(4.0).Equal(reloaded.Rating), "got %s", reloaded.Rating)
	assert.Equal(t, 3, reloaded.ReviewsCount)
}

func TestCreateRejectsDuplicatesAndUnknownProducts(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	product := seedProduct(t, conn)
	user := author("Paul")

	_, err := svc.Create(ctx, user, CreateRequest{ProductID: product.ID, Rating: 4})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user, CreateRequest{ProductID: product.ID, Rating: 2})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicateReview))

	_, err = svc.Create(ctx, user, CreateRequest{ProductID: uuid.New(), Rating: 4})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Create(ctx, author("Eve"), CreateRequest{ProductID: product.ID, Rating: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 1, reloaded.ReviewsCount)
}

func TestListByProductNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)
	product := seedProduct(t, conn)
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "new"} {
		require.NoError(t, conn.Create(&models.Review{
			ProductID: product.ID,
			UserID:    uuid.New(),
			UserName:  name,
			Rating:    5,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}

	got, err := svc.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].UserName)
}

func TestAverageRating(t *testing.T) {
	cases := []struct {
		agg  Aggregate
		want string
	}{
		{Aggregate{Sum: 12, Count: 3}, "4"},
		{Aggregate{Sum: 9, Count: 2}, "4.5"},
		{Aggregate{Sum: 13, Count: 3}, "4.3"},
		{Aggregate{Sum: 14, Count: 3}, "4.7"},
		{Aggregate{}, "0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AverageRating(tc.agg).String())
	}
}
