package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/phytopro-backend/api/middleware"
	internalcheckout "github.com/angelmondragon/phytopro-backend/internal/checkout"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
)

type stubService struct {
	internalcheckout.Service
	gotUser  uuid.UUID
	gotInput internalcheckout.CreateOrderInput
	err      error
}

func (s *stubService) CreateOrder(_ context.Context, userID uuid.UUID, input internalcheckout.CreateOrderInput) (*internalcheckout.CreateOrderResult, error) {
	s.gotUser = userID
	s.gotInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalcheckout.CreateOrderResult{CheckoutURL: "https://checkout.stripe.com/c/pay/cs_test", SessionID: "cs_test", OrderID: uuid.New()}, nil
}

const orderBody = `{"shipping_address":{"full_name":"Jean Dupont","address":"1 rue des Vignes","city":"Bordeaux","postal_code":"33000","phone":"0600000000"}}`

func authed(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

func TestCreateOrderFallsBackToOriginHeader(t *testing.T) {
	svc := &stubService{}
	user := &models.User{ID: uuid.New()}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout/create-order", strings.NewReader(orderBody)), user)
	req.Header.Set("Origin", "https://shop.example.fr")
	rec := httptest.NewRecorder()

	CreateOrder(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, svc.gotUser)
	assert.Equal(t, "https://shop.example.fr", svc.gotInput.OriginURL)
	assert.Equal(t, "Bordeaux", svc.gotInput.ShippingAddress.City)
	assert.Contains(t, rec.Body.String(), `"checkout_url":"https://checkout.stripe.com/c/pay/cs_test"`)
}

func TestCreateOrderRendersStockError(t *testing.T) {
	svc := &stubService{err: pkgerrors.InsufficientStock(pkgerrors.StockDetails{ProductID: "p1", ProductName: "Bouillie bordelaise", Available: 1, Requested: 2})}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout/create-order", strings.NewReader(orderBody)), &models.User{ID: uuid.New()})
	rec := httptest.NewRecorder()

	CreateOrder(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pkgerrors.CodeInsufficientStock))
	assert.Contains(t, rec.Body.String(), "Bouillie bordelaise")
}
