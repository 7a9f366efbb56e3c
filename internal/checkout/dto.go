package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/internal/checkout/helpers"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

// CreateOrderInput is the checkout request body.
type CreateOrderInput struct {
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	OriginURL       string                `json:"origin_url"`
}

// CreateOrderResult is handed back so the client can redirect to the gateway.
type CreateOrderResult struct {
	CheckoutURL string    `json:"checkout_url"`
	SessionID   string    `json:"session_id"`
	OrderID     uuid.UUID `json:"order_id"`
}

// QuoteDTO is the shipping preview payload.
type QuoteDTO struct {
	ShippingCost           string `json:"shipping_cost"`
	Threshold              string `json:"threshold"`
	IsFree                 bool   `json:"is_free"`
	AmountRemainingForFree string `json:"amount_remaining_for_free"`
}

func QuoteFromHelpers(q helpers.ShippingQuote) QuoteDTO {
	return QuoteDTO{
		ShippingCost:           types.FormatEuros(q.ShippingCostCents),
		Threshold:              types.FormatEuros(q.ThresholdCents),
		IsFree:                 q.IsFree,
		AmountRemainingForFree: types.FormatEuros(q.AmountRemainingCents),
	}
}
